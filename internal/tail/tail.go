// Package tail reads the end of per-process log files: a bounded tail of the
// last N lines, and a follow mode that streams appended data until cancelled.
package tail

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const readChunk = 4096

// Lines returns the last n lines of the file at path, or every line when the
// file holds fewer. The file is read backwards in chunks so large logs are
// not loaded whole.
func Lines(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	var (
		collected []byte
		offset    = size
		newlines  int
	)
	for offset > 0 && newlines <= n {
		chunk := int64(readChunk)
		if offset < chunk {
			chunk = offset
		}
		offset -= chunk
		buf := make([]byte, chunk)
		if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read log %s: %w", path, err)
		}
		collected = append(buf, collected...)
		newlines = strings.Count(string(collected), "\n")
	}

	text := strings.TrimSuffix(string(collected), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Follow seeks to the end of the file and streams newly appended data to w.
// When no data is available it sleeps pollInterval before retrying. Reaching
// EOF never ends the follow; only ctx cancellation does, and the ctx error
// is returned so callers can distinguish interrupt from I/O failure.
func Follow(ctx context.Context, path string, w io.Writer, pollInterval time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek log %s: %w", path, err)
	}

	buf := make([]byte, readChunk)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			continue
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("read log %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
