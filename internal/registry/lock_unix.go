//go:build !windows

package registry

import (
	"fmt"
	"os"
	"syscall"
)

// WithLock runs fn while holding an exclusive advisory lock on the store.
// Two simultaneous invocations could otherwise both pass a collision check
// or lose each other's writes during load-mutate-save.
func (r *Registry) WithLock(fn func() error) error {
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return fmt.Errorf("create registry dir %s: %w", r.dir, err)
	}
	f, err := os.OpenFile(r.path+".lock", os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open registry lock: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock registry: %w", err)
	}
	defer func() { _ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN) }()
	return fn()
}
