//go:build windows

package registry

// WithLock is a no-op on Windows; the single-writer assumption from the
// concurrency model applies unguarded there.
func (r *Registry) WithLock(fn func() error) error {
	return fn()
}
