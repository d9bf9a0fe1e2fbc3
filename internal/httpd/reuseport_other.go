//go:build !linux

package httpd

// setReusePort is a no-op on platforms without SO_REUSEPORT support in this
// package's target deployment environment.
func setReusePort(fd int) error {
	return nil
}
