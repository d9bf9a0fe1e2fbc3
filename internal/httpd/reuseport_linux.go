//go:build linux

package httpd

import "golang.org/x/sys/unix"

// setReusePort sets SO_REUSEPORT so multiple server instances can bind the
// same address, letting the kernel load-balance accepted connections.
func setReusePort(fd int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
