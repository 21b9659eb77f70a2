//go:build unix

package sender

import (
	"net"

	"golang.org/x/sys/unix"
)

// setSendBuffer sets SO_SNDBUF directly so the requested size is applied
// as-is rather than through the runtime's portable wrapper.
func setSendBuffer(conn *net.UDPConn, size int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	if err := raw.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, size)
	}); err != nil {
		return err
	}
	return serr
}

// sendBufferSize reads SO_SNDBUF back from the kernel.
func sendBufferSize(conn *net.UDPConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var (
		size int
		serr error
	)
	if err := raw.Control(func(fd uintptr) {
		size, serr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
	}); err != nil {
		return 0, err
	}
	return size, serr
}
