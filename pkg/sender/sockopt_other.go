//go:build !unix

package sender

import (
	"errors"
	"net"
)

func setSendBuffer(conn *net.UDPConn, size int) error {
	return conn.SetWriteBuffer(size)
}

func sendBufferSize(conn *net.UDPConn) (int, error) {
	return 0, errors.New("sender: send buffer size not readable on this platform")
}
