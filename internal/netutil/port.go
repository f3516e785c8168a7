package netutil

import (
	"fmt"
	"net"
	"strconv"
)

// LoopbackHost is the interface workers listen on.
const LoopbackHost = "127.0.0.1"

// LoopbackAddr returns the host:port address of a worker listening on port.
func LoopbackAddr(port uint16) string {
	return net.JoinHostPort(LoopbackHost, strconv.Itoa(int(port)))
}

// ListenLoopback binds a TCP listener on a kernel-assigned loopback port and
// returns it together with the port. The caller owns the listener.
//
// Keeping the listener open, rather than closing it and reporting the port
// number, avoids a window in which another process could take the port
// before the worker binds it again.
func ListenLoopback() (*net.TCPListener, uint16, error) {
	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(LoopbackHost, "0"))
	if err != nil {
		return nil, 0, fmt.Errorf("resolve tcp address: %w", err)
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, 0, fmt.Errorf("listen on tcp address: %w", err)
	}
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		_ = l.Close()
		return nil, 0, fmt.Errorf("unexpected address type: %T", l.Addr())
	}
	return l, uint16(tcpAddr.Port), nil
}
