package netutil

import (
	"net"
	"testing"
)

func TestLoopbackAddr(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		port uint16
		want string
	}{
		"typical": {port: 54321, want: "127.0.0.1:54321"},
		"zero":    {port: 0, want: "127.0.0.1:0"},
		"max":     {port: 65535, want: "127.0.0.1:65535"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := LoopbackAddr(tc.port); got != tc.want {
				t.Errorf("LoopbackAddr(%d) = %q, want %q", tc.port, got, tc.want)
			}
		})
	}
}

func TestListenLoopback(t *testing.T) {
	t.Parallel()

	l, port, err := ListenLoopback()
	if err != nil {
		t.Fatalf("ListenLoopback() error = %v", err)
	}
	defer l.Close()

	if port == 0 {
		t.Fatal("ListenLoopback() port = 0, want kernel-assigned port")
	}

	accepted := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			_ = conn.Close()
		}
		accepted <- err
	}()

	conn, err := net.Dial("tcp", LoopbackAddr(port))
	if err != nil {
		t.Fatalf("dial %s: %v", LoopbackAddr(port), err)
	}
	_ = conn.Close()

	if err := <-accepted; err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
}

func TestListenLoopback_DistinctPorts(t *testing.T) {
	t.Parallel()

	l1, p1, err := ListenLoopback()
	if err != nil {
		t.Fatalf("first ListenLoopback() error = %v", err)
	}
	defer l1.Close()
	l2, p2, err := ListenLoopback()
	if err != nil {
		t.Fatalf("second ListenLoopback() error = %v", err)
	}
	defer l2.Close()

	if p1 == p2 {
		t.Errorf("both listeners got port %d", p1)
	}
}
