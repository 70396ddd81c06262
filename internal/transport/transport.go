// Package transport defines the message channel the session controller
// drives. Implementations live in sub-packages.
package transport

import "context"

// Conn is one full-duplex connection to the remote client carrying UTF-8
// JSON frames. Read must only be called from one goroutine.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close(reason string) error
}

// Dialer opens connections to the remote client.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) {
	return f(ctx)
}
