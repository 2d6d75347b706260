package core

import "errors"

var (
	// ErrBackpressure means the outbound queue of a connection is full.
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Frame is a raw payload as it travels over the signaling transport.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues a text frame without blocking.
	TrySend(Frame) error
	// TrySendAudio queues a binary frame without blocking.
	TrySendAudio(Frame) error
	Close()
}
