package core

// Frame is an encoded outbound message, ready for the wire.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues f without blocking. It returns domain.ErrBackpressure
	// when the queue is full and domain.ErrConnClosed after Close.
	TrySend(Frame) error
	Close()
}
