package stream

import (
	"context"
	"errors"
)

// ErrStreamEnded is returned by Subscription.Next once the subscription was closed or the
// source has no more blocks. It is a clean termination, not a failure. Connection loss is
// not an end: transports report it as an ordinary error.
var ErrStreamEnded = errors.New("stream ended")

// ErrMisconfigured is wrapped by Transport.Subscribe when the stream cannot be opened as
// configured, for example when it does not exist. Resubscribing does not help.
var ErrMisconfigured = errors.New("block stream misconfigured")

type MessageKind int

const (
	MessageData MessageKind = iota
	MessageInvalidate
)

func (k MessageKind) String() string {
	switch k {
	case MessageData:
		return "data"
	case MessageInvalidate:
		return "invalidate"
	default:
		return "unknown"
	}
}

// Message is one delivery from the block stream.
type Message struct {
	Kind MessageKind
	// Data holds the encoded block for MessageData.
	Data []byte
	// InvalidateSequence is the first height no longer canonical, for MessageInvalidate.
	InvalidateSequence uint64
	// Sequence is the delivery position mapped into block heights.
	Sequence uint64
}

// Transport opens an ordered block stream starting at a given height.
//
//go:generate mockgen -source=stream.go -destination=mocks/stream.go -package=mocks
type Transport interface {
	Subscribe(ctx context.Context, startSequence uint64) (Subscription, error)
}

// Subscription yields messages strictly in order, one at a time.
type Subscription interface {
	Next(ctx context.Context) (Message, error)
	Close() error
}
