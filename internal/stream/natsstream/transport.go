package natsstream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/stream"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const (
	HeaderMessageKind        = "Indexer-Message-Kind"
	HeaderInvalidateSequence = "Indexer-Invalidate-Sequence"

	kindInvalidate = "invalidate"
)

// Config holds the NATS JetStream connection settings
type Config struct {
	URL            string
	StreamName     string
	Subject        string
	ConnectionName string
	// SequenceOffset maps block heights onto stream sequences: streamSeq = height - SequenceOffset.
	SequenceOffset uint64
	ConnectTimeout time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
}

type Transport struct {
	cfg Config
	nc  *nats.Conn
	js  jetstream.JetStream
}

func Connect(cfg Config) (*Transport, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				zap.L().Warn("Disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.L().Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			zap.L().Info("NATS connection closed")
		}),
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnectTimeout))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	zap.L().Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()), zap.String("stream", cfg.StreamName))
	return &Transport{cfg: cfg, nc: nc, js: js}, nil
}

// Subscribe opens an ordered consumer positioned at startSequence. The consumer pulls a
// single message at a time, so nothing is buffered ahead of the caller.
func (t *Transport) Subscribe(ctx context.Context, startSequence uint64) (stream.Subscription, error) {
	if startSequence <= t.cfg.SequenceOffset {
		return nil, fmt.Errorf("%w: start sequence %d is not above stream offset %d", stream.ErrMisconfigured, startSequence, t.cfg.SequenceOffset)
	}

	consumerCfg := jetstream.OrderedConsumerConfig{
		DeliverPolicy: jetstream.DeliverByStartSequencePolicy,
		OptStartSeq:   startSequence - t.cfg.SequenceOffset,
	}
	if t.cfg.Subject != "" {
		consumerCfg.FilterSubjects = []string{t.cfg.Subject}
	}

	cons, err := t.js.OrderedConsumer(ctx, t.cfg.StreamName, consumerCfg)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		return nil, fmt.Errorf("%w: stream %s: %v", stream.ErrMisconfigured, t.cfg.StreamName, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create ordered consumer on %s: %w", t.cfg.StreamName, err)
	}
	iter, err := cons.Messages(jetstream.PullMaxMessages(1))
	if err != nil {
		return nil, fmt.Errorf("failed to start message iterator: %w", err)
	}

	zap.L().Info("Subscribed to block stream",
		zap.String("stream", t.cfg.StreamName),
		zap.Uint64("startSequence", startSequence),
		zap.Uint64("streamSequence", consumerCfg.OptStartSeq),
	)
	return &subscription{iter: iter, offset: t.cfg.SequenceOffset}, nil
}

func (t *Transport) Close() {
	if t.nc == nil {
		return
	}
	t.nc.Close()
}

type subscription struct {
	iter   jetstream.MessagesContext
	offset uint64
}

func (s *subscription) Next(ctx context.Context) (stream.Message, error) {
	stop := context.AfterFunc(ctx, s.iter.Stop)
	defer stop()

	msg, err := s.iter.Next()
	if err != nil {
		if ctx.Err() != nil {
			return stream.Message{}, ctx.Err()
		}
		// only Close stops the iterator besides ctx; a closed connection or a deleted
		// consumer is a transport failure, not an end
		if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
			return stream.Message{}, stream.ErrStreamEnded
		}
		return stream.Message{}, fmt.Errorf("failed to read next block message: %w", err)
	}

	meta, err := msg.Metadata()
	if err != nil {
		return stream.Message{}, fmt.Errorf("failed to read message metadata: %w", err)
	}
	return toMessage(msg.Data(), msg.Headers(), meta.Sequence.Stream, s.offset), nil
}

func (s *subscription) Close() error {
	s.iter.Stop()
	return nil
}

func toMessage(data []byte, headers nats.Header, streamSeq, offset uint64) stream.Message {
	seq := streamSeq + offset
	if headers.Get(HeaderMessageKind) != kindInvalidate {
		return stream.Message{Kind: stream.MessageData, Data: data, Sequence: seq}
	}

	invalidated := seq
	if raw := headers.Get(HeaderInvalidateSequence); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			zap.L().Warn("Bad invalidate sequence header, using delivery position",
				zap.String("header", raw),
				zap.Uint64("sequence", seq),
				zap.Error(err),
			)
		} else {
			invalidated = parsed
		}
	}
	return stream.Message{Kind: stream.MessageInvalidate, InvalidateSequence: invalidated, Sequence: seq}
}
