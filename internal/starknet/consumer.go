package starknet

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/metrics"
	"github.com/6529-Collections/seastark-indexer/internal/stream"
	"go.uber.org/zap"
)

type ConsumerState int32

const (
	StateStarting ConsumerState = iota
	StateStreaming
	StateTerminatedClean
	StateTerminatedError
)

func (s ConsumerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateTerminatedClean:
		return "terminated_clean"
	case StateTerminatedError:
		return "terminated_error"
	default:
		return "unknown"
	}
}

// journal hashes older than this many blocks behind the head are pruned
const journalRetention = 1024

type ConsumerConfig struct {
	IndexerID       string
	GenesisSequence uint64
	// ProgressEvery logs block hash, height and time for heights divisible by it. Zero disables it.
	ProgressEvery uint64
}

// StreamConsumer drives one indexer identity: it resumes after the last committed block and
// commits each block before pulling the next one.
type StreamConsumer struct {
	cfg         ConsumerConfig
	transport   stream.Transport
	decoder     BlockDecoder
	extractor   *TransferExtractor
	committer   BlockCommitter
	checkpoints CheckpointReader
	journal     BlockJournal

	state     atomic.Int32
	committed atomic.Uint64
}

// NewStreamConsumer wires a consumer. journal may be nil.
func NewStreamConsumer(
	cfg ConsumerConfig,
	transport stream.Transport,
	decoder BlockDecoder,
	extractor *TransferExtractor,
	committer BlockCommitter,
	checkpoints CheckpointReader,
	journal BlockJournal,
) *StreamConsumer {
	return &StreamConsumer{
		cfg:         cfg,
		transport:   transport,
		decoder:     decoder,
		extractor:   extractor,
		committer:   committer,
		checkpoints: checkpoints,
		journal:     journal,
	}
}

func (c *StreamConsumer) State() ConsumerState {
	return ConsumerState(c.state.Load())
}

// BlocksCommitted reports how many blocks the latest Run committed.
func (c *StreamConsumer) BlocksCommitted() uint64 {
	return c.committed.Load()
}

// Run consumes until the stream ends, the context is cancelled or a block fails.
// A clean end returns nil and cancellation returns ctx.Err().
func (c *StreamConsumer) Run(ctx context.Context) (err error) {
	c.state.Store(int32(StateStarting))
	c.committed.Store(0)
	defer func() {
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.state.Store(int32(StateTerminatedClean))
		} else {
			c.state.Store(int32(StateTerminatedError))
		}
	}()

	start, err := c.startSequence(ctx)
	if err != nil {
		return err
	}

	sub, err := c.transport.Subscribe(ctx, start)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, stream.ErrMisconfigured) {
			return fmt.Errorf("subscribe at %d: %w", start, err)
		}
		return &TransientStreamError{Err: fmt.Errorf("subscribe at %d: %w", start, err)}
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil {
			zap.L().Warn("Failed to close subscription", zap.Error(cerr))
		}
	}()

	c.state.Store(int32(StateStreaming))
	zap.L().Info("Streaming blocks",
		zap.String("indexer", c.cfg.IndexerID),
		zap.Uint64("startSequence", start),
	)

	next := start
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, stream.ErrStreamEnded) {
				zap.L().Info("Block stream ended", zap.String("indexer", c.cfg.IndexerID), zap.Uint64("nextSequence", next))
				return nil
			}
			return &TransientStreamError{Err: err}
		}

		switch msg.Kind {
		case stream.MessageInvalidate:
			c.handleInvalidation(msg.InvalidateSequence)
		default:
			height, err := c.handleBlock(ctx, msg.Data, next)
			if err != nil {
				return err
			}
			if height >= next {
				next = height + 1
			}
		}
	}
}

func (c *StreamConsumer) startSequence(ctx context.Context) (uint64, error) {
	seq, ok, err := c.checkpoints.ReadCheckpoint(ctx, c.cfg.IndexerID)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &PersistenceError{Height: c.cfg.GenesisSequence, Err: fmt.Errorf("read checkpoint: %w", err)}
	}
	if !ok {
		zap.L().Info("No checkpoint, starting from genesis",
			zap.String("indexer", c.cfg.IndexerID),
			zap.Uint64("genesis", c.cfg.GenesisSequence),
		)
		return c.cfg.GenesisSequence, nil
	}
	zap.L().Info("Resuming from checkpoint", zap.String("indexer", c.cfg.IndexerID), zap.Uint64("checkpoint", seq))
	return seq + 1, nil
}

// handleBlock decodes, extracts and commits one block. It returns the block height.
func (c *StreamConsumer) handleBlock(ctx context.Context, data []byte, expected uint64) (uint64, error) {
	block, err := c.decoder.Decode(data)
	if err != nil {
		return 0, &MalformedBlockError{Height: expected, Err: err}
	}

	if block.Height < expected {
		zap.L().Warn("Skipping already committed block",
			zap.Uint64("block", block.Height),
			zap.Uint64("expected", expected),
		)
		return block.Height, nil
	}
	if block.Height > expected {
		zap.L().Warn("Gap in block stream",
			zap.Uint64("block", block.Height),
			zap.Uint64("expected", expected),
		)
	}

	transfers, err := c.extractor.Extract(block)
	if err != nil {
		return 0, err
	}
	if err := c.committer.CommitBlock(ctx, block.Height, transfers); err != nil {
		return 0, err
	}
	c.committed.Add(1)

	if c.journal != nil {
		if err := c.journal.RecordBlock(block.Height, block.Hash); err != nil {
			zap.L().Warn("Failed to journal block hash", zap.Uint64("block", block.Height), zap.Error(err))
		}
	}

	if c.cfg.ProgressEvery > 0 && block.Height%c.cfg.ProgressEvery == 0 {
		zap.L().Info("Progress",
			zap.String("indexer", c.cfg.IndexerID),
			zap.String("hash", block.Hash.Hex()),
			zap.Uint64("number", block.Height),
			zap.Time("time", block.Timestamp),
		)
		c.pruneJournal(block.Height)
	}
	return block.Height, nil
}

func (c *StreamConsumer) handleInvalidation(sequence uint64) {
	metrics.Invalidations.WithLabelValues(c.cfg.IndexerID).Inc()

	fields := []zap.Field{
		zap.String("indexer", c.cfg.IndexerID),
		zap.Uint64("sequence", sequence),
	}
	if c.journal == nil {
		zap.L().Warn("Invalidation received", fields...)
		return
	}
	hash, ok, err := c.journal.GetHash(sequence)
	if err != nil {
		zap.L().Warn("Failed to read journaled hash", zap.Uint64("sequence", sequence), zap.Error(err))
	} else if ok {
		fields = append(fields, zap.String("hash", hash.Hex()))
	}
	zap.L().Warn("Invalidation received", fields...)

	if err := c.journal.RecordInvalidation(sequence, time.Now()); err != nil {
		zap.L().Warn("Failed to journal invalidation", zap.Uint64("sequence", sequence), zap.Error(err))
	}
	if err := c.journal.RevertFromBlock(sequence); err != nil {
		zap.L().Warn("Failed to revert journaled hashes", zap.Uint64("sequence", sequence), zap.Error(err))
	}
}

func (c *StreamConsumer) pruneJournal(height uint64) {
	if c.journal == nil || height <= journalRetention {
		return
	}
	if err := c.journal.PruneBefore(height - journalRetention); err != nil {
		zap.L().Warn("Failed to prune block journal", zap.Error(err))
	}
}
