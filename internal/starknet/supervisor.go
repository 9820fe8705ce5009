package starknet

import (
	"context"
	"errors"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Runner is one consumer run. BlocksCommitted reports progress made by the latest run.
type Runner interface {
	Run(ctx context.Context) error
	BlocksCommitted() uint64
}

type SupervisorConfig struct {
	IndexerID      string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Supervisor restarts the consumer after transient stream failures and stops on anything else.
type Supervisor struct {
	cfg        SupervisorConfig
	consumer   Runner
	newBackOff func() backoff.BackOff
}

func NewSupervisor(cfg SupervisorConfig, consumer Runner) *Supervisor {
	s := &Supervisor{cfg: cfg, consumer: consumer}
	s.newBackOff = s.exponentialBackOff
	return s
}

func (s *Supervisor) exponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if s.cfg.InitialBackoff > 0 {
		b.InitialInterval = s.cfg.InitialBackoff
	}
	if s.cfg.MaxBackoff > 0 {
		b.MaxInterval = s.cfg.MaxBackoff
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Run blocks until the consumer ends cleanly, ctx is cancelled, or a non-transient error occurs.
// Only the last case is returned.
func (s *Supervisor) Run(ctx context.Context) error {
	b := backoff.WithContext(s.newBackOff(), ctx)

	operation := func() error {
		err := s.consumer.Run(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		if s.consumer.BlocksCommitted() > 0 {
			b.Reset()
		}
		metrics.ConsumerRestarts.WithLabelValues(s.cfg.IndexerID).Inc()
		return err
	}

	notify := func(err error, wait time.Duration) {
		zap.L().Warn("Stream consumer terminated, restarting",
			zap.String("indexer", s.cfg.IndexerID),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, b, notify)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		zap.L().Error("Stream consumer stopped", zap.String("indexer", s.cfg.IndexerID), zap.Error(err))
	}
	return err
}
