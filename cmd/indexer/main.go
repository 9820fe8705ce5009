package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/config"
	"github.com/6529-Collections/seastark-indexer/internal/db"
	"github.com/6529-Collections/seastark-indexer/internal/logger"
	"github.com/6529-Collections/seastark-indexer/internal/rpc"
	"github.com/6529-Collections/seastark-indexer/internal/stream/natsstream"
	"github.com/6529-Collections/seastark-indexer/pkg/seastark"
	"go.uber.org/zap"
)

var Version = "dev" // Overridden by release build script

func main() {
	cfg := config.Get()
	if _, err := logger.Initialize(logger.Config{
		Mode:      cfg.LogZapMode,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"indexer": cfg.IndexerID, "version": Version},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Flush(2 * time.Second)

	zap.L().Info("Starting seastark-indexer...", zap.String("Version", Version))

	// Catch up to two signals: first for graceful, second to force
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(cfg, sigCh); err != nil {
		zap.L().Error("Indexer stopped with error", zap.Error(err))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
	zap.L().Info("Shutdown complete")
}

func run(cfg config.Config, sigCh <-chan os.Signal) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Main context: canceled when we want to stop normal operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqlite, err := db.OpenSqlite(cfg.SqlitePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlite.Close(); err != nil {
			zap.L().Warn("Error closing DB", zap.Error(err))
		}
	}()

	journalDb, err := db.OpenBadger(cfg.BadgerPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := journalDb.Close(); err != nil {
			zap.L().Warn("Error closing BadgerDB", zap.Error(err))
		}
	}()

	transport, err := natsstream.Connect(natsstream.Config{
		URL:            cfg.StreamURL,
		StreamName:     cfg.StreamName,
		Subject:        cfg.StreamSubject,
		ConnectionName: cfg.IndexerID,
		SequenceOffset: cfg.StreamSequenceOffset,
		ConnectTimeout: 5 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
	})
	if err != nil {
		return err
	}
	defer transport.Close()

	listener, err := seastark.NewListener(seastark.Options{
		IndexerID:         cfg.IndexerID,
		GenesisSequence:   cfg.GenesisSequence,
		Contracts:         cfg.ContractAddressList(),
		TransferEventName: cfg.TransferEventName,
		TransferSelector:  cfg.TransferSelector,
		ProgressEvery:     cfg.ProgressLogEvery,
		InitialBackoff:    cfg.RestartInitialBackoff,
		MaxBackoff:        cfg.RestartMaxBackoff,
	}, sqlite, journalDb, transport)
	if err != nil {
		return err
	}

	closeRpcServer := rpc.StartRPCServer(cfg.RPCPort, sqlite, cfg.IndexerID, ctx)
	defer closeRpcServer()

	fatalCh := listener.ListenAsync(ctx)

	select {
	case <-sigCh:
		zap.L().Info("Received shutdown signal, initiating graceful shutdown...")
	case err, ok := <-fatalCh:
		if ok && err != nil {
			return err
		}
		zap.L().Info("Block stream ended")
		return nil
	}

	// If a second signal arrives, force an immediate exit
	go func() {
		<-sigCh
		zap.L().Error("Received second signal, forcing shutdown")
		os.Exit(1)
	}()

	// Stop the consumer before the stores it writes to are closed
	cancel()
	if err, ok := <-fatalCh; ok && err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
