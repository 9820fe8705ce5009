package seastark

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/starknet"
	"github.com/6529-Collections/seastark-indexer/internal/stream"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var (
	SEA_STARK_CONTRACTS = []string{
		"0x030f5a9fbcf76e2171e49435f4d6524411231f257a1b28f517cf52f82279c06b",
		"0x05a85cf2c715955a5d8971e01d1d98e04c31d919b6d59824efb32cc72ae90e63",
		"0x022ddbb66fabf9ae859de95c499839ff46362128908d5e3d0842368aef8beb31",
		"0x003d062b797ca97c2302bfdd0e9b687548771eda981d417faace4f6913ed8f2a",
		"0x021f433090908c2e7a6672cdbc327f49ac11bcc922611620c2c4e0d915a83382",
		"0x028c87a966e2f1166ba7fa8ae1cd89b47e13abcc676e5f7c508145751bbb7f15",
		"0x05c30f6043246a0c4e45a0316806e053e63746fba3584e1f4fc1d4e7f5300acf",
	}
	SEA_STARK_GENESIS_BLOCK = uint64(514130)
	DEFAULT_INDEXER_ID      = "sea-starktest-indexer"
	TRANSFER_EVENT_NAME     = "Transfer"
)

// Options configures one indexer identity. Zero values fall back to the Sea Stark defaults.
type Options struct {
	IndexerID         string
	GenesisSequence   uint64
	Contracts         []string
	TransferEventName string
	// TransferSelector overrides the selector derived from TransferEventName.
	TransferSelector string
	ProgressEvery    uint64
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
}

func (o Options) withDefaults() Options {
	if o.IndexerID == "" {
		o.IndexerID = DEFAULT_INDEXER_ID
	}
	if o.GenesisSequence == 0 {
		o.GenesisSequence = SEA_STARK_GENESIS_BLOCK
	}
	if len(o.Contracts) == 0 {
		o.Contracts = SEA_STARK_CONTRACTS
	}
	if o.TransferEventName == "" {
		o.TransferEventName = TRANSFER_EVENT_NAME
	}
	return o
}

func (o Options) selector() (starknet.Felt, error) {
	if o.TransferSelector != "" {
		sel, err := starknet.ParseFelt(o.TransferSelector)
		if err != nil {
			return starknet.Felt{}, fmt.Errorf("transfer selector: %w", err)
		}
		return sel, nil
	}
	return starknet.SelectorFromName(o.TransferEventName), nil
}

type Listener struct {
	opts       Options
	consumer   *starknet.StreamConsumer
	supervisor *starknet.Supervisor
}

// NewListener wires the consumer and its supervisor over the projection store, the block
// journal and a stream transport. journalDb may be nil.
func NewListener(opts Options, sqlite *sql.DB, journalDb *badger.DB, transport stream.Transport) (*Listener, error) {
	opts = opts.withDefaults()

	contracts, err := starknet.ParseFelts(opts.Contracts)
	if err != nil {
		return nil, fmt.Errorf("contract allow-list: %w", err)
	}
	selector, err := opts.selector()
	if err != nil {
		return nil, err
	}

	var journal starknet.BlockJournal
	if journalDb != nil {
		journal = starknet.NewBlockJournal(journalDb)
	}

	consumer := starknet.NewStreamConsumer(
		starknet.ConsumerConfig{
			IndexerID:       opts.IndexerID,
			GenesisSequence: opts.GenesisSequence,
			ProgressEvery:   opts.ProgressEvery,
		},
		transport,
		starknet.NewJSONBlockDecoder(),
		starknet.NewTransferExtractor(contracts, selector),
		starknet.NewSqlBlockCommitter(sqlite, opts.IndexerID),
		starknet.NewSqlCheckpointReader(sqlite),
		journal,
	)
	supervisor := starknet.NewSupervisor(starknet.SupervisorConfig{
		IndexerID:      opts.IndexerID,
		InitialBackoff: opts.InitialBackoff,
		MaxBackoff:     opts.MaxBackoff,
	}, consumer)

	zap.L().Info("Sea Stark listener configured",
		zap.String("indexer", opts.IndexerID),
		zap.Uint64("genesis", opts.GenesisSequence),
		zap.Strings("contracts", opts.Contracts),
		zap.String("selector", selector.Hex()),
	)
	return &Listener{opts: opts, consumer: consumer, supervisor: supervisor}, nil
}

func (l *Listener) Consumer() *starknet.StreamConsumer {
	return l.consumer
}

// ListenAsync runs the supervisor in the background. The returned channel yields the fatal
// error, if any, and is closed when listening stops.
func (l *Listener) ListenAsync(ctx context.Context) <-chan error {
	fatal := make(chan error, 1)
	go func() {
		defer close(fatal)
		if err := l.supervisor.Run(ctx); err != nil {
			fatal <- err
		}
	}()
	return fatal
}
