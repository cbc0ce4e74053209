package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

// LogSource is the chain access the runner needs.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock uint64
	ToBlock   uint64
	// ExpectedChainID aborts the run when the RPC serves another chain.
	// Zero disables the check.
	ExpectedChainID   uint64
	Addresses         []common.Address
	Topic0            []common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner streams logs from the chain and writes them to storage in
// (block, log index) order.
type Runner struct {
	cfg        RunConfig
	source     LogSource
	storage    storage.Storage
	logger     *zap.Logger
	retry      retrier
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source LogSource, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		storage:    storageSink,
		logger:     logger,
		retry:      newRetrier(cfg.MaxRetries, cfg.RetryBackoff, logger),
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Addresses) == 0 && len(r.cfg.Topic0) == 0 {
		return fmt.Errorf("an address or topic0 filter is required")
	}

	chainID, err := r.chainID(ctx)
	if err != nil {
		return err
	}

	from, to, err := r.blockSpan(ctx)
	if err != nil {
		return err
	}
	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	for blockRange := range blockRanges(from, to, r.cfg.BatchSize) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.syncRange(ctx, chainID, blockRange); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) chainID(ctx context.Context) (uint64, error) {
	chainID, err := r.source.GetChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return 0, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	if r.cfg.ExpectedChainID != 0 && chainID.Uint64() != r.cfg.ExpectedChainID {
		return 0, fmt.Errorf("rpc chain id %d, expected %d", chainID.Uint64(), r.cfg.ExpectedChainID)
	}
	return chainID.Uint64(), nil
}

// blockSpan resolves the inclusive range still to sync, honoring the
// checkpoint.
func (r *Runner) blockSpan(ctx context.Context) (uint64, uint64, error) {
	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.source.LatestBlockNumber(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return 0, 0, err
	}
	if ok && cp.LastProcessedBlock >= from {
		from = cp.LastProcessedBlock + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
	}
	return from, to, nil
}

func (r *Runner) syncRange(ctx context.Context, chainID uint64, blockRange BlockRange) error {
	r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
	if err != nil {
		return fmt.Errorf("filter logs: %w", err)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	ingestedAt := time.Now().UTC()
	records := make([]model.LogRecord, 0, len(logs))
	for _, log := range logs {
		record := model.NewLogRecord(chainID, log, ingestedAt)
		if r.isDuplicate(record) {
			continue
		}

		ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
		if err != nil {
			return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		record.Timestamp = ts
		records = append(records, record)
	}

	if err := r.storage.PutLogBatch(records); err != nil {
		return fmt.Errorf("store logs: %w", err)
	}
	if err := r.checkpoint.Save(blockRange.To); err != nil {
		return err
	}

	r.logger.Info("batch complete", zap.Int("logs", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	return nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := r.retry.do(ctx, "filter logs", func(ctx context.Context) error {
		var err error
		logs, err = r.source.FilterLogs(ctx, fromBlock, toBlock, r.cfg.Addresses, r.cfg.Topic0)
		return err
	}, zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := r.retry.do(ctx, "block timestamp", func(ctx context.Context) error {
		var err error
		ts, err = r.source.BlockTimestamp(ctx, blockNumber)
		return err
	}, zap.Uint64("block_number", blockNumber))
	return ts, err
}

func (r *Runner) isDuplicate(record model.LogRecord) bool {
	key := record.Key()
	if _, ok := r.seen[key]; ok {
		return true
	}
	r.seen[key] = struct{}{}
	return false
}
