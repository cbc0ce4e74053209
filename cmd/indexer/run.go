package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gaugeScope/internal/chain"
	"gaugeScope/internal/config"
	"gaugeScope/internal/contracts"
	"gaugeScope/internal/indexer"
	"gaugeScope/internal/storage"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch raw logs into a JSONL file",
		RunE:  runIndexer,
	}

	flags := cmd.Flags()
	flags.String("rpc", "", "chain RPC URL")
	flags.String("network", "", "optional network name (matic, bsc) checked against the RPC chain id")
	flags.Uint64("from", 0, "start block (inclusive)")
	flags.Uint64("to", 0, "end block (inclusive), 0 means latest")
	flags.StringSlice("address", nil, "contract addresses (comma-separated)")
	flags.StringSlice("topic0", nil, "topic0 signatures (comma-separated), defaults to every projected event")
	flags.Uint64("batch-size", 2000, "blocks per batch")
	flags.String("out", "./data/logs.jsonl", "output JSONL path")
	flags.String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	flags.Bool("checkpoint-enabled", true, "enable checkpointing")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadRun(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addresses, err := indexer.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	topic0, err := indexer.ParseTopic0(cfg.Topic0)
	if err != nil {
		return err
	}
	if len(topic0) == 0 {
		if topic0, err = contracts.ProjectionTopics(); err != nil {
			return err
		}
	}

	var expectedChainID uint64
	if cfg.Network != "" {
		network, err := config.LookupNetwork(cfg.Network)
		if err != nil {
			return err
		}
		expectedChainID = network.ChainID
	}

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		ExpectedChainID:   expectedChainID,
		Addresses:         addresses,
		Topic0:            topic0,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, storage.NewJsonlStorage(cfg.Out), logger)

	logger.Info("indexer start",
		zap.String("network", cfg.Network),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(addresses)),
		zap.Int("topic0", len(topic0)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}
