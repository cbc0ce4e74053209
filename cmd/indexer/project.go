package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gaugeScope/internal/chain"
	"gaugeScope/internal/config"
	"gaugeScope/internal/contracts"
	"gaugeScope/internal/observability"
	"gaugeScope/internal/projection"
	"gaugeScope/internal/projector"
	"gaugeScope/internal/storage/postgres"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project raw logs into the gauge, bribe and vote entity graph",
		RunE:  runProject,
	}

	flags := cmd.Flags()
	flags.String("rpc", "", "archive RPC URL for point-in-time contract reads")
	flags.String("in", "", "input raw logs JSONL")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("network", "matic", "network name (matic, bsc)")
	flags.String("voter", "", "voter contract address")
	flags.String("minter", "", "minter contract address of the ve underlying token")
	flags.Int("batch-size", 500, "events between progress saves")
	flags.String("state-file", "", "optional local state file for progress tracking")
	flags.String("state-name", "project", "indexer_state row name when no state file is set")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	flags.String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runProject(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadProject(configFile(cmd), cmd.Flags())
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
	network, err := config.LookupNetwork(cfg.Network)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() || chainID.Uint64() != network.ChainID {
		return fmt.Errorf("rpc chain id %s does not match network %s (%d)", chainID, network.Name, network.ChainID)
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	metrics := observability.NewMetrics("")
	if cfg.MetricsAddr != "" {
		server := serveMetrics(cfg.MetricsAddr, metrics, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	reader := contracts.NewReader(chainClient, logger)
	voter := common.HexToAddress(cfg.Voter)
	if _, err := projector.EnsureVe(ctx, store, reader, voter, common.HexToAddress(cfg.Minter), logger); err != nil {
		return err
	}

	engine, err := projection.NewEngine(network, store, reader, logger, metrics)
	if err != nil {
		return err
	}
	decoder, err := contracts.NewEventDecoder(contracts.DecoderConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	var stateStore projector.StateStore
	if cfg.StateFile != "" {
		stateStore = &projector.FileStateStore{Path: cfg.StateFile}
	} else {
		stateStore = &projector.DBStateStore{Store: store, Name: fmt.Sprintf("%s:%s", cfg.StateName, network.Name)}
	}

	p := projector.New(projector.Config{
		Voter:      voter,
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
	}, decoder, engine, logger, metrics)

	logger.Info("project start",
		zap.String("in", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("network", network.Name),
		zap.String("voter", cfg.Voter),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	_, err = p.Run(ctx, cfg.Input)
	return err
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return server
}

// redactDSN masks the password of a URL DSN. Key/value DSNs are hidden
// entirely.
func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "***"
	}
	return u.Redacted()
}
