package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gaugeScope/internal/config"
	"gaugeScope/internal/contracts"
	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw logs into typed voter and bribe events",
		RunE:  runDecode,
	}

	flags := cmd.Flags()
	flags.String("in", "", "input raw logs JSONL")
	flags.String("out", "./data/events.jsonl", "output typed events JSONL")
	flags.String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	flags.String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

type decodeStats struct {
	Total, Decoded, Skipped, Failed int
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadDecode(configFile(cmd), cmd.Flags())
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

	decoder, err := contracts.NewEventDecoder(contracts.DecoderConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	input, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	events, err := storage.CreateJSONL(cfg.Out, false)
	if err != nil {
		return err
	}
	defer events.Close()

	failures, err := storage.CreateJSONL(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer failures.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("topic0_overrides", len(cfg.Topic0Map)),
	)

	stats, err := decodeLogs(decoder, input, events, failures)
	if err != nil {
		return err
	}
	if err := events.Close(); err != nil {
		return err
	}
	if err := failures.Close(); err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.Total),
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return nil
}

// decodeLogs writes one event per decodable log. Unparseable lines and logs
// that fail to decode go to failures; logs with an unknown topic0 are only
// counted.
func decodeLogs(decoder *contracts.EventDecoder, input io.Reader, events, failures *storage.JSONLWriter) (decodeStats, error) {
	var stats decodeStats
	err := storage.ScanLogRecords(input, func(record *model.LogRecord, parseErr error) error {
		stats.Total++
		if parseErr != nil {
			stats.Failed++
			return failures.Write(model.DecodeError{Error: parseErr.Error()})
		}
		if record.Topic0() == "" {
			stats.Failed++
			return failures.Write(model.NewDecodeError(*record, fmt.Errorf("missing topic0")))
		}
		if !decoder.CanDecode(record.Topic0()) {
			stats.Skipped++
			return nil
		}

		event, err := decoder.Decode(*record)
		if err != nil {
			stats.Failed++
			return failures.Write(model.NewDecodeError(*record, err))
		}
		stats.Decoded++
		return events.Write(event)
	})
	return stats, err
}
