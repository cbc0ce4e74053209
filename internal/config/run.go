package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// RunConfig holds configuration for the run command.
type RunConfig struct {
	RPCURL            string
	Network           string
	FromBlock         uint64
	ToBlock           uint64
	Addresses         []string
	Topic0            []string
	BatchSize         uint64
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"batch-size":         uint64(2000),
		"out":                "./data/logs.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"log-level":          "info",
	})
	if err != nil {
		return RunConfig{}, err
	}

	return RunConfig{
		RPCURL:            v.GetString("rpc"),
		Network:           v.GetString("network"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Addresses:         stringList(v, "address"),
		Topic0:            stringList(v, "topic0"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}

// Validate checks required fields. An empty network skips the chain id
// check at run time.
func (c RunConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc is required")
	}
	if c.Out == "" {
		return fmt.Errorf("out is required")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch-size must be positive")
	}
	if c.ToBlock != 0 && c.ToBlock < c.FromBlock {
		return fmt.Errorf("to block %d is before from block %d", c.ToBlock, c.FromBlock)
	}
	if c.Network != "" {
		if _, err := LookupNetwork(c.Network); err != nil {
			return err
		}
	}
	return nil
}
