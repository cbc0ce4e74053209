package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

// ProjectConfig holds configuration for the project command.
type ProjectConfig struct {
	RPCURL      string
	Input       string
	PGDSN       string
	Network     string
	Voter       string
	Minter      string
	BatchSize   int
	StateFile   string
	StateName   string
	MetricsAddr string
	LogLevel    string
	Topic0Map   map[string]string
}

// LoadProject merges config file, environment variables, and flags into ProjectConfig.
func LoadProject(cfgFile string, flags *pflag.FlagSet) (ProjectConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"network":    "matic",
		"batch-size": 500,
		"state-name": "project",
		"log-level":  "info",
	})
	if err != nil {
		return ProjectConfig{}, err
	}

	cfg := ProjectConfig{
		RPCURL:      v.GetString("rpc"),
		Input:       v.GetString("in"),
		PGDSN:       v.GetString("pg-dsn"),
		Network:     v.GetString("network"),
		Voter:       v.GetString("voter"),
		Minter:      v.GetString("minter"),
		BatchSize:   v.GetInt("batch-size"),
		StateFile:   v.GetString("state-file"),
		StateName:   v.GetString("state-name"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
		Topic0Map:   stringMap(v, "topic0-map"),
	}

	return cfg, nil
}

// Validate checks required fields and address formats.
func (c ProjectConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc is required")
	}
	if c.Input == "" {
		return fmt.Errorf("in is required")
	}
	if c.PGDSN == "" {
		return fmt.Errorf("pg-dsn is required")
	}
	if !common.IsHexAddress(c.Voter) {
		return fmt.Errorf("voter must be a hex address: %q", c.Voter)
	}
	if !common.IsHexAddress(c.Minter) {
		return fmt.Errorf("minter must be a hex address: %q", c.Minter)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be positive")
	}
	if _, err := LookupNetwork(c.Network); err != nil {
		return err
	}
	return nil
}
