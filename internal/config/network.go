package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network holds the per-chain constants the projection depends on.
type Network struct {
	Name    string
	ChainID uint64
	// FourPool is the stable-swap pool excluded from pair pricing.
	FourPool common.Address
}

var networks = map[string]Network{
	"matic": {
		Name:     "matic",
		ChainID:  137,
		FourPool: common.HexToAddress("0x844b7bd45bc949c96329fdc953a516a8e1daec51"),
	},
	"bsc": {
		Name:     "bsc",
		ChainID:  56,
		FourPool: common.HexToAddress("0x844b7bd45bc949c96329fdc953a516a8e1daec51"),
	},
}

// LookupNetwork returns the constants for a network name.
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q", name)
	}
	return n, nil
}

// IsFourPool reports whether a lowercase pool id is the network's 4pool.
func (n Network) IsFourPool(poolID string) bool {
	return strings.EqualFold(poolID, n.FourPool.Hex())
}
