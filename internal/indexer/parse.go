package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseAddresses parses the contract filter. Blank entries are dropped and
// repeated addresses collapse to one.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	return parseFilter(inputs, func(input string) (common.Address, error) {
		if !common.IsHexAddress(input) {
			return common.Address{}, fmt.Errorf("invalid address: %s", input)
		}
		return common.HexToAddress(input), nil
	})
}

// ParseTopic0 parses the event signature filter with the same rules as
// ParseAddresses.
func ParseTopic0(inputs []string) ([]common.Hash, error) {
	return parseFilter(inputs, func(input string) (common.Hash, error) {
		data, err := hexutil.Decode(input)
		if err != nil {
			return common.Hash{}, fmt.Errorf("invalid topic0: %s", input)
		}
		if len(data) != common.HashLength {
			return common.Hash{}, fmt.Errorf("invalid topic0 length: %s", input)
		}
		return common.BytesToHash(data), nil
	})
}

func parseFilter[T comparable](inputs []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(inputs))
	seen := make(map[T]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		v, err := parse(input)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
