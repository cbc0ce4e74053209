package contracts

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"gaugeScope/internal/chain"
)

// scriptedCaller answers eth_call by 4-byte selector.
type scriptedCaller struct {
	responses map[string][]byte
	blocks    []*big.Int
}

func (c *scriptedCaller) Call(_ context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	c.blocks = append(c.blocks, block)
	resp, ok := c.responses[string(msg.Data[:4])]
	if !ok {
		return nil, chain.ErrReverted
	}
	return resp, nil
}

func (c *scriptedCaller) set(t *testing.T, parsed abi.ABI, method string, values ...interface{}) {
	t.Helper()
	out, err := parsed.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	c.responses[string(parsed.Methods[method].ID)] = out
}

func TestReaderTokenMetaBytes32Fallback(t *testing.T) {
	stringABI, err := erc20StringABI.get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	bytesABI, err := erc20Bytes32ABI.get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	caller := &scriptedCaller{responses: map[string][]byte{}}
	caller.set(t, stringABI, "decimals", uint8(18))
	var symbol [32]byte
	copy(symbol[:], "MKR")
	caller.set(t, bytesABI, "symbol", symbol)
	caller.set(t, stringABI, "name", "Maker")

	reader := NewReader(caller, nil)
	meta, err := reader.TokenMeta(nil, common.HexToAddress("0x01"))
	if err != nil {
		t.Fatalf("token meta: %v", err)
	}
	if meta.Decimals != 18 || meta.Symbol != "MKR" || meta.Name != "Maker" {
		t.Fatalf("meta mismatch: %+v", meta)
	}
}

func TestReaderTokenMetaFailsWithoutDecimals(t *testing.T) {
	reader := NewReader(&scriptedCaller{responses: map[string][]byte{}}, nil)
	if _, err := reader.TokenMeta(nil, common.HexToAddress("0x01")); !errors.Is(err, chain.ErrReverted) {
		t.Fatalf("expected revert, got %v", err)
	}
}

func TestReaderPoolVoteRevertAndBlock(t *testing.T) {
	voter, err := VoterABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	pool := common.HexToAddress("0x5555555555555555555555555555555555555555")

	caller := &scriptedCaller{responses: map[string][]byte{}}
	caller.set(t, voter, "weights", big.NewInt(-25))

	reader := NewReader(caller, nil)
	opts := &bind.CallOpts{Context: context.Background(), BlockNumber: big.NewInt(99)}

	weight, err := reader.Weights(opts, voterAddr, pool)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	if weight.Int64() != -25 {
		t.Fatalf("weight mismatch: %s", weight)
	}
	if caller.blocks[0] == nil || caller.blocks[0].Int64() != 99 {
		t.Fatalf("block height not forwarded")
	}

	_, err = reader.PoolVote(opts, voterAddr, big.NewInt(1), big.NewInt(0))
	if !errors.Is(err, chain.ErrReverted) {
		t.Fatalf("expected revert, got %v", err)
	}
}
