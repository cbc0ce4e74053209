package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// maxCachedTimestamps bounds the block timestamp cache. The indexer walks
// blocks upwards, so dropping the whole cache when full is enough.
const maxCachedTimestamps = 1 << 16

// ErrReverted reports a contract call that reverted or returned no data.
var ErrReverted = errors.New("execution reverted")

// Client is an ethclient with block timestamp caching, range log filters
// and revert-aware calls.
type Client struct {
	*ethclient.Client

	headerTime func(ctx context.Context, number uint64) (uint64, error)

	mu         sync.Mutex
	timestamps map[uint64]uint64
}

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		Client:     ethclient.NewClient(rpcClient),
		timestamps: make(map[uint64]uint64),
	}
	c.headerTime = func(ctx context.Context, number uint64) (uint64, error) {
		header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return 0, err
		}
		return header.Time, nil
	}
	return c, nil
}

func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ChainID(ctx)
}

func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.BlockNumber(ctx)
}

// BlockTimestamp returns the timestamp of block number.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.Lock()
	ts, ok := c.timestamps[number]
	c.mu.Unlock()
	if ok {
		return ts, nil
	}

	ts, err := c.headerTime(ctx, number)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if len(c.timestamps) >= maxCachedTimestamps {
		clear(c.timestamps)
	}
	c.timestamps[number] = ts
	c.mu.Unlock()
	return ts, nil
}

// FilterLogs returns logs in [fromBlock, toBlock] emitted by addresses (any
// when empty) whose topic0 is one of topic0 (any when empty).
func (c *Client) FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	return c.Client.FilterLogs(ctx, filterQuery(fromBlock, toBlock, addresses, topic0))
}

func filterQuery(fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ethereum.FilterQuery {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	return query
}

// Call performs an eth_call and folds reverts and empty results into
// ErrReverted. Transport failures are returned unchanged.
func (c *Client) Call(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	resp, err := c.CallContract(ctx, msg, blockNumber)
	if err != nil {
		if IsRevert(err) {
			return nil, fmt.Errorf("%w: %v", ErrReverted, err)
		}
		return nil, err
	}
	if len(resp) == 0 {
		return nil, ErrReverted
	}
	return resp, nil
}

// revertErrorCode is the JSON-RPC code nodes use for a reverted eth_call.
const revertErrorCode = 3

// IsRevert reports whether err is a node-side revert of the call. Other
// JSON-RPC errors (missing trie node, rate limits) are not reverts even
// though they carry error data.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReverted) {
		return true
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "invalid opcode")
}
