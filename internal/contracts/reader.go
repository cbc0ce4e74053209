package contracts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gaugeScope/internal/chain"
	"gaugeScope/internal/model"
)

// Caller executes eth_call and reports reverts as chain.ErrReverted.
type Caller interface {
	Call(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader performs typed read-only calls against voter, bribe, gauge, ve,
// minter and ERC20 contracts.
type Reader struct {
	caller Caller
	logger *zap.Logger
}

// NewReader builds a contract reader over the given caller.
func NewReader(caller Caller, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, logger: logger}
}

// TotalSupply reads totalSupply() of a bribe or gauge.
func (r *Reader) TotalSupply(opts *bind.CallOpts, contract common.Address) (*big.Int, error) {
	return r.callBigInt(opts, bribeABI, contract, "totalSupply")
}

// Left reads the undistributed reward of token in a bribe.
func (r *Reader) Left(opts *bind.CallOpts, bribe, token common.Address) (*big.Int, error) {
	return r.callBigInt(opts, bribeABI, bribe, "left", token)
}

// PeriodFinish reads the reward period end of token in a bribe.
func (r *Reader) PeriodFinish(opts *bind.CallOpts, bribe, token common.Address) (*big.Int, error) {
	return r.callBigInt(opts, bribeABI, bribe, "periodFinish", token)
}

// ExternalBribe reads the bribe paired with a gauge.
func (r *Reader) ExternalBribe(opts *bind.CallOpts, gauge common.Address) (common.Address, error) {
	return r.callAddress(opts, gaugeABI, gauge, "external_bribe")
}

// Underlying reads the staking token of a gauge.
func (r *Reader) Underlying(opts *bind.CallOpts, gauge common.Address) (common.Address, error) {
	return r.callAddress(opts, gaugeABI, gauge, "underlying")
}

// Ve reads the vote-escrow contract of a voter.
func (r *Reader) Ve(opts *bind.CallOpts, voter common.Address) (common.Address, error) {
	return r.callAddress(opts, voterABI, voter, "ve")
}

// Token reads the vote-escrow underlying token of a voter.
func (r *Reader) Token(opts *bind.CallOpts, voter common.Address) (common.Address, error) {
	return r.callAddress(opts, voterABI, voter, "token")
}

// WeeklyEmission reads WEEKLY_EMISSION() of a minter.
func (r *Reader) WeeklyEmission(opts *bind.CallOpts, minter common.Address) (*big.Int, error) {
	return r.callBigInt(opts, minterABI, minter, "WEEKLY_EMISSION")
}

// TotalWeight reads the voter's total vote weight.
func (r *Reader) TotalWeight(opts *bind.CallOpts, voter common.Address) (*big.Int, error) {
	return r.callBigInt(opts, voterABI, voter, "totalWeight")
}

// Weights reads the vote weight of a pool.
func (r *Reader) Weights(opts *bind.CallOpts, voter, pool common.Address) (*big.Int, error) {
	return r.callBigInt(opts, voterABI, voter, "weights", pool)
}

// Votes reads the vote of a ve-NFT for a pool. The value is signed.
func (r *Reader) Votes(opts *bind.CallOpts, voter common.Address, tokenID *big.Int, pool common.Address) (*big.Int, error) {
	return r.callBigInt(opts, voterABI, voter, "votes", tokenID, pool)
}

// PoolVote reads the pool at index of a ve-NFT's vote list. Reading past
// the end reverts.
func (r *Reader) PoolVote(opts *bind.CallOpts, voter common.Address, tokenID, index *big.Int) (common.Address, error) {
	return r.callAddress(opts, voterABI, voter, "poolVote", tokenID, index)
}

// BalanceOfNFT reads the voting power of a ve-NFT.
func (r *Reader) BalanceOfNFT(opts *bind.CallOpts, ve common.Address, tokenID *big.Int) (*big.Int, error) {
	return r.callBigInt(opts, veABI, ve, "balanceOfNFT", tokenID)
}

// TokenMeta loads ERC20 metadata. Symbol and name fall back to bytes32
// encodings; any other failure is returned.
func (r *Reader) TokenMeta(opts *bind.CallOpts, token common.Address) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}

	values, err := r.call(opts, erc20StringABI, token, "decimals")
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}
	meta.Decimals = decimals

	if meta.Symbol, err = r.tokenText(opts, token, "symbol"); err != nil {
		return meta, err
	}
	if meta.Name, err = r.tokenText(opts, token, "name"); err != nil {
		return meta, err
	}
	return meta, nil
}

func (r *Reader) tokenText(opts *bind.CallOpts, token common.Address, method string) (string, error) {
	values, err := r.call(opts, erc20StringABI, token, method)
	if err == nil {
		if text, ok := values[0].(string); ok {
			return text, nil
		}
	}
	if err != nil && !errors.Is(err, chain.ErrReverted) && !isUnpackError(err) {
		return "", err
	}

	values, fallbackErr := r.call(opts, erc20Bytes32ABI, token, method)
	if fallbackErr != nil {
		r.logger.Debug("token text call failed",
			zap.String("token", token.Hex()),
			zap.String("method", method),
			zap.Error(fallbackErr),
		)
		if err == nil {
			err = fallbackErr
		}
		return "", err
	}
	text, ok := bytes32ToString(values[0])
	if !ok {
		return "", fmt.Errorf("%s: unsupported type %T", method, values[0])
	}
	return text, nil
}

func (r *Reader) callBigInt(opts *bind.CallOpts, parsed *lazyABI, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	values, err := r.call(opts, parsed, to, method, args...)
	if err != nil {
		return nil, err
	}
	out, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func (r *Reader) callAddress(opts *bind.CallOpts, parsed *lazyABI, to common.Address, method string, args ...interface{}) (common.Address, error) {
	values, err := r.call(opts, parsed, to, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	out, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func (r *Reader) call(opts *bind.CallOpts, parsed *lazyABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	contractABI, err := parsed.get()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	ctx := context.Background()
	var block *big.Int
	msg := ethereum.CallMsg{To: &to, Data: data}
	if opts != nil {
		if opts.Context != nil {
			ctx = opts.Context
		}
		block = opts.BlockNumber
		msg.From = opts.From
	}

	resp, err := r.caller.Call(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, &unpackError{method: method, err: err}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: no values", method)
	}
	return values, nil
}

type unpackError struct {
	method string
	err    error
}

func (e *unpackError) Error() string { return fmt.Sprintf("unpack %s: %v", e.method, e.err) }
func (e *unpackError) Unwrap() error { return e.err }

func isUnpackError(err error) bool {
	var target *unpackError
	return errors.As(err, &target)
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
