// Package projection applies voter and bribe events to the entity graph.
package projection

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gaugeScope/internal/config"
	"gaugeScope/internal/model"
	"gaugeScope/internal/observability"
	"gaugeScope/internal/storage"
)

// ChainReader performs point-in-time contract reads. A revert is reported
// as an error matching chain.ErrReverted.
type ChainReader interface {
	TotalSupply(opts *bind.CallOpts, contract common.Address) (*big.Int, error)
	Left(opts *bind.CallOpts, bribe, token common.Address) (*big.Int, error)
	PeriodFinish(opts *bind.CallOpts, bribe, token common.Address) (*big.Int, error)
	TokenMeta(opts *bind.CallOpts, token common.Address) (model.TokenMeta, error)
	ExternalBribe(opts *bind.CallOpts, gauge common.Address) (common.Address, error)
	Underlying(opts *bind.CallOpts, gauge common.Address) (common.Address, error)
	Ve(opts *bind.CallOpts, voter common.Address) (common.Address, error)
	Token(opts *bind.CallOpts, voter common.Address) (common.Address, error)
	WeeklyEmission(opts *bind.CallOpts, minter common.Address) (*big.Int, error)
	TotalWeight(opts *bind.CallOpts, voter common.Address) (*big.Int, error)
	Weights(opts *bind.CallOpts, voter, pool common.Address) (*big.Int, error)
	Votes(opts *bind.CallOpts, voter common.Address, tokenID *big.Int, pool common.Address) (*big.Int, error)
	BalanceOfNFT(opts *bind.CallOpts, ve common.Address, tokenID *big.Int) (*big.Int, error)
	PoolVote(opts *bind.CallOpts, voter common.Address, tokenID, index *big.Int) (common.Address, error)
}

// Engine applies one event at a time. It is not safe for concurrent use;
// event order is the only ordering guarantee handlers rely on.
type Engine struct {
	network config.Network
	store   storage.EntityStore
	reader  ChainReader
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewEngine wires the projection. logger and metrics may be nil.
func NewEngine(network config.Network, store storage.EntityStore, reader ChainReader, logger *zap.Logger, metrics *observability.Metrics) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("entity store is nil")
	}
	if reader == nil {
		return nil, fmt.Errorf("chain reader is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		network: network,
		store:   store,
		reader:  reader,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Apply runs the handler for ev. Any returned error means the event was not
// fully applied; a *FatalError inside it means retrying cannot help.
func (e *Engine) Apply(ctx context.Context, ev *model.Event) error {
	if ev == nil {
		return fmt.Errorf("event is nil")
	}
	start := time.Now()

	err := e.dispatch(ctx, ev)
	if err != nil {
		var fatal *FatalError
		if errors.As(err, &fatal) {
			e.metrics.Fatal(ev.Name)
			e.logger.Error("fatal projection error",
				zap.String("event", ev.Name),
				zap.Uint64("block", ev.BlockNumber),
				zap.String("tx", ev.TxHash),
				zap.Uint64("log_index", ev.LogIndex),
				zap.String("kind", string(fatal.Kind)),
				zap.String("id", fatal.ID),
				zap.Error(fatal.Err),
			)
		}
		return &EventError{
			Event:       ev.Name,
			BlockNumber: ev.BlockNumber,
			TxHash:      ev.TxHash,
			LogIndex:    ev.LogIndex,
			Err:         err,
		}
	}

	e.metrics.Applied(ev.Name, ev.BlockNumber, time.Since(start))
	return nil
}

func (e *Engine) dispatch(ctx context.Context, ev *model.Event) error {
	switch p := ev.Payload.(type) {
	case model.GaugeCreated:
		return e.handleGaugeCreated(ctx, ev, p)
	case model.Whitelisted:
		return e.handleWhitelisted(ctx, p)
	case model.GaugeDeposit:
		return e.handleGaugeDeposit(ctx, p)
	case model.GaugeWithdraw:
		return e.handleGaugeWithdraw(ctx, p)
	case model.Attach:
		return e.adjustAttachments(ctx, p.TokenID, 1)
	case model.Detach:
		return e.adjustAttachments(ctx, p.TokenID, -1)
	case model.Voted:
		return e.handleVoted(ctx, ev, p)
	case model.Abstained:
		return e.handleAbstained(ctx, ev, p)
	case model.NotifyReward:
		return e.handleNotifyReward(ctx, ev, p)
	case model.BribeDeposit:
		return e.handleBribeDeposit(ctx, ev, p)
	case model.BribeWithdraw:
		return e.handleBribeWithdraw(ctx, ev, p)
	case model.ClaimRewards:
		return e.handleClaimRewards(ctx, ev, p)
	default:
		return fmt.Errorf("unsupported payload %T for %s", ev.Payload, ev.Name)
	}
}

// callOpts pins reads to the event's block.
func callOpts(ctx context.Context, ev *model.Event) *bind.CallOpts {
	opts := &bind.CallOpts{Context: ctx}
	if ev.BlockNumber > 0 {
		opts.BlockNumber = new(big.Int).SetUint64(ev.BlockNumber)
	}
	return opts
}

func (e *Engine) skip(reason, msg string, fields ...zap.Field) {
	e.metrics.Skipped(reason)
	e.logger.Info(msg, append(fields, zap.String("reason", reason))...)
}

// mustLoad loads an entity whose absence is a fatal inconsistency.
func mustLoad[T any](ctx context.Context, store storage.EntityStore, kind model.Kind, id string) (*T, error) {
	out, ok, err := storage.Load[T](ctx, store, kind, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, missing(kind, id)
	}
	return out, nil
}
