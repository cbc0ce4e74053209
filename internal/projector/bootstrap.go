package projector

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

// VoterReader reads the voter's ve and reward token.
type VoterReader interface {
	Ve(opts *bind.CallOpts, voter common.Address) (common.Address, error)
	Token(opts *bind.CallOpts, voter common.Address) (common.Address, error)
}

// EnsureVe makes sure the VeEntity behind voter exists before any vote is
// projected. An existing record keeps its id and only has missing fields
// filled in.
func EnsureVe(ctx context.Context, store storage.EntityStore, reader VoterReader, voter, minter common.Address, logger *zap.Logger) (*model.VeEntity, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := &bind.CallOpts{Context: ctx}

	veAddr, err := reader.Ve(opts, voter)
	if err != nil {
		return nil, fmt.Errorf("voter ve: %w", err)
	}
	underlying, err := reader.Token(opts, voter)
	if err != nil {
		return nil, fmt.Errorf("voter token: %w", err)
	}

	id := model.AddressID(veAddr)
	ve, ok, err := storage.Load[model.VeEntity](ctx, store, model.KindVe, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		ve = &model.VeEntity{ID: id}
	}

	changed := !ok
	if ve.Underlying == "" {
		ve.Underlying = model.AddressID(underlying)
		changed = true
	}
	if ve.UnderlyingMinter == "" && minter != (common.Address{}) {
		ve.UnderlyingMinter = model.AddressID(minter)
		changed = true
	}
	if ve.UnderlyingMinter == "" {
		return nil, fmt.Errorf("ve %s has no minter; set --minter", id)
	}
	if !changed {
		return ve, nil
	}

	if err := storage.Save(ctx, store, ve); err != nil {
		return nil, err
	}
	logger.Info("ve bootstrapped",
		zap.String("ve", ve.ID),
		zap.String("underlying", ve.Underlying),
		zap.String("minter", ve.UnderlyingMinter),
	)
	return ve, nil
}
