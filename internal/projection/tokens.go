package projection

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gaugeScope/internal/model"
	"gaugeScope/internal/observability"
	"gaugeScope/internal/storage"
)

// getOrCreateToken returns the stored token or creates it from on-chain
// metadata. Identity fields of an existing token are never rewritten.
func (e *Engine) getOrCreateToken(ctx context.Context, opts *bind.CallOpts, id string) (*model.Token, error) {
	token, ok, err := storage.Load[model.Token](ctx, e.store, model.KindToken, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return token, nil
	}

	meta, err := e.reader.TokenMeta(opts, common.HexToAddress(id))
	if err != nil {
		return nil, fmt.Errorf("token %s metadata: %w", id, err)
	}

	token = &model.Token{
		ID:          id,
		Symbol:      meta.Symbol,
		Name:        meta.Name,
		Decimals:    int32(meta.Decimals),
		TotalSupply: "0",
		Whitelist:   []string{},
	}
	if err := storage.Save(ctx, e.store, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (e *Engine) handleWhitelisted(ctx context.Context, p model.Whitelisted) error {
	id := model.AddressID(p.Token)
	token, ok, err := storage.Load[model.Token](ctx, e.store, model.KindToken, id)
	if err != nil {
		return err
	}
	if !ok {
		e.skip(observability.SkipUnknownToken, "whitelisted token not tracked", zap.String("token", id))
		return nil
	}
	token.IsWhitelisted = true
	return storage.Save(ctx, e.store, token)
}
