package projection

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"gaugeScope/internal/finance"
	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

// loadPool resolves a pool id to the 4pool or a standard pair record.
func (e *Engine) loadPool(ctx context.Context, poolID string) (model.PoolLink, bool, error) {
	if e.network.IsFourPool(poolID) {
		pool, ok, err := storage.Load[model.Fourpool](ctx, e.store, model.KindFourpool, poolID)
		if err != nil || !ok {
			return nil, false, err
		}
		return pool, true, nil
	}
	pair, ok, err := storage.Load[model.Pair](ctx, e.store, model.KindPair, poolID)
	if err != nil || !ok {
		return nil, false, err
	}
	return pair, true, nil
}

// expectedAPR annualises a week of gauge reward, taken as is, against
// supply priced via the gauge's pool. Pools excluded from pricing yield zero.
func (e *Engine) expectedAPR(ctx context.Context, gauge *model.GaugeEntity, reward, supply decimal.Decimal) (decimal.Decimal, error) {
	pool, ok, err := e.loadPool(ctx, gauge.Pair)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		if e.network.IsFourPool(gauge.Pair) {
			return decimal.Zero, nil
		}
		return decimal.Zero, missing(model.KindPair, gauge.Pair)
	}
	if pool.ExcludedFromPricing() {
		return decimal.Zero, nil
	}
	pair, ok := pool.(*model.Pair)
	if !ok {
		return decimal.Zero, fmt.Errorf("pool %s: unpriced pool type %T", gauge.Pair, pool)
	}
	if pair.TotalSupply.IsZero() {
		return decimal.Zero, nil
	}

	pairPriceETH := pair.ReserveETH.Div(pair.TotalSupply)
	supplyETH := supply.Mul(pairPriceETH)
	return finance.APR(0, finance.WeekSeconds, reward, supplyETH), nil
}
