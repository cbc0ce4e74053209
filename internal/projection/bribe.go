package projection

import (
	"context"
	"math"
	"slices"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gaugeScope/internal/codec"
	"gaugeScope/internal/finance"
	"gaugeScope/internal/model"
	"gaugeScope/internal/observability"
	"gaugeScope/internal/storage"
)

// trackedBribe loads the BribeEntity for the emitting contract. Bribes only
// become tracked through GaugeCreated; other emitters are skipped.
func (e *Engine) trackedBribe(ctx context.Context, ev *model.Event) (*model.BribeEntity, bool, error) {
	id := model.AddressID(ev.Address)
	bribe, ok, err := storage.Load[model.BribeEntity](ctx, e.store, model.KindBribe, id)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		e.skip(observability.SkipUntrackedSource, "event from untracked bribe",
			zap.String("event", ev.Name),
			zap.String("address", id),
		)
		return nil, false, nil
	}
	return bribe, true, nil
}

func (e *Engine) handleNotifyReward(ctx context.Context, ev *model.Event, p model.NotifyReward) error {
	bribe, ok, err := e.trackedBribe(ctx, ev)
	if err != nil || !ok {
		return err
	}
	return e.updateBribeToken(ctx, callOpts(ctx, ev), bribe, model.AddressID(p.Reward), int64(ev.Timestamp))
}

func (e *Engine) handleClaimRewards(ctx context.Context, ev *model.Event, p model.ClaimRewards) error {
	bribe, ok, err := e.trackedBribe(ctx, ev)
	if err != nil || !ok {
		return err
	}
	return e.updateBribeToken(ctx, callOpts(ctx, ev), bribe, model.AddressID(p.Reward), int64(ev.Timestamp))
}

func (e *Engine) handleBribeDeposit(ctx context.Context, ev *model.Event, p model.BribeDeposit) error {
	bribe, ok, err := e.trackedBribe(ctx, ev)
	if err != nil || !ok {
		return err
	}
	if err := e.updateAllBribeTokens(ctx, ev, bribe); err != nil {
		return err
	}

	veID := codec.AddressToVeID(p.From)
	user := &model.BribeUser{
		ID:     model.BribeUserID(bribe.ID, veID),
		Bribe:  bribe.ID,
		VeNFT:  veID,
		Amount: finance.FormatUnits(p.Amount, 18),
	}
	return storage.Save(ctx, e.store, user)
}

// Bribe withdrawals are always full, so the stake record is dropped.
func (e *Engine) handleBribeWithdraw(ctx context.Context, ev *model.Event, p model.BribeWithdraw) error {
	bribe, ok, err := e.trackedBribe(ctx, ev)
	if err != nil || !ok {
		return err
	}
	if err := e.updateAllBribeTokens(ctx, ev, bribe); err != nil {
		return err
	}

	veID := codec.AddressToVeID(p.From)
	return storage.Remove(ctx, e.store, model.KindBribeUser, model.BribeUserID(bribe.ID, veID))
}

func (e *Engine) updateAllBribeTokens(ctx context.Context, ev *model.Event, bribe *model.BribeEntity) error {
	opts := callOpts(ctx, ev)
	tokens := slices.Clone(bribe.BribeTokens)
	for _, token := range tokens {
		if err := e.updateBribeToken(ctx, opts, bribe, token, int64(ev.Timestamp)); err != nil {
			return err
		}
	}
	return nil
}

// updateBribeToken overwrites the snapshot of one reward token in a bribe.
func (e *Engine) updateBribeToken(ctx context.Context, opts *bind.CallOpts, bribe *model.BribeEntity, reward string, now int64) error {
	rewardToken, err := e.getOrCreateToken(ctx, opts, reward)
	if err != nil {
		return err
	}
	veToken, err := e.getOrCreateToken(ctx, opts, bribe.VeUnderlying)
	if err != nil {
		return err
	}

	id := model.BribeTokenID(bribe.ID, reward)
	bribeToken, ok, err := storage.Load[model.BribeToken](ctx, e.store, model.KindBribeToken, id)
	if err != nil {
		return err
	}
	if !ok {
		bribeToken = &model.BribeToken{ID: id, Bribe: bribe.ID, Token: reward}
		// The list may already hold reward if a previous attempt stopped
		// between the two saves.
		if !slices.Contains(bribe.BribeTokens, reward) {
			bribe.BribeTokens = append(bribe.BribeTokens, reward)
			if err := storage.Save(ctx, e.store, bribe); err != nil {
				return err
			}
		}
	}

	bribeAddr := common.HexToAddress(bribe.ID)
	rewardAddr := common.HexToAddress(reward)

	supplyRaw, err := e.reader.TotalSupply(opts, bribeAddr)
	if err != nil {
		return err
	}
	leftRaw, err := e.reader.Left(opts, bribeAddr, rewardAddr)
	if err != nil {
		return err
	}
	finishRaw, err := e.reader.PeriodFinish(opts, bribeAddr, rewardAddr)
	if err != nil {
		return err
	}
	periodFinish := int64(math.MaxInt64)
	if finishRaw.IsInt64() {
		periodFinish = finishRaw.Int64()
	}

	totalSupply := finance.FormatUnits(supplyRaw, 18)
	left := finance.FormatUnits(leftRaw, rewardToken.Decimals)

	bribeToken.TotalSupply = totalSupply
	bribeToken.TotalSupplyETH = totalSupply.Mul(veToken.DerivedETH)
	bribeToken.Left = left
	bribeToken.LeftETH = left.Mul(rewardToken.DerivedETH)
	bribeToken.PeriodFinish = periodFinish
	bribeToken.APR = finance.APR(now, periodFinish, bribeToken.LeftETH, bribeToken.TotalSupplyETH)

	return storage.Save(ctx, e.store, bribeToken)
}
