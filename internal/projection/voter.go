package projection

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gaugeScope/internal/chain"
	"gaugeScope/internal/finance"
	"gaugeScope/internal/model"
	"gaugeScope/internal/observability"
	"gaugeScope/internal/storage"
)

// MaxPoolVotes bounds poolVote enumeration per ve-NFT.
const MaxPoolVotes = 1000

var hundred = decimal.NewFromInt(100)

// voteSnapshot carries voter-wide values read once per event.
type voteSnapshot struct {
	voter       common.Address
	totalWeight decimal.Decimal
	weekly      decimal.Decimal
}

func (e *Engine) handleGaugeCreated(ctx context.Context, ev *model.Event, p model.GaugeCreated) error {
	opts := callOpts(ctx, ev)

	gauge, err := e.getOrCreateGauge(ctx, opts, model.AddressID(p.Gauge))
	if err != nil {
		return err
	}

	bribeID := model.AddressID(p.ExternalBribe)
	bribe, ok, err := storage.Load[model.BribeEntity](ctx, e.store, model.KindBribe, bribeID)
	if err != nil {
		return err
	}
	if !ok {
		ve, err := e.reader.Ve(opts, ev.Address)
		if err != nil {
			return err
		}
		underlying, err := e.reader.Token(opts, ev.Address)
		if err != nil {
			return err
		}
		bribe = &model.BribeEntity{
			ID:           bribeID,
			Pair:         model.AddressID(p.Pool),
			Ve:           model.AddressID(ve),
			VeUnderlying: model.AddressID(underlying),
			BribeTokens:  []string{},
		}
		if err := storage.Save(ctx, e.store, bribe); err != nil {
			return err
		}
	}

	poolID := model.AddressID(p.Pool)
	pool, ok, err := e.loadPool(ctx, poolID)
	if err != nil {
		return err
	}
	if !ok {
		if !e.network.IsFourPool(poolID) {
			return missing(model.KindPair, poolID)
		}
		pool = &model.Fourpool{ID: poolID}
	}

	pool.Link(gauge.ID, bribe.ID)
	gauge.Bribe = bribe.ID
	if err := storage.Save(ctx, e.store, gauge); err != nil {
		return err
	}
	return storage.Save(ctx, e.store, pool)
}

// getOrCreateGauge does not save a new gauge; the caller does.
func (e *Engine) getOrCreateGauge(ctx context.Context, opts *bind.CallOpts, id string) (*model.GaugeEntity, error) {
	gauge, ok, err := storage.Load[model.GaugeEntity](ctx, e.store, model.KindGauge, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return gauge, nil
	}

	addr := common.HexToAddress(id)
	bribe, err := e.reader.ExternalBribe(opts, addr)
	if err != nil {
		if errors.Is(err, chain.ErrReverted) {
			return nil, &FatalError{Kind: model.KindGauge, ID: id, Err: ErrBribeNotFound}
		}
		return nil, err
	}
	pair, err := e.reader.Underlying(opts, addr)
	if err != nil {
		return nil, err
	}

	return &model.GaugeEntity{
		ID:                    id,
		Pair:                  model.AddressID(pair),
		Bribe:                 model.AddressID(bribe),
		RewardTokensAddresses: []string{},
	}, nil
}

func (e *Engine) getOrCreateAttachment(ctx context.Context, gaugeID, userID string) (*model.GaugeAttachment, error) {
	id := model.GaugeAttachmentID(gaugeID, userID)
	att, ok, err := storage.Load[model.GaugeAttachment](ctx, e.store, model.KindGaugeAttachment, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		att = &model.GaugeAttachment{ID: id, Gauge: gaugeID, User: userID}
	}
	return att, nil
}

func (e *Engine) handleGaugeDeposit(ctx context.Context, p model.GaugeDeposit) error {
	att, err := e.getOrCreateAttachment(ctx, model.AddressID(p.Gauge), model.AddressID(p.LP))
	if err != nil {
		return err
	}
	att.Deposit = att.Deposit.Add(finance.FormatUnits(p.Amount, 18))
	if p.TokenID != nil && p.TokenID.Sign() != 0 {
		att.VeNFT = p.TokenID.String()
	}
	return storage.Save(ctx, e.store, att)
}

func (e *Engine) handleGaugeWithdraw(ctx context.Context, p model.GaugeWithdraw) error {
	att, err := e.getOrCreateAttachment(ctx, model.AddressID(p.Gauge), model.AddressID(p.LP))
	if err != nil {
		return err
	}
	att.Deposit = att.Deposit.Sub(finance.FormatUnits(p.Amount, 18))
	// A withdraw carrying a ve id is a full withdraw that unlocks the ve.
	if p.TokenID != nil && p.TokenID.Sign() != 0 {
		att.VeNFT = ""
	}
	return storage.Save(ctx, e.store, att)
}

func (e *Engine) adjustAttachments(ctx context.Context, tokenID *big.Int, delta int64) error {
	veNFT, err := mustLoad[model.VeNFTEntity](ctx, e.store, model.KindVeNFT, veIDString(tokenID))
	if err != nil {
		return err
	}
	veNFT.Attachments += delta
	if veNFT.Attachments < 0 {
		e.logger.Warn("negative attachment count",
			zap.String("ve_nft", veNFT.ID),
			zap.Int64("attachments", veNFT.Attachments),
		)
	}
	return storage.Save(ctx, e.store, veNFT)
}

func (e *Engine) handleVoted(ctx context.Context, ev *model.Event, p model.Voted) error {
	veNFT, err := mustLoad[model.VeNFTEntity](ctx, e.store, model.KindVeNFT, veIDString(p.TokenID))
	if err != nil {
		return err
	}
	if len(veNFT.VoteIds) != 0 {
		// Voted fires once per pool in a vote call; the first one already
		// rebuilt the set. A set left by another transaction means the
		// reset did not reach us first.
		if veNFT.VotesTx != ev.TxHash {
			e.metrics.Skipped(observability.SkipStaleVoteSet)
			e.logger.Warn("stale vote set",
				zap.String("ve_nft", veNFT.ID),
				zap.String("votes_tx", veNFT.VotesTx),
				zap.Uint64("votes_block", veNFT.VotesBlock),
				zap.String("tx", ev.TxHash),
			)
		}
		return nil
	}
	return e.fetchAllVotedPools(ctx, ev, veNFT)
}

// fetchAllVotedPools rebuilds a ve-NFT's vote set by enumerating poolVote
// until it reverts. It only runs when the set is empty.
func (e *Engine) fetchAllVotedPools(ctx context.Context, ev *model.Event, veNFT *model.VeNFTEntity) error {
	if len(veNFT.VoteIds) != 0 {
		return nil
	}
	opts := callOpts(ctx, ev)

	tokenID, ok := new(big.Int).SetString(veNFT.ID, 10)
	if !ok {
		return fmt.Errorf("ve-NFT id %q is not an integer", veNFT.ID)
	}
	snap, err := e.voteSnapshot(ctx, opts, ev.Address, veNFT.Ve)
	if err != nil {
		return err
	}
	powerRaw, err := e.reader.BalanceOfNFT(opts, common.HexToAddress(veNFT.Ve), tokenID)
	if err != nil {
		return err
	}
	power := finance.FormatUnits(powerRaw, 18)
	voterID := model.AddressID(ev.Address)

	var votes []*model.Vote
	exhausted := false
	for i := 0; i < MaxPoolVotes; i++ {
		poolAddr, err := e.reader.PoolVote(opts, ev.Address, tokenID, big.NewInt(int64(i)))
		if err != nil {
			if errors.Is(err, chain.ErrReverted) {
				exhausted = true
				break
			}
			return err
		}

		poolID := model.AddressID(poolAddr)
		pool, ok, err := e.loadPool(ctx, poolID)
		if err != nil {
			return err
		}
		if !ok && !e.network.IsFourPool(poolID) {
			return missing(model.KindPair, poolID)
		}
		if !ok || pool.GaugeAddress() == "" {
			e.skip(observability.SkipNoGauge, "no gauge for vote",
				zap.String("pool", poolID),
				zap.String("ve_nft", veNFT.ID),
			)
			continue
		}
		gaugeID := pool.GaugeAddress()

		vote, err := e.getOrCreateVote(ctx, voterID, veNFT.ID, gaugeID)
		if err != nil {
			return err
		}
		weightRaw, err := e.reader.Votes(opts, ev.Address, tokenID, poolAddr)
		if err != nil {
			return err
		}
		vote.Pool = poolID
		vote.Weight = finance.FormatUnits(weightRaw, 18)
		vote.WeightPercent = finance.SafeDiv(vote.Weight, power).Mul(hundred).Abs()

		if err := e.updateGaugeVotes(ctx, opts, gaugeID, poolID, snap); err != nil {
			return err
		}
		votes = append(votes, vote)
	}
	if !exhausted {
		e.skip(observability.SkipVoteCap, "pool vote enumeration hit cap",
			zap.String("ve_nft", veNFT.ID),
			zap.Int("cap", MaxPoolVotes),
		)
	}
	if len(votes) == 0 {
		return nil
	}

	ids := make([]string, 0, len(votes))
	for _, vote := range votes {
		ids = append(ids, vote.ID)
	}
	veNFT.VoteIds = ids
	veNFT.VotesTx = ev.TxHash
	veNFT.VotesBlock = ev.BlockNumber
	// The ve-NFT goes first so a partial write leaves ids without votes,
	// never votes without a listing.
	batch := make([]model.Entity, 0, len(votes)+1)
	batch = append(batch, veNFT)
	for _, vote := range votes {
		batch = append(batch, vote)
	}
	return storage.SaveAll(ctx, e.store, batch...)
}

// handleAbstained refreshes every voted gauge and drops the votes. Reads
// see the reset already applied on chain.
func (e *Engine) handleAbstained(ctx context.Context, ev *model.Event, p model.Abstained) error {
	veNFT, err := mustLoad[model.VeNFTEntity](ctx, e.store, model.KindVeNFT, veIDString(p.TokenID))
	if err != nil {
		return err
	}
	if len(veNFT.VoteIds) == 0 {
		return nil
	}
	opts := callOpts(ctx, ev)

	snap, err := e.voteSnapshot(ctx, opts, ev.Address, veNFT.Ve)
	if err != nil {
		return err
	}

	for _, voteID := range veNFT.VoteIds {
		vote, ok, err := storage.Load[model.Vote](ctx, e.store, model.KindVote, voteID)
		if err != nil {
			return err
		}
		if !ok {
			e.skip(observability.SkipMissingVote, "vote listed on ve-NFT not found",
				zap.String("vote", voteID),
				zap.String("ve_nft", veNFT.ID),
			)
			continue
		}
		if err := e.updateGaugeVotes(ctx, opts, vote.Gauge, vote.Pool, snap); err != nil {
			return err
		}
		if err := storage.Remove(ctx, e.store, model.KindVote, voteID); err != nil {
			return err
		}
	}

	veNFT.VoteIds = []string{}
	veNFT.VotesTx = ""
	veNFT.VotesBlock = 0
	return storage.Save(ctx, e.store, veNFT)
}

func (e *Engine) voteSnapshot(ctx context.Context, opts *bind.CallOpts, voter common.Address, veID string) (voteSnapshot, error) {
	ve, err := mustLoad[model.VeEntity](ctx, e.store, model.KindVe, veID)
	if err != nil {
		return voteSnapshot{}, err
	}
	weeklyRaw, err := e.reader.WeeklyEmission(opts, common.HexToAddress(ve.UnderlyingMinter))
	if err != nil {
		return voteSnapshot{}, err
	}
	totalRaw, err := e.reader.TotalWeight(opts, voter)
	if err != nil {
		return voteSnapshot{}, err
	}
	return voteSnapshot{
		voter:       voter,
		totalWeight: finance.FormatUnits(totalRaw, 18),
		weekly:      finance.FormatUnits(weeklyRaw, 18),
	}, nil
}

func (e *Engine) getOrCreateVote(ctx context.Context, voterID, veID, gaugeID string) (*model.Vote, error) {
	id := model.VoteID(voterID, veID, gaugeID)
	vote, ok, err := storage.Load[model.Vote](ctx, e.store, model.KindVote, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		vote = &model.Vote{ID: id, Voter: voterID, VeNFT: veID, Gauge: gaugeID}
	}
	return vote, nil
}

// updateGaugeVotes refreshes a gauge's vote weight and expected APRs.
func (e *Engine) updateGaugeVotes(ctx context.Context, opts *bind.CallOpts, gaugeID, poolID string, snap voteSnapshot) error {
	gauge, err := mustLoad[model.GaugeEntity](ctx, e.store, model.KindGauge, gaugeID)
	if err != nil {
		return err
	}

	weightRaw, err := e.reader.Weights(opts, snap.voter, common.HexToAddress(poolID))
	if err != nil {
		return err
	}
	supplyRaw, err := e.reader.TotalSupply(opts, common.HexToAddress(gaugeID))
	if err != nil {
		return err
	}
	gauge.VoteWeight = finance.FormatUnits(weightRaw, 18)
	gauge.TotalWeight = snap.totalWeight
	gauge.ExpectedAmount = finance.SafeDiv(gauge.VoteWeight.Mul(snap.weekly), snap.totalWeight)

	if gauge.ExpectAPR, err = e.expectedAPR(ctx, gauge, gauge.ExpectedAmount, finance.FormatUnits(supplyRaw, 18)); err != nil {
		return err
	}
	if gauge.ExpectAPRDerived, err = e.expectedAPR(ctx, gauge, gauge.ExpectedAmount, gauge.TotalDerivedSupply); err != nil {
		return err
	}
	return storage.Save(ctx, e.store, gauge)
}

func veIDString(tokenID *big.Int) string {
	if tokenID == nil {
		return "0"
	}
	return tokenID.String()
}
