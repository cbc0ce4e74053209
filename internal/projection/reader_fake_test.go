package projection

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"gaugeScope/internal/chain"
	"gaugeScope/internal/model"
)

type pairKey struct {
	contract common.Address
	token    common.Address
}

// fakeReader answers contract reads from maps. Unset entries revert.
type fakeReader struct {
	calls map[string]int

	tokenMeta     map[common.Address]model.TokenMeta
	totalSupply   map[common.Address]*big.Int
	left          map[pairKey]*big.Int
	periodFinish  map[pairKey]*big.Int
	externalBribe map[common.Address]common.Address
	underlying    map[common.Address]common.Address
	ve            common.Address
	token         common.Address
	weekly        *big.Int
	totalWeight   *big.Int
	weights       map[common.Address]*big.Int
	votes         map[common.Address]*big.Int
	balance       *big.Int
	poolVotes     []common.Address
	poolVoteErr   map[int]error
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		calls:         make(map[string]int),
		tokenMeta:     make(map[common.Address]model.TokenMeta),
		totalSupply:   make(map[common.Address]*big.Int),
		left:          make(map[pairKey]*big.Int),
		periodFinish:  make(map[pairKey]*big.Int),
		externalBribe: make(map[common.Address]common.Address),
		underlying:    make(map[common.Address]common.Address),
		weights:       make(map[common.Address]*big.Int),
		votes:         make(map[common.Address]*big.Int),
	}
}

func reverted(method string) error {
	return fmt.Errorf("call %s: %w", method, chain.ErrReverted)
}

func bigOrRevert(method string, v *big.Int, ok bool) (*big.Int, error) {
	if !ok || v == nil {
		return nil, reverted(method)
	}
	return new(big.Int).Set(v), nil
}

func (f *fakeReader) TotalSupply(_ *bind.CallOpts, contract common.Address) (*big.Int, error) {
	f.calls["TotalSupply"]++
	v, ok := f.totalSupply[contract]
	return bigOrRevert("totalSupply", v, ok)
}

func (f *fakeReader) Left(_ *bind.CallOpts, bribe, token common.Address) (*big.Int, error) {
	f.calls["Left"]++
	v, ok := f.left[pairKey{bribe, token}]
	return bigOrRevert("left", v, ok)
}

func (f *fakeReader) PeriodFinish(_ *bind.CallOpts, bribe, token common.Address) (*big.Int, error) {
	f.calls["PeriodFinish"]++
	v, ok := f.periodFinish[pairKey{bribe, token}]
	return bigOrRevert("periodFinish", v, ok)
}

func (f *fakeReader) TokenMeta(_ *bind.CallOpts, token common.Address) (model.TokenMeta, error) {
	f.calls["TokenMeta"]++
	meta, ok := f.tokenMeta[token]
	if !ok {
		return model.TokenMeta{}, reverted("decimals")
	}
	return meta, nil
}

func (f *fakeReader) ExternalBribe(_ *bind.CallOpts, gauge common.Address) (common.Address, error) {
	f.calls["ExternalBribe"]++
	v, ok := f.externalBribe[gauge]
	if !ok {
		return common.Address{}, reverted("external_bribe")
	}
	return v, nil
}

func (f *fakeReader) Underlying(_ *bind.CallOpts, gauge common.Address) (common.Address, error) {
	f.calls["Underlying"]++
	v, ok := f.underlying[gauge]
	if !ok {
		return common.Address{}, reverted("underlying")
	}
	return v, nil
}

func (f *fakeReader) Ve(_ *bind.CallOpts, _ common.Address) (common.Address, error) {
	f.calls["Ve"]++
	return f.ve, nil
}

func (f *fakeReader) Token(_ *bind.CallOpts, _ common.Address) (common.Address, error) {
	f.calls["Token"]++
	return f.token, nil
}

func (f *fakeReader) WeeklyEmission(_ *bind.CallOpts, _ common.Address) (*big.Int, error) {
	f.calls["WeeklyEmission"]++
	return bigOrRevert("WEEKLY_EMISSION", f.weekly, true)
}

func (f *fakeReader) TotalWeight(_ *bind.CallOpts, _ common.Address) (*big.Int, error) {
	f.calls["TotalWeight"]++
	return bigOrRevert("totalWeight", f.totalWeight, true)
}

func (f *fakeReader) Weights(_ *bind.CallOpts, _ common.Address, pool common.Address) (*big.Int, error) {
	f.calls["Weights"]++
	v, ok := f.weights[pool]
	return bigOrRevert("weights", v, ok)
}

func (f *fakeReader) Votes(_ *bind.CallOpts, _ common.Address, _ *big.Int, pool common.Address) (*big.Int, error) {
	f.calls["Votes"]++
	v, ok := f.votes[pool]
	return bigOrRevert("votes", v, ok)
}

func (f *fakeReader) BalanceOfNFT(_ *bind.CallOpts, _ common.Address, _ *big.Int) (*big.Int, error) {
	f.calls["BalanceOfNFT"]++
	return bigOrRevert("balanceOfNFT", f.balance, true)
}

func (f *fakeReader) PoolVote(_ *bind.CallOpts, _ common.Address, _ *big.Int, index *big.Int) (common.Address, error) {
	f.calls["PoolVote"]++
	i := int(index.Int64())
	if err, ok := f.poolVoteErr[i]; ok {
		return common.Address{}, err
	}
	if i >= len(f.poolVotes) {
		return common.Address{}, reverted("poolVote")
	}
	return f.poolVotes[i], nil
}

// e18 scales n to 18 decimals.
func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}
