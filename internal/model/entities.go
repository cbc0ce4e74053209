package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Kind names an entity type in the entity store.
type Kind string

const (
	KindBribe           Kind = "BribeEntity"
	KindBribeToken      Kind = "BribeToken"
	KindBribeUser       Kind = "BribeUser"
	KindToken           Kind = "Token"
	KindGauge           Kind = "GaugeEntity"
	KindGaugeAttachment Kind = "GaugeAttachment"
	KindVe              Kind = "VeEntity"
	KindVeNFT           Kind = "VeNFTEntity"
	KindVote            Kind = "Vote"
	KindPair            Kind = "Pair"
	KindFourpool        Kind = "Fourpool"
)

// Entity is a keyed record of the derived graph.
type Entity interface {
	EntityKind() Kind
	EntityID() string
}

// AddressID renders an address the way entity ids expect it.
func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// BribeEntity is one bribe (reward distribution) contract.
type BribeEntity struct {
	ID           string   `json:"id"`
	Pair         string   `json:"pair"`
	Ve           string   `json:"ve"`
	VeUnderlying string   `json:"ve_underlying"`
	BribeTokens  []string `json:"bribe_tokens"`
}

func (b *BribeEntity) EntityKind() Kind { return KindBribe }
func (b *BribeEntity) EntityID() string { return b.ID }

// BribeToken is the reward snapshot of one token inside one bribe.
type BribeToken struct {
	ID             string          `json:"id"`
	Bribe          string          `json:"bribe"`
	Token          string          `json:"token"`
	TotalSupply    decimal.Decimal `json:"total_supply"`
	TotalSupplyETH decimal.Decimal `json:"total_supply_eth"`
	Left           decimal.Decimal `json:"left"`
	LeftETH        decimal.Decimal `json:"left_eth"`
	PeriodFinish   int64           `json:"period_finish"`
	APR            decimal.Decimal `json:"apr"`
}

func (b *BribeToken) EntityKind() Kind { return KindBribeToken }
func (b *BribeToken) EntityID() string { return b.ID }

// BribeTokenID composes the id of a bribe token snapshot.
func BribeTokenID(bribe, token string) string {
	return bribe + token
}

// BribeUser marks a ve-NFT currently staked in a bribe.
type BribeUser struct {
	ID     string          `json:"id"`
	Bribe  string          `json:"bribe"`
	VeNFT  string          `json:"ve_nft"`
	Amount decimal.Decimal `json:"amount"`
}

func (u *BribeUser) EntityKind() Kind { return KindBribeUser }
func (u *BribeUser) EntityID() string { return u.ID }

// BribeUserID composes the id of a bribe stake.
func BribeUserID(bribe, veID string) string {
	return bribe + veID
}

// Token is shared ERC20 metadata plus price tracking fields.
type Token struct {
	ID                 string          `json:"id"`
	Symbol             string          `json:"symbol"`
	Name               string          `json:"name"`
	Decimals           int32           `json:"decimals"`
	TotalSupply        string          `json:"total_supply"`
	TradeVolume        decimal.Decimal `json:"trade_volume"`
	TradeVolumeUSD     decimal.Decimal `json:"trade_volume_usd"`
	UntrackedVolumeUSD decimal.Decimal `json:"untracked_volume_usd"`
	TxCount            uint64          `json:"tx_count"`
	TotalLiquidity     decimal.Decimal `json:"total_liquidity"`
	Whitelist          []string        `json:"whitelist"`
	DerivedETH         decimal.Decimal `json:"derived_eth"`
	IsWhitelisted      bool            `json:"is_whitelisted"`
}

func (t *Token) EntityKind() Kind { return KindToken }
func (t *Token) EntityID() string { return t.ID }

// GaugeEntity is one liquidity gauge.
type GaugeEntity struct {
	ID                    string          `json:"id"`
	Pair                  string          `json:"pair"`
	Bribe                 string          `json:"bribe"`
	TotalSupply           decimal.Decimal `json:"total_supply"`
	TotalSupplyETH        decimal.Decimal `json:"total_supply_eth"`
	TotalDerivedSupply    decimal.Decimal `json:"total_derived_supply"`
	VoteWeight            decimal.Decimal `json:"vote_weight"`
	TotalWeight           decimal.Decimal `json:"total_weight"`
	ExpectedAmount        decimal.Decimal `json:"expected_amount"`
	ExpectAPR             decimal.Decimal `json:"expect_apr"`
	ExpectAPRDerived      decimal.Decimal `json:"expect_apr_derived"`
	RewardTokensAddresses []string        `json:"reward_tokens_addresses"`
}

func (g *GaugeEntity) EntityKind() Kind { return KindGauge }
func (g *GaugeEntity) EntityID() string { return g.ID }

// GaugeAttachment tracks one LP's stake in a gauge.
type GaugeAttachment struct {
	ID      string          `json:"id"`
	Gauge   string          `json:"gauge"`
	User    string          `json:"user"`
	Deposit decimal.Decimal `json:"deposit"`
	VeNFT   string          `json:"ve_nft,omitempty"`
}

func (a *GaugeAttachment) EntityKind() Kind { return KindGaugeAttachment }
func (a *GaugeAttachment) EntityID() string { return a.ID }

// GaugeAttachmentID composes the id of a gauge stake.
func GaugeAttachmentID(gauge, user string) string {
	return gauge + user
}

// VeEntity is the vote-escrow contract.
type VeEntity struct {
	ID               string `json:"id"`
	Underlying       string `json:"underlying"`
	UnderlyingMinter string `json:"underlying_minter"`
}

func (v *VeEntity) EntityKind() Kind { return KindVe }
func (v *VeEntity) EntityID() string { return v.ID }

// VeNFTEntity is one vote-escrow position.
type VeNFTEntity struct {
	ID          string   `json:"id"`
	Ve          string   `json:"ve"`
	Attachments int64    `json:"attachments"`
	VoteIds     []string `json:"vote_ids"`
	// VotesTx is the transaction whose Voted event populated VoteIds.
	VotesTx    string `json:"votes_tx,omitempty"`
	VotesBlock uint64 `json:"votes_block,omitempty"`
}

func (v *VeNFTEntity) EntityKind() Kind { return KindVeNFT }
func (v *VeNFTEntity) EntityID() string { return v.ID }

// Vote is one ve-NFT's vote for one gauge.
type Vote struct {
	ID            string          `json:"id"`
	Voter         string          `json:"voter"`
	VeNFT         string          `json:"ve_nft"`
	Gauge         string          `json:"gauge"`
	Pool          string          `json:"pool"`
	Weight        decimal.Decimal `json:"weight"`
	WeightPercent decimal.Decimal `json:"weight_percent"`
}

func (v *Vote) EntityKind() Kind { return KindVote }
func (v *Vote) EntityID() string { return v.ID }

// VoteID composes the id of a vote.
func VoteID(voter, veID, gauge string) string {
	return voter + veID + gauge
}
