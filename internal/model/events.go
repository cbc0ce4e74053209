package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event names understood by the projection.
const (
	EventGaugeCreated  = "GaugeCreated"
	EventWhitelisted   = "Whitelisted"
	EventGaugeDeposit  = "Deposit"
	EventGaugeWithdraw = "Withdraw"
	EventAttach        = "Attach"
	EventDetach        = "Detach"
	EventVoted         = "Voted"
	EventAbstained     = "Abstained"
	EventBribeDeposit  = "BribeDeposit"
	EventBribeWithdraw = "BribeWithdraw"
	EventNotifyReward  = "NotifyReward"
	EventClaimRewards  = "ClaimRewards"
)

// Event is a decoded contract event with its chain coordinates.
type Event struct {
	ChainID     uint64         `json:"chain_id"`
	BlockNumber uint64         `json:"block_number"`
	BlockHash   string         `json:"block_hash"`
	TxHash      string         `json:"tx_hash"`
	LogIndex    uint64         `json:"log_index"`
	Address     common.Address `json:"address"`
	Name        string         `json:"event_name"`
	Timestamp   uint64         `json:"timestamp"`
	Payload     interface{}    `json:"decoded"`
}

// GaugeCreated is emitted by the voter when a gauge and its bribes deploy.
type GaugeCreated struct {
	Gauge         common.Address `json:"gauge"`
	Creator       common.Address `json:"creator"`
	InternalBribe common.Address `json:"internal_bribe"`
	ExternalBribe common.Address `json:"external_bribe"`
	Pool          common.Address `json:"pool"`
}

// Whitelisted is emitted by the voter when a token becomes bribe-eligible.
type Whitelisted struct {
	Whitelister common.Address `json:"whitelister"`
	Token       common.Address `json:"token"`
}

// GaugeDeposit is the voter-level gauge deposit notification.
type GaugeDeposit struct {
	LP      common.Address `json:"lp"`
	Gauge   common.Address `json:"gauge"`
	TokenID *big.Int       `json:"token_id"`
	Amount  *big.Int       `json:"amount"`
}

// GaugeWithdraw is the voter-level gauge withdraw notification.
type GaugeWithdraw struct {
	LP      common.Address `json:"lp"`
	Gauge   common.Address `json:"gauge"`
	TokenID *big.Int       `json:"token_id"`
	Amount  *big.Int       `json:"amount"`
}

// Attach records a ve-NFT attaching to a gauge.
type Attach struct {
	Owner   common.Address `json:"owner"`
	Gauge   common.Address `json:"gauge"`
	TokenID *big.Int       `json:"token_id"`
}

// Detach records a ve-NFT detaching from a gauge.
type Detach struct {
	Owner   common.Address `json:"owner"`
	Gauge   common.Address `json:"gauge"`
	TokenID *big.Int       `json:"token_id"`
}

// Voted is emitted once per pool in a vote call.
type Voted struct {
	Voter   common.Address `json:"voter"`
	TokenID *big.Int       `json:"token_id"`
	Weight  *big.Int       `json:"weight"`
}

// Abstained is emitted once per pool when a ve-NFT's votes are reset.
type Abstained struct {
	TokenID *big.Int `json:"token_id"`
	Weight  *big.Int `json:"weight"`
}

// BribeDeposit is a bribe-level stake; From packs the ve-NFT id.
type BribeDeposit struct {
	From   common.Address `json:"from"`
	Amount *big.Int       `json:"amount"`
}

// BribeWithdraw is a bribe-level full unstake; From packs the ve-NFT id.
type BribeWithdraw struct {
	From   common.Address `json:"from"`
	Amount *big.Int       `json:"amount"`
}

// NotifyReward adds reward to a bribe.
type NotifyReward struct {
	From   common.Address `json:"from"`
	Reward common.Address `json:"reward"`
	Amount *big.Int       `json:"amount"`
}

// ClaimRewards pays out bribe reward.
type ClaimRewards struct {
	From      common.Address `json:"from"`
	Reward    common.Address `json:"reward"`
	Amount    *big.Int       `json:"amount"`
	Recipient common.Address `json:"recipient"`
}
