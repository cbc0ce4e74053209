package model

import "github.com/shopspring/decimal"

// PoolLink is a liquidity pool that can be bound to one gauge and its bribe.
type PoolLink interface {
	Entity
	GaugeAddress() string
	BribeAddress() string
	Link(gauge, bribe string)
	// ExcludedFromPricing reports pools whose expected APR is defined as zero.
	ExcludedFromPricing() bool
}

// Pair is a standard liquidity pair. Reserves and supply are maintained by
// the price component.
type Pair struct {
	ID          string          `json:"id"`
	Token0      string          `json:"token0,omitempty"`
	Token1      string          `json:"token1,omitempty"`
	TotalSupply decimal.Decimal `json:"total_supply"`
	ReserveETH  decimal.Decimal `json:"reserve_eth"`
	Gauge       string          `json:"gauge,omitempty"`
	GaugeBribes string          `json:"gauge_bribes,omitempty"`
}

func (p *Pair) EntityKind() Kind          { return KindPair }
func (p *Pair) EntityID() string          { return p.ID }
func (p *Pair) GaugeAddress() string      { return p.Gauge }
func (p *Pair) BribeAddress() string      { return p.GaugeBribes }
func (p *Pair) ExcludedFromPricing() bool { return false }

func (p *Pair) Link(gauge, bribe string) {
	p.Gauge = gauge
	p.GaugeBribes = bribe
}

// Fourpool is the network's stable-swap pool, priced outside the pair path.
type Fourpool struct {
	ID          string `json:"id"`
	Gauge       string `json:"gauge,omitempty"`
	GaugeBribes string `json:"gauge_bribes,omitempty"`
}

func (p *Fourpool) EntityKind() Kind          { return KindFourpool }
func (p *Fourpool) EntityID() string          { return p.ID }
func (p *Fourpool) GaugeAddress() string      { return p.Gauge }
func (p *Fourpool) BribeAddress() string      { return p.GaugeBribes }
func (p *Fourpool) ExcludedFromPricing() bool { return true }

func (p *Fourpool) Link(gauge, bribe string) {
	p.Gauge = gauge
	p.GaugeBribes = bribe
}
