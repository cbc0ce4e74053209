package projection

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"gaugeScope/internal/config"
	"gaugeScope/internal/finance"
	"gaugeScope/internal/model"
	"gaugeScope/internal/observability"
	"gaugeScope/internal/storage"
	"gaugeScope/internal/storage/memory"
)

var (
	voterAddr  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	veAddr     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	minterAddr = common.HexToAddress("0x3000000000000000000000000000000000000003")
	veUnderAdr = common.HexToAddress("0x4000000000000000000000000000000000000004")
	bribeAddr  = common.HexToAddress("0x5000000000000000000000000000000000000005")
	rewardAddr = common.HexToAddress("0x6000000000000000000000000000000000000006")
)

type harness struct {
	engine  *Engine
	store   *memory.EntityStore
	reader  *fakeReader
	metrics *observability.Metrics
	network config.Network
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	network, err := config.LookupNetwork("matic")
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	store := memory.NewEntityStore()
	reader := newFakeReader()
	metrics := observability.NewMetrics("test")

	engine, err := NewEngine(network, store, reader, nil, metrics)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return &harness{engine: engine, store: store, reader: reader, metrics: metrics, network: network}
}

func (h *harness) seed(t *testing.T, entities ...model.Entity) {
	t.Helper()
	for _, entity := range entities {
		if err := storage.Save(context.Background(), h.store, entity); err != nil {
			t.Fatalf("seed %s: %v", entity.EntityID(), err)
		}
	}
}

func (h *harness) apply(t *testing.T, ev *model.Event) {
	t.Helper()
	if err := h.engine.Apply(context.Background(), ev); err != nil {
		t.Fatalf("apply %s: %v", ev.Name, err)
	}
}

func load[T any](t *testing.T, h *harness, kind model.Kind, id string) *T {
	t.Helper()
	out, ok, err := storage.Load[T](context.Background(), h.store, kind, id)
	if err != nil {
		t.Fatalf("load %s %s: %v", kind, id, err)
	}
	if !ok {
		t.Fatalf("%s %s not found", kind, id)
	}
	return out
}

func (h *harness) skipped(reason string) float64 {
	return testutil.ToFloat64(h.metrics.EventsSkipped.WithLabelValues(reason))
}

func event(name string, address common.Address, tx string, payload interface{}) *model.Event {
	return &model.Event{
		ChainID:     137,
		BlockNumber: 100,
		TxHash:      tx,
		LogIndex:    1,
		Address:     address,
		Name:        name,
		Payload:     payload,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	if _, err := NewEngine(config.Network{}, nil, newFakeReader(), nil, nil); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := NewEngine(config.Network{}, memory.NewEntityStore(), nil, nil, nil); err == nil {
		t.Fatalf("expected reader error")
	}
}

func TestApplyRejectsUnknownPayload(t *testing.T) {
	h := newHarness(t)
	err := h.engine.Apply(context.Background(), event("Swap", voterAddr, "0x1", struct{}{}))
	if err == nil {
		t.Fatalf("expected error for unknown payload")
	}
	if IsFatal(err) {
		t.Fatalf("unknown payload should not be a fatal entity error")
	}
}

func TestGetOrCreateTokenReadsOnce(t *testing.T) {
	h := newHarness(t)
	h.reader.tokenMeta[rewardAddr] = model.TokenMeta{Symbol: "SATIN", Name: "Satin", Decimals: 18}
	ctx := context.Background()
	id := model.AddressID(rewardAddr)

	first, err := h.engine.getOrCreateToken(ctx, nil, id)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	// Metadata changing on chain must not rewrite identity fields.
	h.reader.tokenMeta[rewardAddr] = model.TokenMeta{Symbol: "OTHER", Name: "Other", Decimals: 6}
	second, err := h.engine.getOrCreateToken(ctx, nil, id)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if h.reader.calls["TokenMeta"] != 1 {
		t.Fatalf("expected one metadata read, got %d", h.reader.calls["TokenMeta"])
	}
	if first.Symbol != second.Symbol || first.Name != second.Name || first.Decimals != second.Decimals {
		t.Fatalf("token identity changed: %+v vs %+v", first, second)
	}
	if second.IsWhitelisted || !second.DerivedETH.IsZero() || second.TotalSupply != "0" {
		t.Fatalf("aggregates not zeroed: %+v", second)
	}
}

func TestGetOrCreateTokenRevertIsHardFailure(t *testing.T) {
	h := newHarness(t)
	if _, err := h.engine.getOrCreateToken(context.Background(), nil, model.AddressID(rewardAddr)); err == nil {
		t.Fatalf("expected metadata failure")
	}
	if h.store.Count(model.KindToken) != 0 {
		t.Fatalf("token must not be created on failure")
	}
}

func TestWhitelisted(t *testing.T) {
	h := newHarness(t)
	id := model.AddressID(rewardAddr)

	h.apply(t, event(model.EventWhitelisted, voterAddr, "0x1", model.Whitelisted{Token: rewardAddr}))
	if h.store.Count(model.KindToken) != 0 {
		t.Fatalf("unknown token must not be created")
	}
	if h.skipped(observability.SkipUnknownToken) != 1 {
		t.Fatalf("skip not counted")
	}

	h.seed(t, &model.Token{ID: id, Symbol: "SATIN"})
	h.apply(t, event(model.EventWhitelisted, voterAddr, "0x2", model.Whitelisted{Token: rewardAddr}))
	if !load[model.Token](t, h, model.KindToken, id).IsWhitelisted {
		t.Fatalf("token not whitelisted")
	}
}

func TestErrorCarriesEventCoordinates(t *testing.T) {
	h := newHarness(t)
	ev := event(model.EventAttach, voterAddr, "0xabc", model.Attach{TokenID: big.NewInt(9)})

	err := h.engine.Apply(context.Background(), ev)
	var evErr *EventError
	if !errors.As(err, &evErr) {
		t.Fatalf("expected EventError, got %v", err)
	}
	if evErr.Event != model.EventAttach || evErr.TxHash != "0xabc" || evErr.BlockNumber != 100 {
		t.Fatalf("coordinates mismatch: %+v", evErr)
	}
	var fatal *FatalError
	if !errors.As(err, &fatal) || fatal.Kind != model.KindVeNFT || fatal.ID != "9" {
		t.Fatalf("expected fatal VeNFT 9, got %v", err)
	}
	if !errors.Is(err, ErrEntityMissing) {
		t.Fatalf("expected ErrEntityMissing")
	}
	if got := testutil.ToFloat64(h.metrics.FatalErrors.WithLabelValues(model.EventAttach)); got != 1 {
		t.Fatalf("fatal not counted: %v", got)
	}
}

func TestAPRZeroGuards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if got := finance.APR(0, finance.WeekSeconds, dec("1"), decimal.Zero); !got.IsZero() {
		t.Fatalf("zero total: %s", got)
	}

	h.seed(t, &model.Pair{ID: "0xpair", ReserveETH: dec("100")})
	got, err := h.engine.expectedAPR(ctx, &model.GaugeEntity{ID: "0xg", Pair: "0xpair"}, dec("10"), dec("5"))
	if err != nil {
		t.Fatalf("expected apr: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("zero pair supply: %s", got)
	}

	fourpool := model.AddressID(h.network.FourPool)
	got, err = h.engine.expectedAPR(ctx, &model.GaugeEntity{ID: "0xg", Pair: fourpool}, dec("10"), dec("5"))
	if err != nil {
		t.Fatalf("fourpool apr: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("fourpool: %s", got)
	}
	h.seed(t, &model.Fourpool{ID: fourpool, Gauge: "0xg"})
	got, err = h.engine.expectedAPR(ctx, &model.GaugeEntity{ID: "0xg", Pair: fourpool}, dec("10"), dec("5"))
	if err != nil || !got.IsZero() {
		t.Fatalf("stored fourpool: %s %v", got, err)
	}

	h.seed(t, &model.Pair{ID: "0xpriced", TotalSupply: dec("100"), ReserveETH: dec("200")})
	got, err = h.engine.expectedAPR(ctx, &model.GaugeEntity{ID: "0xg", Pair: "0xpriced"}, dec("10"), dec("5"))
	if err != nil {
		t.Fatalf("priced apr: %v", err)
	}
	// 10 ETH of weekly reward against 5 LP at 2 ETH each.
	if want := finance.APR(0, finance.WeekSeconds, dec("10"), dec("10")); !got.Equal(want) {
		t.Fatalf("priced apr: got %s, want %s", got, want)
	}

	_, err = h.engine.expectedAPR(ctx, &model.GaugeEntity{ID: "0xg", Pair: "0xabsent"}, dec("10"), dec("5"))
	if !IsFatal(err) {
		t.Fatalf("absent pair must be fatal, got %v", err)
	}
}
