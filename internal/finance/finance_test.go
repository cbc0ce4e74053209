package finance

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAPRZeroGuards(t *testing.T) {
	reward := decimal.NewFromInt(10)

	if got := APR(0, WeekSeconds, reward, decimal.Zero); !got.IsZero() {
		t.Fatalf("zero total: got %s", got)
	}
	if got := APR(WeekSeconds, WeekSeconds, reward, decimal.NewFromInt(5)); !got.IsZero() {
		t.Fatalf("lapsed period: got %s", got)
	}
	if got := APR(WeekSeconds+1, WeekSeconds, reward, decimal.NewFromInt(5)); !got.IsZero() {
		t.Fatalf("past period: got %s", got)
	}
}

func TestAPRFullWeek(t *testing.T) {
	v := decimal.NewFromInt(1000)
	got := APR(0, WeekSeconds, v, v)

	// 1 * 365/7 * 100
	want := decimal.RequireFromString("5214.285714")
	if !got.Round(6).Equal(want) {
		t.Fatalf("apr mismatch: got %s, want %s", got, want)
	}
}

func TestAPRScalesWithRemainingTime(t *testing.T) {
	reward := decimal.NewFromInt(1)
	total := decimal.NewFromInt(100)

	week := APR(0, WeekSeconds, reward, total)
	halfWeek := APR(WeekSeconds/2, WeekSeconds, reward, total)
	if !halfWeek.Round(10).Equal(week.Mul(decimal.NewFromInt(2)).Round(10)) {
		t.Fatalf("half week apr %s should double full week %s", halfWeek, week)
	}
}

func TestFormatUnits(t *testing.T) {
	raw, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatUnits(raw, 18); !got.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("format 18: got %s", got)
	}
	if got := FormatUnits(big.NewInt(1234), 0); !got.Equal(decimal.NewFromInt(1234)) {
		t.Fatalf("format 0: got %s", got)
	}
	if got := FormatUnits(nil, 6); !got.IsZero() {
		t.Fatalf("nil: got %s", got)
	}
}

func TestSafeDiv(t *testing.T) {
	if got := SafeDiv(decimal.NewFromInt(3), decimal.Zero); !got.IsZero() {
		t.Fatalf("div by zero: got %s", got)
	}
	if got := SafeDiv(decimal.NewFromInt(3), decimal.NewFromInt(2)); !got.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("div: got %s", got)
	}
}
