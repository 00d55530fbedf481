package stable

import (
	"math/big"
	"testing"
)

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Precision)
}

// feedPrice renders a quote in 8-decimal feed units, the convention used by
// the reference feeds.
func feedPrice(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(100_000_000))
}

func TestValueOfNormalizesFeedDecimals(t *testing.T) {
	// 20 units priced at 3000 with an 8-decimal feed.
	value := ValueOf(feedPrice(3000), 8, wei(20))
	if want := wei(60_000); value.Cmp(want) != 0 {
		t.Fatalf("unexpected value: got %s want %s", value, want)
	}
}

func TestAmountOfInvertsValue(t *testing.T) {
	// 90 stable units of value at price 3000 buys 0.03 units.
	amount := AmountOf(feedPrice(3000), 8, wei(90))
	want, _ := new(big.Int).SetString("30000000000000000", 10)
	if amount.Cmp(want) != 0 {
		t.Fatalf("unexpected amount: got %s want %s", amount, want)
	}
}

func TestValueOfEighteenDecimalFeed(t *testing.T) {
	value := ValueOf(wei(2), 18, wei(7))
	if want := wei(14); value.Cmp(want) != 0 {
		t.Fatalf("unexpected value: got %s want %s", value, want)
	}
}

func TestValueOfScalesDownWideFeeds(t *testing.T) {
	// A 20-decimal feed must be divided back into 18-decimal terms.
	price := new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil))
	value := ValueOf(price, 20, wei(3))
	if want := wei(15); value.Cmp(want) != 0 {
		t.Fatalf("unexpected value: got %s want %s", value, want)
	}
}

func TestRoundTripBoundedByTruncation(t *testing.T) {
	price := feedPrice(3000)
	for _, n := range []int64{1, 3, 17, 999, 123_456_789} {
		amount := big.NewInt(n)
		roundTrip := AmountOf(price, 8, ValueOf(price, 8, amount))
		diff := new(big.Int).Sub(amount, roundTrip)
		if diff.Sign() < 0 {
			t.Fatalf("round trip of %s grew to %s", amount, roundTrip)
		}
		// Truncation error is bounded by one unit of the coarser scale.
		bound := new(big.Int).Quo(normalizePrice(price, 8), Precision)
		bound.Add(bound, big.NewInt(1))
		if diff.Cmp(bound) > 0 {
			t.Fatalf("round trip of %s lost %s, bound %s", amount, diff, bound)
		}
	}
}

func TestValueOfNilInputs(t *testing.T) {
	if v := ValueOf(nil, 8, wei(1)); v.Sign() != 0 {
		t.Fatalf("expected zero value for nil price, got %s", v)
	}
	if v := AmountOf(feedPrice(3000), 8, nil); v.Sign() != 0 {
		t.Fatalf("expected zero amount for nil value, got %s", v)
	}
}
