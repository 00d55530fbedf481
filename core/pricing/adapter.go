package pricing

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var (
	// ErrStalePrice signals the latest observation exceeded the configured
	// freshness window.
	ErrStalePrice = errors.New("pricing: quote exceeds max age")
	// ErrUnavailable signals no usable observation could be obtained.
	ErrUnavailable = errors.New("pricing: no quote available")
)

// Round is one observation from an upstream feed, priced in the feed's
// native decimal precision.
type Round struct {
	Price     *big.Int
	UpdatedAt time.Time
}

// Feed supplies raw price rounds for a single asset.
type Feed interface {
	LatestRound() (Round, error)
	Decimals() uint8
}

// Adapter wraps a feed with a freshness guard so consumers only ever see
// quotes verified fresh. It satisfies the engine's PriceSource contract.
type Adapter struct {
	feed   Feed
	maxAge time.Duration
	now    func() time.Time
}

// NewAdapter guards the feed with the given maximum quote age. A zero maxAge
// disables the staleness check.
func NewAdapter(feed Feed, maxAge time.Duration) *Adapter {
	return &Adapter{feed: feed, maxAge: maxAge, now: time.Now}
}

// WithClock overrides the adapter's clock. Intended for tests.
func (a *Adapter) WithClock(now func() time.Time) *Adapter {
	if now != nil {
		a.now = now
	}
	return a
}

// LatestPrice returns the current price and its native decimal precision,
// failing when the feed is unavailable or the observation is stale.
func (a *Adapter) LatestPrice() (*big.Int, uint8, error) {
	if a == nil || a.feed == nil {
		return nil, 0, ErrUnavailable
	}
	round, err := a.feed.LatestRound()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if round.Price == nil || round.Price.Sign() <= 0 {
		return nil, 0, ErrUnavailable
	}
	if a.maxAge > 0 && a.now().Sub(round.UpdatedAt) > a.maxAge {
		return nil, 0, ErrStalePrice
	}
	return new(big.Int).Set(round.Price), a.feed.Decimals(), nil
}

// ManualFeed is an in-process feed whose price is pushed by an operator or a
// test. stabled's self-contained mode exposes it behind an admin endpoint.
type ManualFeed struct {
	mu       sync.RWMutex
	decimals uint8
	price    *big.Int
	updated  time.Time
}

// NewManualFeed creates an unset feed reporting the given native precision.
func NewManualFeed(decimals uint8) *ManualFeed {
	return &ManualFeed{decimals: decimals}
}

// Set records a new observation timestamped now.
func (f *ManualFeed) Set(price *big.Int) {
	f.SetAt(price, time.Now())
}

// SetAt records a new observation with an explicit timestamp.
func (f *ManualFeed) SetAt(price *big.Int, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price == nil {
		f.price = nil
		return
	}
	f.price = new(big.Int).Set(price)
	f.updated = at
}

// LatestRound implements Feed.
func (f *ManualFeed) LatestRound() (Round, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil {
		return Round{}, ErrUnavailable
	}
	return Round{Price: new(big.Int).Set(f.price), UpdatedAt: f.updated}, nil
}

// Decimals implements Feed.
func (f *ManualFeed) Decimals() uint8 {
	return f.decimals
}
