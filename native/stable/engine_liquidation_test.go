package stable

import (
	"errors"
	"math/big"
	"testing"

	"stablecore/core/events"
)

func TestLiquidateCoversFullDebt(t *testing.T) {
	h := newHarness(t)
	violator := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	if err := h.engine.DepositCollateralAndMint(violator, h.asset, wei(10), wei(100)); err != nil {
		t.Fatalf("setup position: %v", err)
	}

	// A crash from 3000 to 15 leaves the position at a 0.075 health factor.
	h.price.price = feedPrice(15)

	if err := h.engine.Liquidate(liquidator, violator, h.asset, wei(100)); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// Covering 100 debt at price 15 seizes 6.66... units plus the 10% bonus.
	wantSeized, _ := new(big.Int).SetString("7333333333333333332", 10)
	wantRemaining := new(big.Int).Sub(wei(10), wantSeized)
	if got := h.engine.CollateralOf(violator, h.asset); got.Cmp(wantRemaining) != 0 {
		t.Fatalf("unexpected remaining collateral: got %s want %s", got, wantRemaining)
	}
	if got := h.engine.DebtOf(violator); got.Sign() != 0 {
		t.Fatalf("debt not cleared: %s", got)
	}
	if h.token.burned.Cmp(wei(100)) != 0 {
		t.Fatalf("unexpected burned total: %s", h.token.burned)
	}
	hf, err := h.engine.AccountHealthFactor(violator)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if hf.Cmp(MaxHealthFactor) != 0 {
		t.Fatalf("expected max health factor after full liquidation, got %s", hf)
	}
}

func TestLiquidateEmitsSeizureAndLiquidation(t *testing.T) {
	h := newHarness(t)
	emitter := &capturingEmitter{}
	h.engine.SetEmitter(emitter)
	violator := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	if err := h.engine.DepositCollateralAndMint(violator, h.asset, wei(10), wei(100)); err != nil {
		t.Fatalf("setup position: %v", err)
	}
	h.price.price = feedPrice(15)
	emitter.emitted = nil

	if err := h.engine.Liquidate(liquidator, violator, h.asset, wei(100)); err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if len(emitter.emitted) != 2 {
		t.Fatalf("expected two events, got %d", len(emitter.emitted))
	}
	if emitter.emitted[0].EventType() != events.TypeCollateralRedeemed {
		t.Fatalf("unexpected first event %s", emitter.emitted[0].EventType())
	}
	liq, ok := emitter.emitted[1].(events.Liquidated)
	if !ok {
		t.Fatalf("unexpected second event %T", emitter.emitted[1])
	}
	if liq.Liquidator != liquidator || liq.Violator != violator {
		t.Fatal("liquidation event misattributed")
	}
	if liq.DebtCovered.Cmp(wei(100)) != 0 {
		t.Fatalf("unexpected covered debt in event: %s", liq.DebtCovered)
	}
}

func TestLiquidateHealthyPosition(t *testing.T) {
	h := newHarness(t)
	violator := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	if err := h.engine.DepositCollateralAndMint(violator, h.asset, wei(10), wei(100)); err != nil {
		t.Fatalf("setup position: %v", err)
	}
	err := h.engine.Liquidate(liquidator, violator, h.asset, wei(100))
	if !errors.Is(err, ErrHealthFactorNotBroken) {
		t.Fatalf("expected ErrHealthFactorNotBroken, got %v", err)
	}
	if got := h.engine.DebtOf(violator); got.Cmp(wei(100)) != 0 {
		t.Fatalf("healthy position mutated: debt %s", got)
	}
}

func TestLiquidateRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	violator := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	if err := h.engine.Liquidate(liquidator, violator, h.asset, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := h.engine.Liquidate(liquidator, violator, makeAddress(0xFF), wei(1)); !errors.Is(err, ErrAssetNotAllowed) {
		t.Fatalf("expected ErrAssetNotAllowed, got %v", err)
	}
}

func TestLiquidateMustImproveHealthFactor(t *testing.T) {
	h := newHarness(t)
	violator := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	if err := h.engine.DepositCollateralAndMint(violator, h.asset, wei(105), wei(100)); err != nil {
		t.Fatalf("setup position: %v", err)
	}

	// At price 1 the position holds 105 of value against 100 of debt, a
	// 0.525 health factor. Covering half the debt seizes 55 and leaves 50
	// against 50, which is worse.
	h.price.price = feedPrice(1)

	err := h.engine.Liquidate(liquidator, violator, h.asset, wei(50))
	if !errors.Is(err, ErrHealthFactorNotImproved) {
		t.Fatalf("expected ErrHealthFactorNotImproved, got %v", err)
	}
	if got := h.engine.CollateralOf(violator, h.asset); got.Cmp(wei(105)) != 0 {
		t.Fatalf("collateral not restored: %s", got)
	}
	if got := h.engine.DebtOf(violator); got.Cmp(wei(100)) != 0 {
		t.Fatalf("debt not restored: %s", got)
	}
}

func TestLiquidateBonusExceedsCollateral(t *testing.T) {
	h := newHarness(t)
	violator := makeAddress(0x01)
	liquidator := makeAddress(0x02)

	if err := h.engine.DepositCollateralAndMint(violator, h.asset, wei(1), wei(1400)); err != nil {
		t.Fatalf("setup position: %v", err)
	}

	// At price 1000 covering the full debt needs 1.54 units of collateral
	// while the violator only holds 1. The bonus cannot be funded.
	h.price.price = feedPrice(1000)

	err := h.engine.Liquidate(liquidator, violator, h.asset, wei(1400))
	if !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}
	if got := h.engine.CollateralOf(violator, h.asset); got.Cmp(wei(1)) != 0 {
		t.Fatalf("collateral not restored: %s", got)
	}
}
