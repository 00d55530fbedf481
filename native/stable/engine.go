package stable

import (
	"math/big"
	"sync/atomic"

	"stablecore/core/events"
	nativecommon "stablecore/native/common"
)

const moduleName = "stable"

// Engine orchestrates deposits, minting, redemption, burning and liquidation
// of the collateral-backed stable unit. Every mutating operation executes as
// one indivisible unit: the ledgers are checkpointed at entry and restored on
// any error path, so no failure leaves a partial state change behind. A
// single execution-exclusion flag wraps all mutating operations; a recursive
// or concurrent mutating call fails immediately with ErrReentrant instead of
// blocking.
type Engine struct {
	registry *Registry
	vault    AssetVault
	token    StableToken
	emitter  events.Emitter
	pauses   nativecommon.PauseView

	book    *Book
	busy    atomic.Bool
	view    atomic.Pointer[Book]
	pending []events.Event
}

// NewEngine constructs an engine over the sealed asset registry and the two
// token collaborators.
func NewEngine(registry *Registry, vault AssetVault, token StableToken) *Engine {
	e := &Engine{
		registry: registry,
		vault:    vault,
		token:    token,
		emitter:  events.NoopEmitter{},
		book:     NewBook(),
	}
	e.view.Store(e.book.Snapshot())
	return e
}

// SetEmitter wires the engine to a downstream event subscriber.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil || emitter == nil {
		return
	}
	e.emitter = emitter
}

// SetPauses wires the administrative halt switch consulted by every mutating
// operation.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetBook replaces the ledgers wholesale. Used at boot to restore persisted
// positions before the engine starts serving.
func (e *Engine) SetBook(b *Book) {
	if e == nil || b == nil {
		return
	}
	e.book = b
	e.view.Store(b.Snapshot())
}

// run executes one mutating operation under the exclusion flag with
// checkpoint/restore semantics. Events queued by op are only delivered after
// the whole unit has succeeded.
func (e *Engine) run(op func() error) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !e.busy.CompareAndSwap(false, true) {
		return ErrReentrant
	}
	defer e.busy.Store(false)

	checkpoint := e.book.Snapshot()
	if err := op(); err != nil {
		e.book = checkpoint
		e.pending = nil
		return err
	}
	e.view.Store(e.book.Snapshot())
	for _, ev := range e.pending {
		e.emitter.Emit(ev)
	}
	e.pending = nil
	return nil
}

func (e *Engine) emit(ev events.Event) {
	e.pending = append(e.pending, ev)
}

// DepositCollateral locks amount of the registered asset for the caller and
// pulls the tokens into engine custody.
func (e *Engine) DepositCollateral(caller Account, asset AssetID, amount *big.Int) error {
	return e.run(func() error {
		return e.depositCollateral(caller, asset, amount)
	})
}

func (e *Engine) depositCollateral(caller Account, asset AssetID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !e.registry.Contains(asset) {
		return ErrAssetNotAllowed
	}
	e.book.Deposit(caller, asset, amount)
	if !e.vault.Pull(asset, caller, amount) {
		return ErrTransferFailed
	}
	e.emit(events.CollateralDeposited{Account: caller, Asset: asset, Amount: new(big.Int).Set(amount)})
	return nil
}

// Mint issues amount stable units against the caller's collateral. The
// caller's health factor is verified after the debt increase; a violation
// aborts the whole operation including the increase.
func (e *Engine) Mint(caller Account, amount *big.Int) error {
	return e.run(func() error {
		return e.mint(caller, amount)
	})
}

func (e *Engine) mint(caller Account, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.book.IncreaseDebt(caller, amount)
	if err := e.checkHealth(caller); err != nil {
		return err
	}
	if !e.token.Mint(caller, amount) {
		return ErrMintFailed
	}
	e.emit(events.StableMinted{Account: caller, Amount: new(big.Int).Set(amount)})
	return nil
}

// RedeemCollateral releases amount of the asset back to the caller. The
// withdrawal happens before the invariant check, so a redemption that would
// break solvency is fully reverted rather than rejected up front.
func (e *Engine) RedeemCollateral(caller Account, asset AssetID, amount *big.Int) error {
	return e.run(func() error {
		return e.redeemCollateral(caller, caller, asset, amount)
	})
}

// redeemCollateral moves collateral out of from's position and pushes the
// tokens to recipient. The solvency check applies to from.
func (e *Engine) redeemCollateral(from, recipient Account, asset AssetID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.book.Withdraw(from, asset, amount); err != nil {
		return err
	}
	if !e.vault.Push(asset, recipient, amount) {
		return ErrTransferFailed
	}
	if err := e.checkHealth(from); err != nil {
		return err
	}
	e.emit(events.CollateralRedeemed{From: from, To: recipient, Asset: asset, Amount: new(big.Int).Set(amount)})
	return nil
}

// Burn retires amount of the caller's stable-unit debt, pulling the units
// into engine custody before destroying them.
func (e *Engine) Burn(caller Account, amount *big.Int) error {
	return e.run(func() error {
		return e.burn(caller, amount)
	})
}

func (e *Engine) burn(caller Account, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.book.DecreaseDebt(caller, amount); err != nil {
		return err
	}
	if !e.token.Pull(caller, amount) {
		return ErrTransferFailed
	}
	e.token.Burn(amount)
	// Burning can only raise the health factor, so this should be
	// unreachable. Kept anyway; not certain it is never needed.
	if err := e.checkHealth(caller); err != nil {
		return err
	}
	e.emit(events.StableBurned{Account: caller, Amount: new(big.Int).Set(amount)})
	return nil
}

// DepositCollateralAndMint composes a deposit and a mint into one indivisible
// unit: a mint failure also rolls the deposit back.
func (e *Engine) DepositCollateralAndMint(caller Account, asset AssetID, collateralAmount, mintAmount *big.Int) error {
	return e.run(func() error {
		if err := e.depositCollateral(caller, asset, collateralAmount); err != nil {
			return err
		}
		return e.mint(caller, mintAmount)
	})
}

// RedeemCollateralForStable composes a burn and a redemption into one
// indivisible unit. The burn runs first so the redemption is checked against
// the reduced debt.
func (e *Engine) RedeemCollateralForStable(caller Account, asset AssetID, collateralAmount, burnAmount *big.Int) error {
	return e.run(func() error {
		if err := e.burn(caller, burnAmount); err != nil {
			return err
		}
		return e.redeemCollateral(caller, caller, asset, collateralAmount)
	})
}

// Liquidate lets the caller repay debtToCover of the violator's stable-unit
// debt in exchange for the debt-equivalent amount of the asset plus a 10%
// bonus, seized from the violator's collateral. The violator must start below
// the minimum health factor and must end strictly healthier.
//
// Known limitation carried from the protocol design: when system-wide
// collateralization falls to 100% or below, the bonus cannot be fully funded
// from the violator's remaining collateral and liquidation fails with
// ErrInsufficientCollateral.
func (e *Engine) Liquidate(caller, violator Account, asset AssetID, debtToCover *big.Int) error {
	return e.run(func() error {
		return e.liquidate(caller, violator, asset, debtToCover)
	})
}

func (e *Engine) liquidate(caller, violator Account, asset AssetID, debtToCover *big.Int) error {
	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return ErrInvalidAmount
	}
	source, ok := e.registry.Source(asset)
	if !ok {
		return ErrAssetNotAllowed
	}

	startHF, err := e.healthFactorOf(violator)
	if err != nil {
		return err
	}
	if startHF.Cmp(MinHealthFactor) >= 0 {
		return ErrHealthFactorNotBroken
	}

	price, decimals, err := source.LatestPrice()
	if err != nil {
		return err
	}
	seizedBase := AmountOf(price, decimals, debtToCover)
	bonus := new(big.Int).Mul(seizedBase, big.NewInt(LiquidationBonus))
	bonus.Quo(bonus, hundred)
	totalSeized := new(big.Int).Add(seizedBase, bonus)

	if err := e.book.Withdraw(violator, asset, totalSeized); err != nil {
		return err
	}
	if !e.vault.Push(asset, caller, totalSeized) {
		return ErrTransferFailed
	}
	if err := e.book.DecreaseDebt(violator, debtToCover); err != nil {
		return err
	}
	if !e.token.Pull(caller, debtToCover) {
		return ErrTransferFailed
	}
	e.token.Burn(debtToCover)

	endHF, err := e.healthFactorOf(violator)
	if err != nil {
		return err
	}
	if endHF.Cmp(startHF) <= 0 {
		return ErrHealthFactorNotImproved
	}
	// Liquidation never adds debt to the caller's own position; this final
	// self-check catches residual inconsistency all the same.
	if err := e.checkHealth(caller); err != nil {
		return err
	}

	e.emit(events.CollateralRedeemed{From: violator, To: caller, Asset: asset, Amount: new(big.Int).Set(totalSeized)})
	e.emit(events.Liquidated{
		Liquidator:         caller,
		Violator:           violator,
		Asset:              asset,
		DebtCovered:        new(big.Int).Set(debtToCover),
		SeizedAmount:       totalSeized,
		EndingHealthFactor: endHF,
	})
	return nil
}

// checkHealth verifies the solvency invariant for the account against the
// in-flight ledgers, surfacing the computed value on violation.
func (e *Engine) checkHealth(account Account) error {
	hf, err := e.healthFactorOf(account)
	if err != nil {
		return err
	}
	if hf.Cmp(MinHealthFactor) < 0 {
		return &HealthFactorBrokenError{HealthFactor: hf}
	}
	return nil
}

func (e *Engine) healthFactorOf(account Account) (*big.Int, error) {
	value, err := e.collateralValue(e.book, account)
	if err != nil {
		return nil, err
	}
	return HealthFactor(e.book.DebtOf(account), value), nil
}

// collateralValue sums the priced value of every registered asset the account
// holds, in registry insertion order.
func (e *Engine) collateralValue(book *Book, account Account) (*big.Int, error) {
	total := new(big.Int)
	for _, asset := range e.registry.order {
		amount := book.CollateralOf(account, asset)
		if amount.Sign() == 0 {
			continue
		}
		price, decimals, err := e.registry.sources[asset].LatestPrice()
		if err != nil {
			return nil, err
		}
		total.Add(total, ValueOf(price, decimals, amount))
	}
	return total, nil
}
