package stable

import "math/big"

// Read accessors operate on the last committed snapshot of the ledgers, so
// they may run at any time, even while a mutating operation is in flight, and
// observe state strictly before or after that operation, never during it.
// They have no side effects; unknown accounts and assets report zero rather
// than erroring.

// CollateralOf returns the account's deposited balance for the asset.
func (e *Engine) CollateralOf(account Account, asset AssetID) *big.Int {
	return e.view.Load().CollateralOf(account, asset)
}

// DebtOf returns the account's outstanding stable-unit debt.
func (e *Engine) DebtOf(account Account) *big.Int {
	return e.view.Load().DebtOf(account)
}

// TotalCollateralValue prices the account's full collateral in stable-unit
// terms. It fails only when a price source cannot supply a fresh quote.
func (e *Engine) TotalCollateralValue(account Account) (*big.Int, error) {
	return e.collateralValue(e.view.Load(), account)
}

// AccountHealthFactor reports the account's current solvency ratio.
func (e *Engine) AccountHealthFactor(account Account) (*big.Int, error) {
	book := e.view.Load()
	value, err := e.collateralValue(book, account)
	if err != nil {
		return nil, err
	}
	return HealthFactor(book.DebtOf(account), value), nil
}

// AssetTotal reports the asset's total deposits across all accounts.
func (e *Engine) AssetTotal(asset AssetID) *big.Int {
	return e.view.Load().AssetTotal(asset)
}

// Assets returns the approved assets in registry order.
func (e *Engine) Assets() []AssetID {
	return e.registry.Assets()
}

// Book returns a snapshot of the committed ledgers, e.g. for persistence.
func (e *Engine) Book() *Book {
	return e.view.Load().Snapshot()
}
