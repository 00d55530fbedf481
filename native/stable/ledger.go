package stable

import "math/big"

// Book holds the collateral and debt ledgers. The engine owns the only
// mutable reference; no aliased state is ever handed to collaborators.
// Account records are implicit: they appear zero-initialized on first use and
// zero balances simply persist as zero entries.
type Book struct {
	collateral map[Account]map[AssetID]*big.Int
	debt       map[Account]*big.Int
}

// NewBook returns an empty ledger book.
func NewBook() *Book {
	return &Book{
		collateral: make(map[Account]map[AssetID]*big.Int),
		debt:       make(map[Account]*big.Int),
	}
}

// Deposit credits the account with the asset amount. Input validation
// (positive amount, registered asset) is the engine's responsibility; once
// inputs are valid a deposit never fails.
func (b *Book) Deposit(account Account, asset AssetID, amount *big.Int) {
	assets, ok := b.collateral[account]
	if !ok {
		assets = make(map[AssetID]*big.Int)
		b.collateral[account] = assets
	}
	balance, ok := assets[asset]
	if !ok {
		balance = new(big.Int)
	}
	assets[asset] = new(big.Int).Add(balance, amount)
}

// Withdraw debits the account's asset balance, failing with
// ErrInsufficientCollateral when the balance cannot cover the amount.
func (b *Book) Withdraw(account Account, asset AssetID, amount *big.Int) error {
	balance := b.CollateralOf(account, asset)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	b.collateral[account][asset] = balance.Sub(balance, amount)
	return nil
}

// CollateralOf returns a copy of the account's deposited balance for the
// asset. Unknown accounts and assets report zero.
func (b *Book) CollateralOf(account Account, asset AssetID) *big.Int {
	if assets, ok := b.collateral[account]; ok {
		if balance, ok := assets[asset]; ok {
			return new(big.Int).Set(balance)
		}
	}
	return new(big.Int)
}

// IncreaseDebt adds to the account's outstanding stable-unit debt.
func (b *Book) IncreaseDebt(account Account, amount *big.Int) {
	debt, ok := b.debt[account]
	if !ok {
		debt = new(big.Int)
	}
	b.debt[account] = new(big.Int).Add(debt, amount)
}

// DecreaseDebt subtracts from the account's outstanding debt, failing with
// ErrInsufficientDebt when the subtraction would underflow.
func (b *Book) DecreaseDebt(account Account, amount *big.Int) error {
	debt := b.DebtOf(account)
	if debt.Cmp(amount) < 0 {
		return ErrInsufficientDebt
	}
	b.debt[account] = debt.Sub(debt, amount)
	return nil
}

// DebtOf returns a copy of the account's outstanding debt.
func (b *Book) DebtOf(account Account) *big.Int {
	if debt, ok := b.debt[account]; ok {
		return new(big.Int).Set(debt)
	}
	return new(big.Int)
}

// AssetTotal sums one asset's deposits across every account.
func (b *Book) AssetTotal(asset AssetID) *big.Int {
	total := new(big.Int)
	for _, assets := range b.collateral {
		if balance, ok := assets[asset]; ok {
			total.Add(total, balance)
		}
	}
	return total
}

// TotalDebt sums outstanding debt across every account.
func (b *Book) TotalDebt() *big.Int {
	total := new(big.Int)
	for _, debt := range b.debt {
		total.Add(total, debt)
	}
	return total
}

// Snapshot returns a deep copy of the book. The engine checkpoints the
// ledgers at operation entry and restores the checkpoint on every error path
// so a failed operation leaves no partial state behind.
func (b *Book) Snapshot() *Book {
	clone := NewBook()
	for account, assets := range b.collateral {
		cloned := make(map[AssetID]*big.Int, len(assets))
		for asset, balance := range assets {
			cloned[asset] = new(big.Int).Set(balance)
		}
		clone.collateral[account] = cloned
	}
	for account, debt := range b.debt {
		clone.debt[account] = new(big.Int).Set(debt)
	}
	return clone
}
