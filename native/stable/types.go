package stable

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Account identifies a caller within the engine. Asset identifiers share the
// same 20-byte address form so positions map directly onto token contracts.
type Account = common.Address

// AssetID identifies an approved collateral asset.
type AssetID = common.Address

// Percentage constants governing solvency. The threshold of 50 encodes a
// fixed 200% overcollateralization target; positions below it are eligible
// for liquidation.
const (
	// LiquidationThreshold is the percentage of collateral value counted
	// toward solvency.
	LiquidationThreshold = 50
	// LiquidationBonus is the extra percentage of seized collateral awarded
	// to a liquidator on top of the debt-equivalent amount.
	LiquidationBonus = 10
)

var (
	// Precision is the fixed-point scale shared by amounts, values and
	// normalized prices.
	Precision = big.NewInt(1_000_000_000_000_000_000)

	// MinHealthFactor is the smallest health factor a nonzero-debt account
	// may hold at the end of any state-changing operation (1.0 fixed point).
	MinHealthFactor = new(big.Int).Set(Precision)

	// MaxHealthFactor is reported for debt-free accounts, which are
	// maximally healthy by definition and never liquidatable.
	MaxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	hundred = big.NewInt(100)
)

// AssetVault moves collateral tokens between account custody and engine
// custody. A false return is treated identically to a failure: the enclosing
// operation aborts with ErrTransferFailed and no ledger change persists.
type AssetVault interface {
	Pull(asset AssetID, from Account, amount *big.Int) bool
	Push(asset AssetID, to Account, amount *big.Int) bool
}

// StableToken mints and burns the synthetic stable unit. Burn operates on
// units already pulled into engine custody.
type StableToken interface {
	Mint(to Account, amount *big.Int) bool
	Pull(from Account, amount *big.Int) bool
	Burn(amount *big.Int)
}

// PriceSource supplies the current unit price for one asset in the feed's
// native decimal precision. Implementations guarantee the quote is fresh;
// a stale or unavailable feed returns an error and the enclosing engine
// operation aborts entirely.
type PriceSource interface {
	LatestPrice() (price *big.Int, decimals uint8, err error)
}
