package stable

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("stable engine: amount must be positive")
	// ErrAssetNotAllowed rejects assets absent from the registry.
	ErrAssetNotAllowed = errors.New("stable engine: asset not registered")
	// ErrTransferFailed reports a collateral or stable-unit movement the
	// collaborator refused.
	ErrTransferFailed = errors.New("stable engine: token transfer failed")
	// ErrMintFailed reports a refused stable-unit mint.
	ErrMintFailed = errors.New("stable engine: stable unit mint failed")
	// ErrInsufficientCollateral reports a withdrawal exceeding the deposited
	// balance.
	ErrInsufficientCollateral = errors.New("stable engine: insufficient collateral")
	// ErrInsufficientDebt reports a debt decrease exceeding the outstanding
	// debt.
	ErrInsufficientDebt = errors.New("stable engine: insufficient debt")
	// ErrHealthFactorBroken reports a violated solvency invariant.
	ErrHealthFactorBroken = errors.New("stable engine: health factor below minimum")
	// ErrHealthFactorNotBroken rejects liquidation of a solvent account.
	ErrHealthFactorNotBroken = errors.New("stable engine: account not eligible for liquidation")
	// ErrHealthFactorNotImproved rejects a liquidation that failed to
	// strictly improve the violator's ratio.
	ErrHealthFactorNotImproved = errors.New("stable engine: liquidation did not improve health factor")
	// ErrReentrant rejects a mutating call while another is executing.
	ErrReentrant = errors.New("stable engine: reentrant call rejected")
	// ErrLengthMismatch rejects construction with unequal asset and price
	// source lists.
	ErrLengthMismatch = errors.New("stable engine: asset and price source counts differ")
)

// HealthFactorBrokenError carries the computed health factor alongside the
// invariant violation so callers can retry with adjusted amounts.
type HealthFactorBrokenError struct {
	HealthFactor *big.Int
}

func (e *HealthFactorBrokenError) Error() string {
	return fmt.Sprintf("%s (health factor %s)", ErrHealthFactorBroken, e.HealthFactor)
}

// Unwrap lets errors.Is match ErrHealthFactorBroken.
func (e *HealthFactorBrokenError) Unwrap() error { return ErrHealthFactorBroken }
