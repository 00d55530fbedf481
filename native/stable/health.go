package stable

import "math/big"

// HealthFactor computes the solvency ratio of a position from its total
// outstanding debt and total collateral value, both in 18-decimal fixed
// point. An account with no debt is maximally healthy by definition. The
// function is pure; the engine uses it internally after every mutation and
// exposes it unchanged for off-engine simulation (for example "what would my
// health factor be if I minted X more").
func HealthFactor(totalDebt, totalCollateralValue *big.Int) *big.Int {
	if totalDebt == nil || totalDebt.Sign() == 0 {
		return new(big.Int).Set(MaxHealthFactor)
	}
	if totalCollateralValue == nil {
		totalCollateralValue = new(big.Int)
	}
	adjusted := new(big.Int).Mul(totalCollateralValue, big.NewInt(LiquidationThreshold))
	adjusted.Quo(adjusted, hundred)
	adjusted.Mul(adjusted, Precision)
	return adjusted.Quo(adjusted, totalDebt)
}
