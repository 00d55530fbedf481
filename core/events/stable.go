package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event types emitted by the stable engine.
const (
	TypeCollateralDeposited = "stable.collateral.deposited"
	TypeCollateralRedeemed  = "stable.collateral.redeemed"
	TypeStableMinted        = "stable.minted"
	TypeStableBurned        = "stable.burned"
	TypeLiquidated          = "stable.liquidated"
)

// CollateralDeposited is emitted when an account locks collateral.
type CollateralDeposited struct {
	Account common.Address
	Asset   common.Address
	Amount  *big.Int
}

func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

// CollateralRedeemed is emitted when collateral leaves engine custody. During
// a liquidation the redeeming account differs from the receiving one.
type CollateralRedeemed struct {
	From   common.Address
	To     common.Address
	Asset  common.Address
	Amount *big.Int
}

func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

// StableMinted is emitted when new stable units enter circulation.
type StableMinted struct {
	Account common.Address
	Amount  *big.Int
}

func (StableMinted) EventType() string { return TypeStableMinted }

// StableBurned is emitted when stable units are retired.
type StableBurned struct {
	Account common.Address
	Amount  *big.Int
}

func (StableBurned) EventType() string { return TypeStableBurned }

// Liquidated is emitted when a third party repays a violator's debt in
// exchange for a bonus-weighted slice of its collateral.
type Liquidated struct {
	Liquidator         common.Address
	Violator           common.Address
	Asset              common.Address
	DebtCovered        *big.Int
	SeizedAmount       *big.Int
	EndingHealthFactor *big.Int
}

func (Liquidated) EventType() string { return TypeLiquidated }
