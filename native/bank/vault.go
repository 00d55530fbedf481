package bank

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Vault adapts a set of collateral token ledgers to the engine's
// external-asset-transfer contract. All pulled tokens sit in a single custody
// account owned by the engine deployment.
type Vault struct {
	custody common.Address
	tokens  map[common.Address]*Token
}

// NewVault wires the custody account to the tokens it may move, keyed by
// asset identifier.
func NewVault(custody common.Address, tokens map[common.Address]*Token) *Vault {
	cloned := make(map[common.Address]*Token, len(tokens))
	for asset, token := range tokens {
		cloned[asset] = token
	}
	return &Vault{custody: custody, tokens: cloned}
}

// Pull moves amount of the asset from the holder into custody.
func (v *Vault) Pull(asset, from common.Address, amount *big.Int) bool {
	token, ok := v.tokens[asset]
	if !ok {
		return false
	}
	return token.Transfer(from, v.custody, amount)
}

// Push moves amount of the asset from custody to the recipient.
func (v *Vault) Push(asset, to common.Address, amount *big.Int) bool {
	token, ok := v.tokens[asset]
	if !ok {
		return false
	}
	return token.Transfer(v.custody, to, amount)
}

// StableMinter adapts a token ledger to the engine's synthetic-asset
// contract: minting to accounts, pulling units back into custody, and
// burning custody-held units.
type StableMinter struct {
	custody common.Address
	token   *Token
}

// NewStableMinter wires the stable-unit token to the custody account.
func NewStableMinter(custody common.Address, token *Token) *StableMinter {
	return &StableMinter{custody: custody, token: token}
}

// Mint issues amount to the recipient.
func (m *StableMinter) Mint(to common.Address, amount *big.Int) bool {
	return m.token.Mint(to, amount)
}

// Pull moves amount from the holder into custody ahead of a burn.
func (m *StableMinter) Pull(from common.Address, amount *big.Int) bool {
	return m.token.Transfer(from, m.custody, amount)
}

// Burn destroys custody-held units. Units are always pulled before burning,
// so a custody shortfall here indicates an engine bug rather than a caller
// error.
func (m *StableMinter) Burn(amount *big.Int) {
	m.token.Burn(m.custody, amount)
}
