package bank

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Token is a minimal in-process fungible token ledger. stabled uses it to
// stand in for the external collateral assets and the stable unit when
// running self-contained; tests use it as the collaborator implementation.
type Token struct {
	mu       sync.Mutex
	symbol   string
	balances map[common.Address]*big.Int
	supply   *big.Int
}

// NewToken creates an empty ledger for the given symbol.
func NewToken(symbol string) *Token {
	return &Token{
		symbol:   symbol,
		balances: make(map[common.Address]*big.Int),
		supply:   new(big.Int),
	}
}

// Symbol returns the token's display symbol.
func (t *Token) Symbol() string { return t.symbol }

// Mint credits the recipient and grows total supply. Returns false on a
// non-positive amount.
func (t *Token) Mint(to common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(to, amount)
	t.supply = new(big.Int).Add(t.supply, amount)
	return true
}

// Burn debits the holder and shrinks total supply. Returns false when the
// holder's balance cannot cover the amount.
func (t *Token) Burn(from common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.debit(from, amount) {
		return false
	}
	t.supply = new(big.Int).Sub(t.supply, amount)
	return true
}

// Transfer moves amount between accounts, returning false on insufficient
// balance.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.debit(from, amount) {
		return false
	}
	t.credit(to, amount)
	return true
}

// BalanceOf returns a copy of the holder's balance.
func (t *Token) BalanceOf(holder common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if balance, ok := t.balances[holder]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

// TotalSupply returns a copy of the outstanding supply.
func (t *Token) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.supply)
}

func (t *Token) credit(addr common.Address, amount *big.Int) {
	balance, ok := t.balances[addr]
	if !ok {
		balance = new(big.Int)
	}
	t.balances[addr] = new(big.Int).Add(balance, amount)
}

func (t *Token) debit(addr common.Address, amount *big.Int) bool {
	balance, ok := t.balances[addr]
	if !ok || balance.Cmp(amount) < 0 {
		return false
	}
	t.balances[addr] = new(big.Int).Sub(balance, amount)
	return true
}
