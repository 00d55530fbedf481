package stable

import "math/big"

// normalizePrice rescales an oracle price quoted with the given number of
// native decimals into the engine's 18-decimal terms.
func normalizePrice(price *big.Int, decimals uint8) *big.Int {
	if price == nil {
		return new(big.Int)
	}
	switch {
	case decimals == 18:
		return new(big.Int).Set(price)
	case decimals < 18:
		return new(big.Int).Mul(price, pow10(18-decimals))
	default:
		return new(big.Int).Quo(price, pow10(decimals-18))
	}
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ValueOf converts an asset quantity into stable-unit value at the supplied
// price. Multiplication precedes division so truncation happens exactly once.
func ValueOf(price *big.Int, decimals uint8, amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	value := new(big.Int).Mul(normalizePrice(price, decimals), amount)
	return value.Quo(value, Precision)
}

// AmountOf converts a stable-unit value into an asset quantity at the
// supplied price. ValueOf and AmountOf are inverses only up to integer
// truncation; callers must not assume an exact round trip.
func AmountOf(price *big.Int, decimals uint8, value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	normalized := normalizePrice(price, decimals)
	if normalized.Sign() <= 0 {
		return new(big.Int)
	}
	amount := new(big.Int).Mul(value, Precision)
	return amount.Quo(amount, normalized)
}
