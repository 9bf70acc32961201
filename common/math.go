package common

import (
	"math/big"
)

var (
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	// unlimitedFloor is 90% of MaxUint256. Wallets and dapps commonly approve
	// values a little below the maximum (max - 1, max / 2 + x), all of which
	// are effectively infinite.
	unlimitedFloor = new(big.Int).Div(new(big.Int).Mul(MaxUint256, big.NewInt(9)), big.NewInt(10))
	// Tokens that store balances in narrower integers (COMP, UNI use uint96)
	// translate an approve(max uint256) into the max of their own type.
	narrowMaxima = []*big.Int{
		maxUint(96),
		maxUint(112),
		maxUint(128),
		maxUint(160),
		maxUint(192),
	}
)

func maxUint(bits uint) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
}

// IsUnlimited reports whether an allowance is the maximum representable value
// of the token's storage type, i.e. never decreases in practice.
func IsUnlimited(value *big.Int) bool {
	if value == nil || value.Sign() <= 0 {
		return false
	}
	if value.Cmp(unlimitedFloor) >= 0 {
		return true
	}
	for _, m := range narrowMaxima {
		if value.Cmp(m) == 0 {
			return true
		}
	}
	return false
}
