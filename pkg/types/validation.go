package types

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// ValidatePercent checks 0 < percent <= 100.
func ValidatePercent(field string, percent decimal.Decimal) error {
	if !percent.IsPositive() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError(field, "must be greater than 0 and at most 100")
	}
	return nil
}

// ValidateDecimals checks an SPL mint decimals value.
func ValidateDecimals(decimals int) error {
	if decimals < 0 || decimals > 9 {
		return NewValidationError("decimals", "must be between 0 and 9")
	}
	return nil
}

// ValidatePositive checks amount > 0.
func ValidatePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field, "must be greater than 0")
	}
	return nil
}

// ValidatePublicKey validates a public key is not zero.
func ValidatePublicKey(name string, key solana.PublicKey) error {
	if key.IsZero() {
		return NewValidationError(name, "cannot be zero")
	}
	return nil
}

// ValidatePublicKeys validates multiple public keys.
func ValidatePublicKeys(keys map[string]solana.PublicKey) error {
	for name, key := range keys {
		if err := ValidatePublicKey(name, key); err != nil {
			return err
		}
	}
	return nil
}
