package valueobjects

import (
	apperrors "depixsync/internal/shared_kernel/errors"
)

// Minimum accepted PIX deposit in centavos.
const MinDepositAmountMinor int64 = 100

func ValidateDepositAmountMinor(amount int64, maxAmount int64) *apperrors.AppError {
	if amount < MinDepositAmountMinor {
		return apperrors.NewValidation(
			"invalid_request",
			"amount_minor must be at least the minimum deposit",
			map[string]any{"field": "amount_minor", "min": MinDepositAmountMinor},
		)
	}
	if maxAmount > 0 && amount > maxAmount {
		return apperrors.NewValidation(
			"invalid_request",
			"amount_minor exceeds the maximum deposit",
			map[string]any{"field": "amount_minor", "max": maxAmount},
		)
	}

	return nil
}
