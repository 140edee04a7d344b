package valueobjects

import (
	"strings"

	apperrors "depixsync/internal/shared_kernel/errors"
)

// NormalizeTaxNumber strips CPF/CNPJ punctuation and checks the digit count.
// An empty input is allowed since payer identity is optional.
func NormalizeTaxNumber(raw string) (string, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}

	var digits strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '.' || r == '-' || r == '/' || r == ' ':
		default:
			return "", apperrors.NewValidation(
				"invalid_request",
				"payer_tax_number must contain only digits and punctuation",
				map[string]any{"field": "payer_tax_number"},
			)
		}
	}

	normalized := digits.String()
	if len(normalized) != 11 && len(normalized) != 14 {
		return "", apperrors.NewValidation(
			"invalid_request",
			"payer_tax_number must be a CPF (11 digits) or CNPJ (14 digits)",
			map[string]any{"field": "payer_tax_number"},
		)
	}

	return normalized, nil
}
