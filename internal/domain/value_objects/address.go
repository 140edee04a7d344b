package valueobjects

import (
	"regexp"
	"strings"

	apperrors "depixsync/internal/shared_kernel/errors"
)

// DePix settles on the Liquid network.
var (
	liquidBech32Pattern = regexp.MustCompile(`^(lq1|ex1)[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{20,120}$`)
	liquidBase58Pattern = regexp.MustCompile(`^[VGQH][123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz]{25,90}$`)
)

func NormalizeDestinationAddress(address string) (string, *apperrors.AppError) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			"destination_address is required",
			map[string]any{"field": "destination_address"},
		)
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "lq1") || strings.HasPrefix(lower, "ex1") {
		if !liquidBech32Pattern.MatchString(lower) {
			return "", apperrors.NewValidation(
				"invalid_request",
				"liquid bech32 address is invalid",
				map[string]any{"field": "destination_address"},
			)
		}
		return lower, nil
	}

	if !liquidBase58Pattern.MatchString(trimmed) {
		return "", apperrors.NewValidation(
			"invalid_request",
			"liquid base58 address is invalid",
			map[string]any{"field": "destination_address"},
		)
	}

	return trimmed, nil
}
