package entities

import (
	"strings"
	"time"

	valueobjects "depixsync/internal/domain/value_objects"
	apperrors "depixsync/internal/shared_kernel/errors"
)

// Core metadata keys written when a deposit is requested.
const (
	MetadataKeyQRCopyPaste = "qrCopyPaste"
	MetadataKeyQRImageURL  = "qrImageUrl"
	MetadataKeyFailureCode = "failureCode"
)

type Transaction struct {
	ID                 string
	ExternalID         *string
	Status             valueobjects.TransactionStatus
	AmountMinor        int64
	UserID             string
	DestinationAddress string
	CreatedAt          time.Time
	ProcessedAt        *time.Time
	UpdatedAt          time.Time
	Metadata           TransactionMetadata
}

type NewTransactionInput struct {
	ID                 string
	AmountMinor        int64
	UserID             string
	DestinationAddress string
	Metadata           map[string]any
	CreatedAt          time.Time
}

func NewPendingTransaction(input NewTransactionInput) (Transaction, *apperrors.AppError) {
	if strings.TrimSpace(input.ID) == "" {
		return Transaction{}, apperrors.NewInternal(
			"transaction_id_missing",
			"transaction id is required",
			nil,
		)
	}
	if strings.TrimSpace(input.UserID) == "" {
		return Transaction{}, apperrors.NewValidation(
			"invalid_request",
			"user_id is required",
			map[string]any{"field": "user_id"},
		)
	}
	if input.AmountMinor <= 0 {
		return Transaction{}, apperrors.NewValidation(
			"invalid_request",
			"amount_minor must be greater than zero",
			map[string]any{"field": "amount_minor"},
		)
	}
	if input.CreatedAt.IsZero() {
		return Transaction{}, apperrors.NewInternal(
			"transaction_created_at_missing",
			"transaction created_at is required",
			nil,
		)
	}

	return Transaction{
		ID:                 input.ID,
		Status:             valueobjects.NewPendingTransactionStatus(),
		AmountMinor:        input.AmountMinor,
		UserID:             strings.TrimSpace(input.UserID),
		DestinationAddress: input.DestinationAddress,
		CreatedAt:          input.CreatedAt.UTC(),
		UpdatedAt:          input.CreatedAt.UTC(),
		Metadata:           MetadataFromMap(cloneMetadata(input.Metadata)),
	}, nil
}

func (t Transaction) HasExternalID() bool {
	return t.ExternalID != nil && strings.TrimSpace(*t.ExternalID) != ""
}
