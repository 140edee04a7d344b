package valueobjects

import (
	"strings"

	apperrors "depixsync/internal/shared_kernel/errors"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusInReview   TransactionStatus = "IN_REVIEW"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusExpired    TransactionStatus = "EXPIRED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
)

// OpenTransactionStatuses lists the statuses the reconciler polls.
func OpenTransactionStatuses() []TransactionStatus {
	return []TransactionStatus{
		TransactionStatusPending,
		TransactionStatusProcessing,
		TransactionStatusInReview,
	}
}

func NewPendingTransactionStatus() TransactionStatus {
	return TransactionStatusPending
}

func ParseTransactionStatus(raw string) (TransactionStatus, *apperrors.AppError) {
	status := TransactionStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case TransactionStatusPending,
		TransactionStatusProcessing,
		TransactionStatusInReview,
		TransactionStatusCompleted,
		TransactionStatusFailed,
		TransactionStatusExpired,
		TransactionStatusCancelled:
		return status, nil
	default:
		return "", apperrors.NewInternal(
			"transaction_status_invalid",
			"transaction status is invalid",
			map[string]any{"status": raw},
		)
	}
}

// IsTerminal reports whether no further transition may be applied.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted,
		TransactionStatusFailed,
		TransactionStatusExpired,
		TransactionStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is a forward step of
// the ledger state machine. Terminal statuses are sinks and nothing moves
// back to PENDING.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next || s.IsTerminal() {
		return false
	}

	switch s {
	case TransactionStatusPending:
		switch next {
		case TransactionStatusProcessing,
			TransactionStatusInReview,
			TransactionStatusCompleted,
			TransactionStatusFailed,
			TransactionStatusExpired,
			TransactionStatusCancelled:
			return true
		}
	case TransactionStatusProcessing, TransactionStatusInReview:
		switch next {
		case TransactionStatusProcessing,
			TransactionStatusInReview,
			TransactionStatusCompleted,
			TransactionStatusFailed,
			TransactionStatusExpired,
			TransactionStatusCancelled:
			return true
		}
	}

	return false
}

func (s TransactionStatus) String() string {
	return string(s)
}
