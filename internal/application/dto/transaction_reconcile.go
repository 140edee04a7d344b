package dto

import (
	"time"

	"depixsync/internal/domain/entities"
	valueobjects "depixsync/internal/domain/value_objects"
)

type ReconcileTransactionsCommand struct {
	Now            time.Time
	LookbackWindow time.Duration
	BatchSize      int
	InterItemDelay time.Duration
}

type ReconcileItemOutcome string

const (
	ReconcileItemUpdated  ReconcileItemOutcome = "updated"
	ReconcileItemSkipped  ReconcileItemOutcome = "skipped"
	ReconcileItemUnmapped ReconcileItemOutcome = "unmapped"
	ReconcileItemFailed   ReconcileItemOutcome = "failed"
)

type ReconcileItemResult struct {
	TransactionID  string                         `json:"transaction_id"`
	ExternalID     string                         `json:"external_id"`
	PreviousStatus valueobjects.TransactionStatus `json:"previous_status"`
	NextStatus     valueobjects.TransactionStatus `json:"next_status"`
	RawStatus      string                         `json:"raw_status,omitempty"`
	Outcome        ReconcileItemOutcome           `json:"outcome"`
	ErrorType      string                         `json:"error_type,omitempty"`
	ErrorCode      string                         `json:"error_code,omitempty"`
	Retryable      bool                           `json:"retryable,omitempty"`

	// ProviderNotFound marks a status query the provider could not answer yet.
	ProviderNotFound bool `json:"provider_not_found,omitempty"`
}

type ReconcileTransactionsOutput struct {
	Checked  int                   `json:"checked"`
	Updated  int                   `json:"updated"`
	Skipped  int                   `json:"skipped"`
	Unmapped int                   `json:"unmapped"`
	Errors   int                   `json:"errors"`
	Results  []ReconcileItemResult `json:"results,omitempty"`
}

// SummarizeReconcileResults derives the tick counters from per-item results.
func SummarizeReconcileResults(results []ReconcileItemResult) ReconcileTransactionsOutput {
	output := ReconcileTransactionsOutput{
		Checked: len(results),
		Results: results,
	}
	for _, result := range results {
		switch result.Outcome {
		case ReconcileItemUpdated:
			output.Updated++
		case ReconcileItemSkipped:
			output.Skipped++
		case ReconcileItemUnmapped:
			output.Unmapped++
		case ReconcileItemFailed:
			output.Errors++
		}
	}
	return output
}

type FindOpenTransactionsQuery struct {
	Statuses     []valueobjects.TransactionStatus
	CreatedAfter time.Time
	Limit        int
}

type OpenTransactionForReconciliation struct {
	ID         string
	ExternalID string
	Status     valueobjects.TransactionStatus
	CreatedAt  time.Time
	Metadata   entities.TransactionMetadata
}

type TransactionStatusUpdate struct {
	ID            string
	CurrentStatus valueobjects.TransactionStatus
	NextStatus    valueobjects.TransactionStatus
	ProcessedAt   time.Time
	Metadata      entities.TransactionMetadata
}
