package policies

import (
	"strings"

	valueobjects "depixsync/internal/domain/value_objects"
)

type StatusMappingKind string

const (
	// StatusMappingMapped carries a local status the ledger may move to.
	StatusMappingMapped StatusMappingKind = "mapped"
	// StatusMappingNoChange means the provider has nothing new to report.
	StatusMappingNoChange StatusMappingKind = "no_change"
	// StatusMappingUnmapped means the provider string is not in the table.
	StatusMappingUnmapped StatusMappingKind = "unmapped"
)

type StatusMapping struct {
	Kind      StatusMappingKind
	Status    valueobjects.TransactionStatus
	RawStatus string
}

// Raw status strings reported by the DePix deposit-status endpoint.
const (
	ProviderStatusPending     = "pending"
	ProviderStatusProcessing  = "processing"
	ProviderStatusDelayed     = "delayed"
	ProviderStatusUnderReview = "under_review"
	ProviderStatusDepixSent   = "depix_sent"
	ProviderStatusError       = "error"
	ProviderStatusRefunded    = "refunded"
	ProviderStatusExpired     = "expired"
	ProviderStatusCanceled    = "canceled"
	ProviderStatusCancelled   = "cancelled"
)

var providerStatusTable = map[string]StatusMapping{
	ProviderStatusPending:     {Kind: StatusMappingNoChange},
	ProviderStatusProcessing:  {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusProcessing},
	ProviderStatusDelayed:     {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusProcessing},
	ProviderStatusUnderReview: {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusInReview},
	ProviderStatusDepixSent:   {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusCompleted},
	ProviderStatusError:       {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusFailed},
	ProviderStatusRefunded:    {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusFailed},
	ProviderStatusExpired:     {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusExpired},
	ProviderStatusCanceled:    {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusCancelled},
	ProviderStatusCancelled:   {Kind: StatusMappingMapped, Status: valueobjects.TransactionStatusCancelled},
}

// MapProviderStatus is total: every input yields exactly one mapping kind.
func MapProviderStatus(raw string) StatusMapping {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	mapping, exists := providerStatusTable[normalized]
	if !exists {
		return StatusMapping{Kind: StatusMappingUnmapped, RawStatus: raw}
	}
	mapping.RawStatus = normalized
	return mapping
}

// ResolveTransition returns the status to write, or false when the ledger
// must stay as it is.
func ResolveTransition(current valueobjects.TransactionStatus, mapping StatusMapping) (valueobjects.TransactionStatus, bool) {
	if mapping.Kind != StatusMappingMapped {
		return current, false
	}
	if !current.CanTransitionTo(mapping.Status) {
		return current, false
	}
	return mapping.Status, true
}
