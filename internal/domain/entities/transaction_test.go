//go:build !integration

package entities

import (
	"encoding/json"
	"testing"
	"time"

	valueobjects "depixsync/internal/domain/value_objects"

	"github.com/stretchr/testify/require"
)

func TestNewPendingTransaction(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tx, appErr := NewPendingTransaction(NewTransactionInput{
		ID:          "tx_1",
		AmountMinor: 1500,
		UserID:      " user_1 ",
		Metadata:    map[string]any{"channel": "app"},
		CreatedAt:   createdAt,
	})
	require.Nil(t, appErr)
	require.Equal(t, valueobjects.TransactionStatusPending, tx.Status)
	require.Equal(t, "user_1", tx.UserID)
	require.False(t, tx.HasExternalID())
	require.Nil(t, tx.ProcessedAt)
	require.Equal(t, "app", tx.Metadata.Core["channel"])
}

func TestNewPendingTransactionValidates(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, appErr := NewPendingTransaction(NewTransactionInput{AmountMinor: 100, UserID: "u", CreatedAt: createdAt})
	require.NotNil(t, appErr)
	require.Equal(t, "transaction_id_missing", appErr.Code)

	_, appErr = NewPendingTransaction(NewTransactionInput{ID: "tx", AmountMinor: 0, UserID: "u", CreatedAt: createdAt})
	require.NotNil(t, appErr)
	require.Equal(t, "invalid_request", appErr.Code)

	_, appErr = NewPendingTransaction(NewTransactionInput{ID: "tx", AmountMinor: 100, CreatedAt: createdAt})
	require.NotNil(t, appErr)
}

func TestMergeMetadataPreservesExistingKeys(t *testing.T) {
	syncedAt := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	base := MetadataFromMap(map[string]any{
		"channel":                 "app",
		MetadataKeyQRImageURL:     "https://qr.example/1.png",
		MetadataKeyPayerEUID:      "EU111",
		MetadataKeyBankTxID:       "",
		MetadataKeyProviderStatus: "pending",
	})
	patch := TransactionMetadata{
		Core: map[string]any{"channel": "overwritten", "promo": "x"},
		Provider: ProviderAudit{
			PayerEUID: "EU999",
			PayerName: "Maria Silva",
			BankTxID:  "E123",
		},
		Sync: SyncAudit{SyncedAt: syncedAt, ProviderStatus: "depix_sent", Source: "reconciler"},
	}

	merged := MergeMetadata(base, patch)
	require.Equal(t, "app", merged.Core["channel"])
	require.Equal(t, "x", merged.Core["promo"])
	require.Equal(t, "https://qr.example/1.png", merged.Core[MetadataKeyQRImageURL])
	require.Equal(t, "EU111", merged.Provider.PayerEUID)
	require.Equal(t, "Maria Silva", merged.Provider.PayerName)
	require.Equal(t, "E123", merged.Provider.BankTxID)
	require.Equal(t, "depix_sent", merged.Sync.ProviderStatus)
	require.Equal(t, syncedAt, merged.Sync.SyncedAt)

	// Base is not mutated.
	_, exists := base.Core["promo"]
	require.False(t, exists)
}

func TestMergeMetadataKeepsNewestSync(t *testing.T) {
	older := TransactionMetadata{Sync: SyncAudit{SyncedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), ProviderStatus: "pending"}}
	newer := TransactionMetadata{Sync: SyncAudit{SyncedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), ProviderStatus: "depix_sent"}}

	require.Equal(t, "depix_sent", MergeMetadata(older, newer).Sync.ProviderStatus)
	require.Equal(t, "depix_sent", MergeMetadata(newer, older).Sync.ProviderStatus)
}

func TestMergeMetadataDisjointKeysCommute(t *testing.T) {
	a := TransactionMetadata{Core: map[string]any{"a": 1}, Provider: ProviderAudit{PayerName: "Maria Silva"}}
	b := TransactionMetadata{Core: map[string]any{"b": 2}, Provider: ProviderAudit{BlockchainTxID: "abc"}}

	require.Equal(t, MergeMetadata(a, b).Flatten(), MergeMetadata(b, a).Flatten())
}

func TestTransactionMetadataJSONRoundTripKeepsUnknownKeys(t *testing.T) {
	payload := []byte(`{"channel":"app","nested":{"k":"v"},"payerName":"Maria Silva","syncedAt":"2026-03-01T10:05:00Z","providerStatus":"depix_sent"}`)

	var metadata TransactionMetadata
	require.NoError(t, json.Unmarshal(payload, &metadata))
	require.Equal(t, "Maria Silva", metadata.Provider.PayerName)
	require.Equal(t, "depix_sent", metadata.Sync.ProviderStatus)
	require.Equal(t, time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC), metadata.Sync.SyncedAt)
	require.Equal(t, "app", metadata.Core["channel"])
	require.Contains(t, metadata.Core, "nested")

	encoded, err := json.Marshal(metadata)
	require.NoError(t, err)
	require.JSONEq(t, string(payload), string(encoded))
}
