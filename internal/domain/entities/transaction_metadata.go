package entities

import (
	"encoding/json"
	"strings"
	"time"
)

// Persisted metadata keys. Keys outside this set live in Core untouched.
const (
	MetadataKeyPayerEUID      = "payerEUID"
	MetadataKeyPayerName      = "payerName"
	MetadataKeyPayerTaxNumber = "payerTaxNumber"
	MetadataKeyBankTxID       = "bankTxId"
	MetadataKeyBlockchainTxID = "blockchainTxID"
	MetadataKeySyncedAt       = "syncedAt"
	MetadataKeyProviderStatus = "providerStatus"
	MetadataKeySyncSource     = "syncSource"
)

type ProviderAudit struct {
	PayerEUID      string
	PayerName      string
	PayerTaxNumber string
	BankTxID       string
	BlockchainTxID string
}

type SyncAudit struct {
	SyncedAt       time.Time
	ProviderStatus string
	Source         string
}

// TransactionMetadata splits the persisted metadata blob into prior keys,
// provider audit fields and the last sync record.
type TransactionMetadata struct {
	Core     map[string]any
	Provider ProviderAudit
	Sync     SyncAudit
}

// MergeMetadata combines two metadata values. Existing core keys and
// non-empty provider fields in base are kept; patch only fills gaps. The sync
// record with the later SyncedAt wins.
func MergeMetadata(base, patch TransactionMetadata) TransactionMetadata {
	merged := TransactionMetadata{
		Core:     cloneMetadata(base.Core),
		Provider: base.Provider,
		Sync:     base.Sync,
	}
	for key, value := range patch.Core {
		if _, exists := merged.Core[key]; exists {
			continue
		}
		merged.Core[key] = value
	}

	merged.Provider.PayerEUID = firstNonEmpty(base.Provider.PayerEUID, patch.Provider.PayerEUID)
	merged.Provider.PayerName = firstNonEmpty(base.Provider.PayerName, patch.Provider.PayerName)
	merged.Provider.PayerTaxNumber = firstNonEmpty(base.Provider.PayerTaxNumber, patch.Provider.PayerTaxNumber)
	merged.Provider.BankTxID = firstNonEmpty(base.Provider.BankTxID, patch.Provider.BankTxID)
	merged.Provider.BlockchainTxID = firstNonEmpty(base.Provider.BlockchainTxID, patch.Provider.BlockchainTxID)

	if patch.Sync.SyncedAt.After(base.Sync.SyncedAt) {
		merged.Sync = patch.Sync
	}

	return merged
}

func (m TransactionMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Flatten())
}

func (m *TransactionMetadata) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MetadataFromMap(raw)
	return nil
}

// Flatten renders the persisted key/value form.
func (m TransactionMetadata) Flatten() map[string]any {
	out := cloneMetadata(m.Core)
	setIfNotEmpty(out, MetadataKeyPayerEUID, m.Provider.PayerEUID)
	setIfNotEmpty(out, MetadataKeyPayerName, m.Provider.PayerName)
	setIfNotEmpty(out, MetadataKeyPayerTaxNumber, m.Provider.PayerTaxNumber)
	setIfNotEmpty(out, MetadataKeyBankTxID, m.Provider.BankTxID)
	setIfNotEmpty(out, MetadataKeyBlockchainTxID, m.Provider.BlockchainTxID)
	if !m.Sync.SyncedAt.IsZero() {
		out[MetadataKeySyncedAt] = m.Sync.SyncedAt.UTC().Format(time.RFC3339Nano)
	}
	setIfNotEmpty(out, MetadataKeyProviderStatus, m.Sync.ProviderStatus)
	setIfNotEmpty(out, MetadataKeySyncSource, m.Sync.Source)
	return out
}

func MetadataFromMap(raw map[string]any) TransactionMetadata {
	metadata := TransactionMetadata{Core: map[string]any{}}
	for key, value := range raw {
		switch key {
		case MetadataKeyPayerEUID:
			metadata.Provider.PayerEUID = stringValue(value)
		case MetadataKeyPayerName:
			metadata.Provider.PayerName = stringValue(value)
		case MetadataKeyPayerTaxNumber:
			metadata.Provider.PayerTaxNumber = stringValue(value)
		case MetadataKeyBankTxID:
			metadata.Provider.BankTxID = stringValue(value)
		case MetadataKeyBlockchainTxID:
			metadata.Provider.BlockchainTxID = stringValue(value)
		case MetadataKeySyncedAt:
			parsed, err := time.Parse(time.RFC3339Nano, stringValue(value))
			if err == nil {
				metadata.Sync.SyncedAt = parsed.UTC()
			}
		case MetadataKeyProviderStatus:
			metadata.Sync.ProviderStatus = stringValue(value)
		case MetadataKeySyncSource:
			metadata.Sync.Source = stringValue(value)
		default:
			metadata.Core[key] = value
		}
	}
	return metadata
}

func cloneMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}

	copyMap := make(map[string]any, len(metadata))
	for key, value := range metadata {
		copyMap[key] = value
	}

	return copyMap
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func setIfNotEmpty(target map[string]any, key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	target[key] = value
}

func stringValue(value any) string {
	raw, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}
