package dto

type SettlementPingOutput struct {
	OK          bool           `json:"ok"`
	DebugClaims map[string]any `json:"debug_claims,omitempty"`
}

type CreateSettlementDepositInput struct {
	AmountMinor        int64
	DestinationAddress string
	PayerName          string
	PayerTaxNumber     string
}

type CreateSettlementDepositOutput struct {
	ExternalID       string
	CopyPastePayload string
	QRImageURL       string
}

type SettlementDepositStatusOutput struct {
	RawStatus      string
	PayerEUID      string
	PayerName      string
	PayerTaxNumber string
	BankTxID       string
	BlockchainTxID string
	// NotFound marks a status surface gap reported as pending.
	NotFound bool
}
