package dto

import "time"

type CreateDepositCommand struct {
	UserID             string
	AmountMinor        int64
	DestinationAddress string
	PayerName          string
	PayerTaxNumber     string
	Metadata           map[string]any
}

type TransactionResource struct {
	ID                 string         `json:"id"`
	ExternalID         *string        `json:"external_id,omitempty"`
	Status             string         `json:"status"`
	AmountMinor        int64          `json:"amount_minor"`
	UserID             string         `json:"user_id"`
	DestinationAddress string         `json:"destination_address"`
	CreatedAt          time.Time      `json:"created_at"`
	ProcessedAt        *time.Time     `json:"processed_at,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Metadata           map[string]any `json:"metadata"`
}

type PaymentPresentation struct {
	CopyPastePayload string `json:"copy_paste_payload"`
	QRImageURL       string `json:"qr_image_url"`
}

type CreateDepositOutput struct {
	Transaction TransactionResource `json:"transaction"`
	Payment     PaymentPresentation `json:"payment"`
}

type GetTransactionQuery struct {
	ID string
}
