package dto

type GetHealthCommand struct{}

type SettlementLivenessOutput struct {
	Alive     bool   `json:"alive"`
	ErrorCode string `json:"error_code,omitempty"`
}

type HealthOutput struct {
	Status     string                    `json:"status"`
	Settlement *SettlementLivenessOutput `json:"settlement,omitempty"`
}
