package dto

import "time"

type RateWindowSnapshot struct {
	EndpointClass    string    `json:"endpoint_class"`
	RateLimit        int       `json:"rate_limit"`
	BurstLimit       int       `json:"burst_limit"`
	DailyLimit       int       `json:"daily_limit"`
	LastRequestAt    time.Time `json:"last_request_at"`
	BurstCount       int       `json:"burst_count"`
	BurstWindowStart time.Time `json:"burst_window_start"`
	DailyCount       int       `json:"daily_count"`
	DailyResetAt     time.Time `json:"daily_reset_at"`
}
