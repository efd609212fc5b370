package storage

import (
	"time"

	"gorm.io/gorm"
)

// SnapshotRecord is one published snapshot, kept locally so the HTTP API
// can serve history without replaying backend queries.
type SnapshotRecord struct {
	gorm.Model
	Timestamp time.Time `gorm:"index" json:"timestamp"`

	// Headline figures, denormalized for range queries
	Yesterday    float64 `json:"yesterday_kwh"`
	CurrentWeek  float64 `json:"current_week_kwh"`
	CurrentMonth float64 `json:"current_month_kwh"`
	CurrentYear  float64 `json:"current_year_kwh"`
	DailyCost    float64 `json:"daily_cost_eur"`

	TempoToday   string  `json:"tempo_today"`
	PowerPeakKVA float64 `json:"power_peak_kva"`
	PeakExceeded bool    `json:"peak_exceeded"`

	// Full published payload, verbatim
	Payload string `json:"payload"`
}
