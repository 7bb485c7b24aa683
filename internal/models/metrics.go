package models

import "time"

// MetricsSnapshot is a JSON-friendly summary of process metrics.
type MetricsSnapshot struct {
	RunsTotal                uint64    `json:"runs_total"`
	RunsFailed               uint64    `json:"runs_failed"`
	LastRunDurationMs        float64   `json:"last_run_duration_ms"`
	LastRunOutputRecords     int       `json:"last_run_output_records"`
	EventsDroppedTotal       uint64    `json:"events_dropped_total"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
