package models

import "time"

// SystemMetrics is a point-in-time summary of process counters.
type SystemMetrics struct {
	CacheHitRatio    float64   `json:"cache_hit_ratio"`
	CacheHits        uint64    `json:"cache_hits"`
	CacheMisses      uint64    `json:"cache_misses"`
	RequestsTotal    uint64    `json:"requests_total"`
	AverageRequestMs float64   `json:"average_request_ms"`
	WriteTxTotal     uint64    `json:"write_tx_total"`
	AverageWriteTxMs float64   `json:"average_write_tx_ms"`
	Goroutines       int       `json:"goroutines"`
	GeneratedAt      time.Time `json:"generated_at"`
}
