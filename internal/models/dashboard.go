package models

import "time"

// DashboardSummary aggregates a member's headline numbers for the home screen.
type DashboardSummary struct {
	UserID           string     `json:"user_id"`
	TotalCheckIns    int        `json:"total_check_ins"`
	CurrentStreak    int        `json:"current_streak_days"`
	LatestWeightKg   *float64   `json:"latest_weight_kg,omitempty"`
	LatestWeighDate  *time.Time `json:"latest_weigh_date,omitempty"`
	WeightDeltaKg    *float64   `json:"weight_delta_kg,omitempty"`
	WeekQuota        WeekQuota  `json:"week_quota"`
	TodayClasses     int        `json:"today_classes"`
	ActiveEnrollment int        `json:"active_enrollments"`
	GeneratedAt      time.Time  `json:"generated_at"`
}

// SystemMetrics is an aggregated runtime snapshot for the ops endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
