package model

import "time"

// Report frequencies accepted by ScheduledReport.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// ScheduledReport is a recurring report definition. LastSent is updated only
// after a report body has been successfully produced, so a failed generation
// is retried on the next cycle.
type ScheduledReport struct {
	ID        string    `json:"id"` // UUID v4
	UserID    string    `json:"userId"`
	Frequency string    `json:"frequency"`         // daily, weekly or monthly
	LinkIDs   []string  `json:"linkIds,omitempty"` // Optional subset filter
	LastSent  time.Time `json:"lastSent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportData is the computed output of an aggregation, consumed directly by
// chart rendering and the external HTML/PDF renderers.
type ReportData struct {
	TotalClicks int64             `json:"totalClicks"`
	Links       []LinkStats       `json:"links"`
	Series      []TimeSeriesPoint `json:"series"`
	Period      ReportPeriod      `json:"period"`
}

// ReportPeriod is the half-open [Start, End) window of a report.
type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LinkStats is the per-link breakdown within a report window.
type LinkStats struct {
	ID           string           `json:"id"`
	ShortCode    string           `json:"shortCode"`
	Title        string           `json:"title,omitempty"`
	Clicks       int64            `json:"clicks"`
	CountryStats map[string]int64 `json:"countryStats"`
	DeviceStats  map[string]int64 `json:"deviceStats"`
}

// TimeSeriesPoint is one bucket of the report's click series. Bucket labels
// are "2006-01-02" for daily buckets and "2006-01-02 15:00" for hourly ones.
type TimeSeriesPoint struct {
	Bucket string `json:"bucket"`
	Value  int64  `json:"value"`
}
