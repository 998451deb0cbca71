package model

import "time"

// CacheEntry describes one cached item for stats/introspection purposes.
type CacheEntry struct {
	Key        string    `json:"key"`
	SizeBytes  uint64    `json:"size_bytes"`
	TypeTag    string    `json:"type_tag"`
	LastAccess time.Time `json:"last_access"`
}

// BackgroundJob is a long-running task tracked for observability.
type BackgroundJob struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	StartTime       time.Time `json:"start_time"`
	LastUpdate      time.Time `json:"last_update"`
	Progress        *string   `json:"progress,omitempty"`
	TotalItems      *int      `json:"total_items,omitempty"`
	CompletedItems  *int      `json:"completed_items,omitempty"`
	Finished        bool      `json:"finished"`
}

// CompletionPercent derives the completion percentage, or nil when the
// job doesn't report totals.
func (j BackgroundJob) CompletionPercent() *float64 {
	if j.TotalItems == nil || j.CompletedItems == nil || *j.TotalItems <= 0 {
		return nil
	}
	pct := float64(*j.CompletedItems) / float64(*j.TotalItems) * 100
	return &pct
}
