// Package digest generates and delivers recurring summary emails for
// leads, driven by per-lead schedules.
package digest

import "time"

// Frequency values accepted on a schedule. Anything else is treated
// as always-due once the matching window opens.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Schedule is one lead's recurring digest configuration. There is at
// most one row per lead.
type Schedule struct {
	ID        string     `json:"id"`
	LeadID    string     `json:"leadId"`
	Time      string     `json:"time"` // HH:mm, wall clock
	Frequency string     `json:"frequency"`
	Enabled   bool       `json:"enabled"`
	LastSent  *time.Time `json:"lastSent"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ScheduleUpdate is a partial update; nil fields are left unchanged.
type ScheduleUpdate struct {
	Enabled   *bool
	Time      string
	Frequency string
}

// HistoryEntry records one delivered digest. LeadName and LeadCompany
// are joined in on read for presentation.
type HistoryEntry struct {
	ID          string    `json:"id"`
	LeadID      string    `json:"leadId"`
	Email       string    `json:"email"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt"`
	LeadName    string    `json:"leadName,omitempty"`
	LeadCompany string    `json:"leadCompany,omitempty"`
}
