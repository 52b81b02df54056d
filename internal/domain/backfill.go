package domain

import "time"

// RunStatus represents the status of a backfill run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// BackfillRun records one execution of the fairy backfill and its counters.
type BackfillRun struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	Status      RunStatus  `gorm:"type:text;default:running" json:"status"`
	DryRun      bool       `json:"dry_run"`
	Total       int        `gorm:"default:0" json:"total"`
	Published   int        `gorm:"default:0" json:"published"`
	Skipped     int        `gorm:"default:0" json:"skipped"`
	Failed      int        `gorm:"default:0" json:"failed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ErrorLog    string     `json:"error_log,omitempty"`
}

// TableName returns the database table name for BackfillRun.
func (BackfillRun) TableName() string {
	return "backfill_runs"
}
