package domain

import "time"

// JobStatus represents the lifecycle state of a scraping job.
// PENDING and RUNNING are the only non-terminal states.
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusStopped   JobStatus = "STOPPED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s != JobStatusPending && s != JobStatusRunning
}

// ScrapeJob represents one orchestration run and its progress metadata.
// It is owned by the worker driving the run; the API layer reads it and may
// request a stop by flipping the status (see JobRepository.RequestStop).
type ScrapeJob struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Status       JobStatus `gorm:"type:text;default:PENDING;index" json:"status"`
	Progress     float64   `gorm:"default:0" json:"progress"`
	Message      string    `gorm:"type:text" json:"message"`
	URLsCount    int       `gorm:"default:0" json:"urls_count"`
	ScrapedCount int       `gorm:"default:0" json:"scraped_count"`
	FailedCount  int       `gorm:"default:0" json:"failed_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for ScrapeJob.
func (ScrapeJob) TableName() string {
	return "scrape_jobs"
}

// ScrapeLog is a persisted log line attached to a job, written best-effort
// alongside the console/file logs.
type ScrapeLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID     *uint     `gorm:"index" json:"job_id,omitempty"`
	Message   string    `gorm:"type:text" json:"message"`
	LogLevel  string    `gorm:"type:text;default:INFO" json:"log_level"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ScrapeLog.
func (ScrapeLog) TableName() string {
	return "scrape_logs"
}
