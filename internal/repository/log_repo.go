package repository

import (
	"context"

	"gorm.io/gorm"

	"stayscout/internal/domain"
	"stayscout/internal/logger"
)

// LogRepository appends scrape log rows. Appends are best effort: a failed
// insert is logged and swallowed so that bookkeeping can never fail a run.
type LogRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new LogRepository.
func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Append records a log line for a job.
func (r *LogRepository) Append(ctx context.Context, jobID *uint, level, message string) {
	row := &domain.ScrapeLog{
		JobID:    jobID,
		LogLevel: level,
		Message:  message,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to append scrape log")
	}
}

// ListByJob retrieves the log rows of a job oldest first.
func (r *LogRepository) ListByJob(ctx context.Context, jobID uint, limit int) ([]domain.ScrapeLog, error) {
	var rows []domain.ScrapeLog
	q := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
