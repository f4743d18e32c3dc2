package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stayscout/internal/domain"
)

// ErrJobNotRunning is returned by RequestStop when the job is not in a
// stoppable state.
var ErrJobNotRunning = errors.New("job is not running")

// JobRepository handles scrape-job persistence. It is the shared source of
// truth between the API process and the background worker: the worker owns
// all transitions out of PENDING/RUNNING, the API may only request a stop.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job in PENDING state.
func (r *JobRepository) Create(ctx context.Context, message string) (*domain.ScrapeJob, error) {
	job := &domain.ScrapeJob{
		Status:  domain.JobStatusPending,
		Message: message,
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id uint) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List retrieves jobs newest first with pagination.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]domain.ScrapeJob, int64, error) {
	var jobs []domain.ScrapeJob
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// HasRunning reports whether any job is currently RUNNING. The subsequent
// create is not atomic with this check; acceptable for human-triggered runs.
func (r *JobRepository) HasRunning(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).
		Where("status = ?", domain.JobStatusRunning).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkRunning transitions a job to RUNNING. Only the worker owning the run
// calls this.
func (r *JobRepository) MarkRunning(ctx context.Context, id uint, message string) error {
	return r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusRunning,
			"message":    message,
			"updated_at": time.Now().UTC(),
		}).Error
}

// UpdateProgress updates the progress percentage and message of a job.
func (r *JobRepository) UpdateProgress(ctx context.Context, id uint, progress float64, message string) error {
	updates := map[string]interface{}{
		"progress":   progress,
		"updated_at": time.Now().UTC(),
	}
	if message != "" {
		updates["message"] = message
	}
	return r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateCounts updates the unit counters of a job.
func (r *JobRepository) UpdateCounts(ctx context.Context, id uint, urls, scraped, failed int) error {
	return r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"urls_count":    urls,
			"scraped_count": scraped,
			"failed_count":  failed,
			"updated_at":    time.Now().UTC(),
		}).Error
}

// Finish moves a job into a terminal status. A job already in a terminal
// state is left untouched so that an externally requested STOPPED is never
// overwritten by the worker's own completion path.
func (r *JobRepository) Finish(ctx context.Context, id uint, status domain.JobStatus, message string) error {
	return r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).
		Where("id = ? AND status IN ?", id, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusRunning}).
		Updates(map[string]interface{}{
			"status":     status,
			"progress":   progressFor(status),
			"message":    message,
			"updated_at": time.Now().UTC(),
		}).Error
}

func progressFor(status domain.JobStatus) interface{} {
	if status == domain.JobStatusCompleted {
		return 100.0
	}
	return gorm.Expr("progress")
}

// RequestStop flips a RUNNING job to STOPPED. Rejected with ErrJobNotRunning
// for any other state; the job is otherwise untouched.
func (r *JobRepository) RequestStop(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusRunning).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusStopped,
			"message":    "Job stopped by user",
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotRunning
	}
	return nil
}

// ShouldStop is the cooperative-cancellation check polled by workers at safe
// points. A lookup failure is treated as "keep going" so a transient DB error
// cannot kill a run.
func (r *JobRepository) ShouldStop(ctx context.Context, id uint) bool {
	var job domain.ScrapeJob
	if err := r.db.WithContext(ctx).Select("status").First(&job, "id = ?", id).Error; err != nil {
		return false
	}
	switch job.Status {
	case domain.JobStatusStopped, domain.JobStatusCancelled, domain.JobStatusFailed:
		return true
	}
	return false
}

// CountByStatus counts jobs in the given status.
func (r *JobRepository) CountByStatus(ctx context.Context, status domain.JobStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ScrapeJob{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CleanupOld deletes terminal jobs older than the given number of days.
func (r *JobRepository) CleanupOld(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	res := r.db.WithContext(ctx).
		Where("created_at < ? AND status IN ?", cutoff, []domain.JobStatus{
			domain.JobStatusCompleted,
			domain.JobStatusFailed,
			domain.JobStatusStopped,
			domain.JobStatusCancelled,
		}).
		Delete(&domain.ScrapeJob{})
	return res.RowsAffected, res.Error
}
