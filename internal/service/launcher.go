package service

import (
	"context"

	"stayscout/internal/domain"
	"stayscout/internal/logger"
	"stayscout/internal/repository"
)

// Launcher starts scraping runs in the background for the API layer. At most
// one job runs at a time; the check is advisory (read then create), which is
// fine for human-triggered runs.
type Launcher struct {
	orchestrator *Orchestrator
	jobs         *repository.JobRepository
}

// NewLauncher creates a Launcher.
func NewLauncher(orchestrator *Orchestrator, jobs *repository.JobRepository) *Launcher {
	return &Launcher{orchestrator: orchestrator, jobs: jobs}
}

// StartLinkScraping starts a background discovery run.
func (l *Launcher) StartLinkScraping(ctx context.Context, force bool) (*domain.ScrapeJob, error) {
	return l.start(ctx, "Hotel links scraping job", func(runCtx context.Context, jobID uint) error {
		return l.orchestrator.RunLinkScraping(runCtx, jobID, force)
	})
}

// StartHotelScraping starts a background detail-scraping run over the links
// in csvPath (the default links ledger when empty).
func (l *Launcher) StartHotelScraping(ctx context.Context, csvPath string) (*domain.ScrapeJob, error) {
	return l.start(ctx, "Hotel data scraping job", func(runCtx context.Context, jobID uint) error {
		return l.orchestrator.RunHotelScraping(runCtx, jobID, csvPath)
	})
}

// StartCompleteScraping starts a background discovery-then-detail run.
func (l *Launcher) StartCompleteScraping(ctx context.Context, updateLinks bool) (*domain.ScrapeJob, error) {
	return l.start(ctx, "Complete scraping job", func(runCtx context.Context, jobID uint) error {
		return l.orchestrator.RunCompleteScraping(runCtx, jobID, updateLinks)
	})
}

// StartImport starts a background ledger import.
func (l *Launcher) StartImport(ctx context.Context, path string) (*domain.ScrapeJob, error) {
	return l.start(ctx, "Ledger import job", func(runCtx context.Context, jobID uint) error {
		_, err := l.orchestrator.ImportLedger(runCtx, jobID, path)
		return err
	})
}

func (l *Launcher) start(ctx context.Context, description string, run func(context.Context, uint) error) (*domain.ScrapeJob, error) {
	running, err := l.jobs.HasRunning(ctx)
	if err != nil {
		return nil, err
	}
	if running {
		return nil, ErrJobAlreadyRunning
	}

	job, err := l.jobs.Create(ctx, description)
	if err != nil {
		return nil, err
	}

	// The run outlives the HTTP request that triggered it.
	go func() {
		runCtx := context.Background()
		if err := run(runCtx, job.ID); err != nil {
			logger.FromContext(runCtx).WithError(err).WithField(logger.FieldJobID, job.ID).Error("background job failed")
		}
	}()

	return job, nil
}
