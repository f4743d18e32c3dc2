package scraper

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"stayscout/internal/config"
	"stayscout/internal/domain"
	"stayscout/internal/ledger"
	"stayscout/internal/logger"
	"stayscout/internal/repository"
)

// Fetcher retrieves the rendered HTML of a detail page. The production
// implementation drives a headless browser; tests supply a canned one.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor parses detail-page HTML into a hotel record. Extraction is
// best-effort per field; it fails only when the page yields nothing usable.
type Extractor interface {
	Extract(html, url string) (*domain.HotelRecord, error)
}

// ImageMirror rewrites image links, uploading the originals to object
// storage. A disabled mirror returns the input unchanged.
type ImageMirror interface {
	MirrorAll(ctx context.Context, urls []string) []string
}

// Detail walks discovered links, scrapes each detail page and appends the
// records to the hotels ledger. A failed item is counted and skipped; the run
// itself fails only on ledger write errors.
type Detail struct {
	fetcher   Fetcher
	extractor Extractor
	mirror    ImageMirror
	hotels    *ledger.HotelsLedger
	jobs      *repository.JobRepository
	logs      *repository.LogRepository
	cfg       *config.ScraperConfig
	limiter   *rate.Limiter
}

// NewDetail creates a detail scraping driver. mirror may be nil.
func NewDetail(fetcher Fetcher, extractor Extractor, mirror ImageMirror, hotels *ledger.HotelsLedger, jobs *repository.JobRepository, logs *repository.LogRepository, cfg *config.ScraperConfig) *Detail {
	return &Detail{
		fetcher:   fetcher,
		extractor: extractor,
		mirror:    mirror,
		hotels:    hotels,
		jobs:      jobs,
		logs:      logs,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Every(cfg.ItemDelay), 1),
	}
}

// Run scrapes every link in order. It returns the scraped and failed counts,
// and ErrStopped when the job was stopped mid-run; records appended before
// the stop stay in the ledger.
func (d *Detail) Run(ctx context.Context, jobID uint, links []string) (scraped, failed int, err error) {
	log := logger.FromContext(ctx)
	total := len(links)

	for i, url := range links {
		if d.shouldStop(ctx, jobID) {
			return scraped, failed, ErrStopped
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return scraped, failed, err
		}

		itemLog := log.WithField(logger.FieldURL, url)
		start := time.Now()

		html, err := d.fetcher.Fetch(ctx, url)
		if err != nil {
			failed++
			itemLog.WithError(err).Error("failed to fetch detail page")
			d.logs.Append(ctx, &jobID, "ERROR", fmt.Sprintf("Error scraping %s: %v", url, err))
			d.updateJob(ctx, jobID, i+1, total, scraped, failed)
			continue
		}

		// The page may have taken a while to render; honor a stop that
		// arrived during the fetch before doing more work.
		if d.shouldStop(ctx, jobID) {
			return scraped, failed, ErrStopped
		}

		rec, err := d.extractor.Extract(html, url)
		if err != nil {
			failed++
			itemLog.WithError(err).Error("failed to extract hotel data")
			d.logs.Append(ctx, &jobID, "ERROR", fmt.Sprintf("Error extracting %s: %v", url, err))
			d.updateJob(ctx, jobID, i+1, total, scraped, failed)
			continue
		}
		rec.ScrapedAt = time.Now().UTC()

		if d.mirror != nil && len(rec.ImageLinks) > 0 {
			rec.ImageLinks = d.mirror.MirrorAll(ctx, rec.ImageLinks)
		}

		if err := d.hotels.Append(rec); err != nil {
			return scraped, failed, fmt.Errorf("failed to append hotel record: %w", err)
		}
		scraped++

		logger.With(logger.Fields{
			logger.FieldURL:        url,
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
		}).Info(ctx, "hotel scraped (%d/%d)", i+1, total)
		d.updateJob(ctx, jobID, i+1, total, scraped, failed)
	}

	return scraped, failed, nil
}

func (d *Detail) updateJob(ctx context.Context, jobID uint, done, total, scraped, failed int) {
	log := logger.FromContext(ctx)
	progress := 0.0
	if total > 0 {
		progress = float64(done) / float64(total) * 100
	}
	if err := d.jobs.UpdateProgress(ctx, jobID, progress, fmt.Sprintf("Scraped %d/%d hotels", done, total)); err != nil {
		log.WithError(err).Warn("failed to update job progress")
	}
	if err := d.jobs.UpdateCounts(ctx, jobID, total, scraped, failed); err != nil {
		log.WithError(err).Warn("failed to update job counts")
	}
}

func (d *Detail) shouldStop(ctx context.Context, jobID uint) bool {
	if ctx.Err() != nil {
		return true
	}
	return d.jobs.ShouldStop(ctx, jobID)
}
