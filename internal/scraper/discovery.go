package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stayscout/internal/config"
	"stayscout/internal/ledger"
	"stayscout/internal/logger"
	"stayscout/internal/repository"
	"stayscout/internal/searchapi"
)

// Discovery walks the search API for every (target, sorter) pair and records
// each distinct detail-page link in the links ledger. Different sorters
// surface different slices of large result sets, so the union across sorters
// finds hotels a single ordering would miss.
type Discovery struct {
	search  searchapi.SearchClient
	links   *ledger.LinksLedger
	jobs    *repository.JobRepository
	logs    *repository.LogRepository
	cfg     *config.ScraperConfig
	limiter *rate.Limiter
}

// NewDiscovery creates a discovery engine.
func NewDiscovery(search searchapi.SearchClient, links *ledger.LinksLedger, jobs *repository.JobRepository, logs *repository.LogRepository, cfg *config.ScraperConfig) *Discovery {
	return &Discovery{
		search:  search,
		links:   links,
		jobs:    jobs,
		logs:    logs,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.PageDelay), 1),
	}
}

// Run discovers links for all targets. It returns the number of distinct
// links written, and ErrStopped when the job was stopped mid-run. Links
// written before a stop stay in the ledger.
func (d *Discovery) Run(ctx context.Context, jobID uint, targets []string) (int, error) {
	seen := NewFingerprintSet()
	log := logger.FromContext(ctx)

	for i, target := range targets {
		if d.shouldStop(ctx, jobID) {
			return seen.Len(), ErrStopped
		}

		destType := "CITY"
		if strings.Contains(target, d.cfg.CountryName) {
			destType = "COUNTRY"
		}

		destID, _, err := d.search.ResolveDestination(ctx, target)
		if err != nil {
			log.WithError(err).WithField(logger.FieldTarget, target).Warn("could not resolve destination, skipping target")
			d.logs.Append(ctx, &jobID, "WARN", fmt.Sprintf("Could not resolve destination for target: %s", target))
			continue
		}

		for _, sorter := range d.cfg.Sorters {
			if d.shouldStop(ctx, jobID) {
				return seen.Len(), ErrStopped
			}
			if err := d.runPair(ctx, jobID, target, destID, destType, sorter, seen); err != nil {
				if err == ErrStopped {
					return seen.Len(), err
				}
				// A failed pair ends that pair only; the run continues.
				log.WithError(err).WithFields(logger.Fields{
					logger.FieldTarget: target,
					logger.FieldSorter: sorter,
				}).Error("discovery pair failed")
				d.logs.Append(ctx, &jobID, "ERROR", fmt.Sprintf("Error processing target %s with sorter %s: %v", target, sorter, err))
			}
		}

		progress := float64(i+1) / float64(len(targets)) * 100
		if err := d.jobs.UpdateProgress(ctx, jobID, progress, fmt.Sprintf("Processed target %d/%d", i+1, len(targets))); err != nil {
			log.WithError(err).Warn("failed to update job progress")
		}
		if err := d.jobs.UpdateCounts(ctx, jobID, seen.Len(), 0, 0); err != nil {
			log.WithError(err).Warn("failed to update job counts")
		}

		if err := sleepCtx(ctx, d.cfg.TargetDelay); err != nil {
			return seen.Len(), err
		}
	}

	return seen.Len(), nil
}

// runPair pages through one (target, sorter) combination.
func (d *Discovery) runPair(ctx context.Context, jobID uint, target string, destID int, destType, sorter string, seen *FingerprintSet) error {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldTarget: target,
		logger.FieldSorter: sorter,
	})

	offset := 0
	for page := 1; ; page++ {
		if d.shouldStop(ctx, jobID) {
			return ErrStopped
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}

		links, total, err := d.search.SearchPage(ctx, searchapi.PageQuery{
			Target:   target,
			DestID:   destID,
			DestType: destType,
			Sorter:   sorter,
			Offset:   offset,
			PageSize: d.cfg.PageSize,
		})
		if err != nil {
			return err
		}

		if len(links) == 0 {
			log.WithField(logger.FieldPage, page).Debug("empty page, pair done")
			return nil
		}

		newCount := 0
		for _, link := range links {
			if !seen.Add(link) {
				continue
			}
			if err := d.links.Append(page, link, target); err != nil {
				return fmt.Errorf("failed to append link: %w", err)
			}
			newCount++
		}
		log.WithFields(logger.Fields{
			logger.FieldPage:   page,
			logger.FieldOffset: offset,
			logger.FieldCount:  newCount,
		}).Info("page processed")

		offset += d.cfg.PageSize
		if offset > total {
			log.Debug("offset past reported total, pair done")
			return nil
		}
		if page >= d.cfg.MaxPages {
			log.Warn("page cap reached, pair done")
			return nil
		}
	}
}

func (d *Discovery) shouldStop(ctx context.Context, jobID uint) bool {
	if ctx.Err() != nil {
		return true
	}
	return d.jobs.ShouldStop(ctx, jobID)
}

// sleepCtx waits for the duration unless the context ends first.
func sleepCtx(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
