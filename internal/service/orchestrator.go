// Package service coordinates scraping runs: link discovery, detail
// scraping, and ledger import, all tracked through database-backed jobs.
package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stayscout/internal/config"
	"stayscout/internal/domain"
	"stayscout/internal/importer"
	"stayscout/internal/ledger"
	"stayscout/internal/logger"
	"stayscout/internal/repository"
	"stayscout/internal/scraper"
	"stayscout/internal/searchapi"
)

// ErrJobAlreadyRunning is returned when a new run is requested while another
// job is RUNNING. One run at a time keeps the browser and the rate limits
// sane.
var ErrJobAlreadyRunning = errors.New("another scraping job is already running")

const linksFileName = "booking_links.csv"

// Orchestrator owns the scraping pipeline. The API layer starts runs through
// it; the CLI drives it directly.
type Orchestrator struct {
	cfg       *config.Config
	jobs      *repository.JobRepository
	logs      *repository.LogRepository
	search    searchapi.SearchClient
	fetcher   scraper.Fetcher
	extractor scraper.Extractor
	mirror    scraper.ImageMirror
	importer  *importer.Importer
}

// NewOrchestrator wires an orchestrator. mirror may be nil when object
// storage is disabled.
func NewOrchestrator(cfg *config.Config, jobs *repository.JobRepository, logs *repository.LogRepository, search searchapi.SearchClient, fetcher scraper.Fetcher, extractor scraper.Extractor, mirror scraper.ImageMirror, imp *importer.Importer) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		jobs:      jobs,
		logs:      logs,
		search:    search,
		fetcher:   fetcher,
		extractor: extractor,
		mirror:    mirror,
		importer:  imp,
	}
}

// LinksPath returns the well-known links ledger location. Discovery always
// writes here so detail scraping finds it without coordination.
func (o *Orchestrator) LinksPath() string {
	return filepath.Join(o.cfg.Scraper.CSVDir, linksFileName)
}

func (o *Orchestrator) newHotelsPath() string {
	name := fmt.Sprintf("booking_hotels_%s.csv", time.Now().Format("20060102_150405"))
	return filepath.Join(o.cfg.Scraper.CSVDir, name)
}

// ReadTargets loads the targets file, one place name per line. Blank and
// near-blank lines are skipped.
func (o *Orchestrator) ReadTargets() ([]string, error) {
	f, err := os.Open(o.cfg.Scraper.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	var targets []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) > 2 {
			targets = append(targets, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets in %s", o.cfg.Scraper.TargetsFile)
	}
	return targets, nil
}

// HasExistingLinks reports whether a previous discovery run left usable
// links.
func (o *Orchestrator) HasExistingLinks() bool {
	has, err := ledger.NewLinksLedger(o.LinksPath()).HasData()
	return err == nil && has
}

// RunLinkScraping executes a discovery run under the given job. With force
// unset, an existing non-empty links ledger short-circuits the run.
func (o *Orchestrator) RunLinkScraping(ctx context.Context, jobID uint, force bool) error {
	return o.runLinkScraping(ctx, jobID, force, true)
}

// runLinkScraping is the discovery stage. finalize controls whether success
// closes the job: the composite run keeps the job RUNNING across the stage
// boundary so a job never leaves a terminal state again.
func (o *Orchestrator) runLinkScraping(ctx context.Context, jobID uint, force, finalize bool) error {
	ctx = logger.SetJobID(logger.SetComponent(ctx, "discovery"), jobID)
	log := logger.FromContext(ctx)

	if !force && o.HasExistingLinks() {
		log.Info("existing links found, skipping discovery")
		if !finalize {
			return o.jobs.MarkRunning(ctx, jobID, "Existing links found, discovery skipped")
		}
		return o.jobs.Finish(ctx, jobID, domain.JobStatusCompleted, "Existing links found, discovery skipped")
	}

	targets, err := o.ReadTargets()
	if err != nil {
		o.finishFailed(ctx, jobID, err)
		return err
	}

	if err := o.jobs.MarkRunning(ctx, jobID, fmt.Sprintf("Discovering links for %d targets", len(targets))); err != nil {
		return err
	}
	o.logs.Append(ctx, &jobID, "INFO", fmt.Sprintf("Starting link scraping with %d targets", len(targets)))

	links := ledger.NewLinksLedger(o.LinksPath())
	discovery := scraper.NewDiscovery(o.search, links, o.jobs, o.logs, &o.cfg.Scraper)

	total, err := discovery.Run(ctx, jobID, targets)
	switch {
	case err == scraper.ErrStopped:
		log.WithField(logger.FieldCount, total).Warn("discovery stopped")
		// A user stop already set STOPPED and the guarded Finish is a no-op;
		// this covers a stop that came from context cancellation.
		o.markStopped(jobID, "Link scraping stopped")
		return nil
	case err != nil:
		o.finishFailed(ctx, jobID, err)
		return err
	}

	msg := fmt.Sprintf("Discovery completed, %d links found", total)
	o.logs.Append(ctx, &jobID, "INFO", msg)
	if !finalize {
		return o.jobs.UpdateProgress(ctx, jobID, 100, msg)
	}
	return o.jobs.Finish(ctx, jobID, domain.JobStatusCompleted, msg)
}

// RunHotelScraping scrapes every link in the given links ledger (the default
// one when csvPath is empty), writes the records to a fresh hotels ledger and
// imports them into the database.
func (o *Orchestrator) RunHotelScraping(ctx context.Context, jobID uint, csvPath string) error {
	ctx = logger.SetJobID(logger.SetComponent(ctx, "detail"), jobID)
	log := logger.FromContext(ctx)

	if csvPath == "" {
		csvPath = o.LinksPath()
	}
	urls, err := ledger.NewLinksLedger(csvPath).ReadLinks()
	if err != nil {
		o.finishFailed(ctx, jobID, err)
		return err
	}
	if len(urls) == 0 {
		err := fmt.Errorf("no links in %s", csvPath)
		o.finishFailed(ctx, jobID, err)
		return err
	}

	if err := o.jobs.MarkRunning(ctx, jobID, fmt.Sprintf("Scraping %d hotels", len(urls))); err != nil {
		return err
	}
	if err := o.jobs.UpdateCounts(ctx, jobID, len(urls), 0, 0); err != nil {
		log.WithError(err).Warn("failed to update job counts")
	}
	o.logs.Append(ctx, &jobID, "INFO", fmt.Sprintf("Starting hotel scraping with %d URLs", len(urls)))

	hotelsPath := o.newHotelsPath()
	hotels := ledger.NewHotelsLedger(hotelsPath)
	detail := scraper.NewDetail(o.fetcher, o.extractor, o.mirror, hotels, o.jobs, o.logs, &o.cfg.Scraper)

	scraped, failed, err := detail.Run(ctx, jobID, urls)
	switch {
	case err == scraper.ErrStopped:
		log.WithField(logger.FieldCount, scraped).Warn("hotel scraping stopped")
		// Everything scraped so far is still worth importing.
		if scraped > 0 {
			if _, err := o.importer.ImportFile(context.Background(), hotelsPath); err != nil {
				log.WithError(err).Error("failed to import partial ledger")
			}
		}
		o.markStopped(jobID, "Hotel scraping stopped")
		return nil
	case err != nil:
		o.finishFailed(ctx, jobID, err)
		return err
	}

	res, err := o.importer.ImportFile(ctx, hotelsPath)
	if err != nil {
		o.finishFailed(ctx, jobID, err)
		return err
	}

	msg := fmt.Sprintf("Completed: %d scraped, %d failed, %d imported", scraped, failed, res.Imported)
	o.logs.Append(ctx, &jobID, "INFO", msg)
	return o.jobs.Finish(ctx, jobID, domain.JobStatusCompleted, msg)
}

// RunCompleteScraping runs discovery followed by detail scraping under a
// single job. updateLinks forces a fresh discovery even when links exist. The
// job stays RUNNING between the stages; only the detail stage (or an error or
// stop on the way there) writes a terminal status.
func (o *Orchestrator) RunCompleteScraping(ctx context.Context, jobID uint, updateLinks bool) error {
	if err := o.runLinkScraping(ctx, jobID, updateLinks, false); err != nil {
		return err
	}
	if stopped, _ := o.jobStopped(ctx, jobID); stopped {
		return nil
	}
	return o.RunHotelScraping(ctx, jobID, "")
}

// ImportLedger imports a hotels ledger under the given job.
func (o *Orchestrator) ImportLedger(ctx context.Context, jobID uint, path string) (importer.Result, error) {
	ctx = logger.SetJobID(logger.SetComponent(ctx, "import"), jobID)

	if err := o.jobs.MarkRunning(ctx, jobID, fmt.Sprintf("Importing %s", filepath.Base(path))); err != nil {
		return importer.Result{}, err
	}
	res, err := o.importer.ImportFile(ctx, path)
	if err != nil {
		o.finishFailed(ctx, jobID, err)
		return res, err
	}
	msg := fmt.Sprintf("Imported %d hotels, %d failed", res.Imported, res.Failed)
	o.logs.Append(ctx, &jobID, "INFO", msg)
	return res, o.jobs.Finish(ctx, jobID, domain.JobStatusCompleted, msg)
}

// ListLedgers returns the CSV files in the configured ledger directory,
// newest first.
func (o *Orchestrator) ListLedgers() ([]ledger.FileInfo, error) {
	return ledger.ListFiles(o.cfg.Scraper.CSVDir)
}

// markStopped records a stop that did not come through RequestStop. It runs
// on a fresh context because the run's own context may already be cancelled.
func (o *Orchestrator) markStopped(jobID uint, message string) {
	if err := o.jobs.Finish(context.Background(), jobID, domain.JobStatusStopped, message); err != nil {
		logger.FromContext(context.Background()).WithError(err).Error("failed to mark job stopped")
	}
}

func (o *Orchestrator) finishFailed(ctx context.Context, jobID uint, cause error) {
	logger.FromContext(ctx).WithError(cause).Error("scraping job failed")
	o.logs.Append(ctx, &jobID, "ERROR", cause.Error())
	if err := o.jobs.Finish(ctx, jobID, domain.JobStatusFailed, cause.Error()); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to mark job failed")
	}
}

func (o *Orchestrator) jobStopped(ctx context.Context, jobID uint) (bool, error) {
	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	return job.Status.Terminal() && job.Status != domain.JobStatusCompleted, nil
}
