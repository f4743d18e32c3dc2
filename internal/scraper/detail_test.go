package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"stayscout/internal/domain"
	"stayscout/internal/ledger"
	"stayscout/internal/repository"
)

type fakeFetcher struct {
	fn    func(ctx context.Context, url string) (string, error)
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(ctx, url)
	}
	return "<html>" + url + "</html>", nil
}

type fakeExtractor struct {
	fn func(html, url string) (*domain.HotelRecord, error)
}

func (f *fakeExtractor) Extract(html, url string) (*domain.HotelRecord, error) {
	if f.fn != nil {
		return f.fn(html, url)
	}
	return &domain.HotelRecord{Title: "فندق", URL: url}, nil
}

type fakeMirror struct{}

func (fakeMirror) MirrorAll(ctx context.Context, urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = "mirrored://" + u
	}
	return out
}

func newTestDetail(t *testing.T, fetcher Fetcher, extractor Extractor, mirror ImageMirror) (*Detail, *ledger.HotelsLedger, *repository.JobRepository) {
	t.Helper()
	db := testDB(t)
	jobs := repository.NewJobRepository(db)
	logs := repository.NewLogRepository(db)
	hotels := ledger.NewHotelsLedger(filepath.Join(t.TempDir(), "hotels.csv"))
	return NewDetail(fetcher, extractor, mirror, hotels, jobs, logs, testScraperConfig()), hotels, jobs
}

func detailLinks(n int) []string {
	links := make([]string, n)
	for i := range links {
		links[i] = fmt.Sprintf("https://example.com/hotel/sa/h%d.ar.html", i)
	}
	return links
}

func TestDetailRun(t *testing.T) {
	d, hotels, jobs := newTestDetail(t, &fakeFetcher{}, &fakeExtractor{}, nil)
	jobID := runningJob(t, jobs)

	scraped, failed, err := d.Run(context.Background(), jobID, detailLinks(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scraped != 3 || failed != 0 {
		t.Errorf("counts: got scraped=%d failed=%d, want 3/0", scraped, failed)
	}

	rows, err := hotels.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("ledger rows: got %d, want 3", len(rows))
	}
	if rows[0]["scraped_at"] == "" {
		t.Error("scraped_at not stamped on record")
	}

	job, err := jobs.GetByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.ScrapedCount != 3 || job.FailedCount != 0 || job.URLsCount != 3 {
		t.Errorf("job counts: %+v", job)
	}
	if job.Progress != 100 {
		t.Errorf("job progress: got %v, want 100", job.Progress)
	}
}

func TestDetailRunCountsFailures(t *testing.T) {
	fetcher := &fakeFetcher{fn: func(ctx context.Context, url string) (string, error) {
		if strings.Contains(url, "h0") {
			return "", errors.New("timeout")
		}
		return "<html/>", nil
	}}
	extractor := &fakeExtractor{fn: func(html, url string) (*domain.HotelRecord, error) {
		if strings.Contains(url, "h1") {
			return nil, errors.New("page has no hotel content")
		}
		return &domain.HotelRecord{Title: "فندق", URL: url}, nil
	}}

	d, hotels, jobs := newTestDetail(t, fetcher, extractor, nil)
	jobID := runningJob(t, jobs)

	scraped, failed, err := d.Run(context.Background(), jobID, detailLinks(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scraped != 1 || failed != 2 {
		t.Errorf("counts: got scraped=%d failed=%d, want 1/2", scraped, failed)
	}

	rows, _ := hotels.ReadAll()
	if len(rows) != 1 {
		t.Errorf("ledger rows: got %d, want 1", len(rows))
	}
	job, _ := jobs.GetByID(context.Background(), jobID)
	if job.FailedCount != 2 {
		t.Errorf("job failed count: got %d, want 2", job.FailedCount)
	}
}

func TestDetailRunStoppedByJobState(t *testing.T) {
	fetcher := &fakeFetcher{}
	d, _, jobs := newTestDetail(t, fetcher, &fakeExtractor{}, nil)
	jobID := runningJob(t, jobs)
	if err := jobs.RequestStop(context.Background(), jobID); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}

	scraped, _, err := d.Run(context.Background(), jobID, detailLinks(5))
	if err != ErrStopped {
		t.Fatalf("Run: got %v, want ErrStopped", err)
	}
	if scraped != 0 || fetcher.calls != 0 {
		t.Errorf("stopped run did work: scraped=%d, fetches=%d", scraped, fetcher.calls)
	}
}

func TestDetailRunStopMidRunKeepsScraped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// The cancel arrives while the second page is being fetched; the first
	// record must survive in the ledger.
	fetcher := &fakeFetcher{fn: func(fctx context.Context, url string) (string, error) {
		if strings.Contains(url, "h1") {
			cancel()
		}
		return "<html/>", nil
	}}

	d, hotels, jobs := newTestDetail(t, fetcher, &fakeExtractor{}, nil)
	jobID := runningJob(t, jobs)

	scraped, _, err := d.Run(ctx, jobID, detailLinks(5))
	if err != ErrStopped {
		t.Fatalf("Run: got %v, want ErrStopped", err)
	}
	if scraped != 1 {
		t.Errorf("scraped before stop: got %d, want 1", scraped)
	}
	rows, _ := hotels.ReadAll()
	if len(rows) != 1 {
		t.Errorf("ledger rows after stop: got %d, want 1", len(rows))
	}
}

func TestDetailRunMirrorsImages(t *testing.T) {
	extractor := &fakeExtractor{fn: func(html, url string) (*domain.HotelRecord, error) {
		return &domain.HotelRecord{
			Title:      "فندق",
			URL:        url,
			ImageLinks: []string{"https://cdn.example.com/a.jpg"},
		}, nil
	}}

	d, hotels, jobs := newTestDetail(t, &fakeFetcher{}, extractor, fakeMirror{})
	jobID := runningJob(t, jobs)

	if _, _, err := d.Run(context.Background(), jobID, detailLinks(1)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rows, _ := hotels.ReadAll()
	if len(rows) != 1 {
		t.Fatalf("ledger rows: got %d, want 1", len(rows))
	}
	if !strings.Contains(rows[0]["image_links"], "mirrored://https://cdn.example.com/a.jpg") {
		t.Errorf("image links not mirrored: %q", rows[0]["image_links"])
	}
}
