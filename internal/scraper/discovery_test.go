package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stayscout/internal/config"
	"stayscout/internal/ledger"
	"stayscout/internal/repository"
	"stayscout/internal/searchapi"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testScraperConfig(sorters ...string) *config.ScraperConfig {
	if len(sorters) == 0 {
		sorters = []string{"popularity"}
	}
	return &config.ScraperConfig{
		CountryName: "المملكة العربية السعودية",
		Sorters:     sorters,
		PageSize:    100,
		MaxPages:    50,
	}
}

func runningJob(t *testing.T, jobs *repository.JobRepository) uint {
	t.Helper()
	ctx := context.Background()
	job, err := jobs.Create(ctx, "test job")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := jobs.MarkRunning(ctx, job.ID, "running"); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	return job.ID
}

// fakeSearch is a scripted SearchClient. It records every page request so
// tests can assert on pagination behavior.
type fakeSearch struct {
	resolveErr error
	page       func(q searchapi.PageQuery) ([]string, int, error)
	calls      []searchapi.PageQuery
}

func (f *fakeSearch) ResolveDestination(ctx context.Context, name string) (int, string, error) {
	if f.resolveErr != nil {
		return 0, "", f.resolveErr
	}
	return 1234, "city", nil
}

func (f *fakeSearch) SearchPage(ctx context.Context, q searchapi.PageQuery) ([]string, int, error) {
	f.calls = append(f.calls, q)
	return f.page(q)
}

func pageLinks(offset, n int) []string {
	links := make([]string, n)
	for i := 0; i < n; i++ {
		links[i] = fmt.Sprintf("https://example.com/hotel/sa/h%d.ar.html", offset+i)
	}
	return links
}

func newTestDiscovery(t *testing.T, search searchapi.SearchClient, cfg *config.ScraperConfig) (*Discovery, *ledger.LinksLedger, *repository.JobRepository, *repository.LogRepository) {
	t.Helper()
	db := testDB(t)
	jobs := repository.NewJobRepository(db)
	logs := repository.NewLogRepository(db)
	links := ledger.NewLinksLedger(filepath.Join(t.TempDir(), "links.csv"))
	return NewDiscovery(search, links, jobs, logs, cfg), links, jobs, logs
}

func TestDiscoveryPagination(t *testing.T) {
	// 250 results at 100 per page: two full pages, a partial page, and no
	// request for a fourth.
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		switch q.Offset {
		case 0:
			return pageLinks(0, 100), 250, nil
		case 100:
			return pageLinks(100, 100), 250, nil
		case 200:
			return pageLinks(200, 50), 250, nil
		default:
			return nil, 250, nil
		}
	}}

	d, links, jobs, _ := newTestDiscovery(t, search, testScraperConfig())
	jobID := runningJob(t, jobs)

	total, err := d.Run(context.Background(), jobID, []string{"جدة"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 250 {
		t.Errorf("distinct links: got %d, want 250", total)
	}

	if len(search.calls) != 3 {
		t.Fatalf("page requests: got %d, want 3", len(search.calls))
	}
	for i, wantOffset := range []int{0, 100, 200} {
		if search.calls[i].Offset != wantOffset {
			t.Errorf("call %d offset: got %d, want %d", i, search.calls[i].Offset, wantOffset)
		}
	}

	got, err := links.ReadLinks()
	if err != nil {
		t.Fatalf("ReadLinks: %v", err)
	}
	if len(got) != 250 {
		t.Errorf("ledger links: got %d, want 250", len(got))
	}
}

func TestDiscoveryStopsPastReportedTotal(t *testing.T) {
	// Pages never come back empty; the reported total has to end the pair
	// before a fourth request goes out.
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		return pageLinks(q.Offset, 100), 250, nil
	}}

	d, _, jobs, _ := newTestDiscovery(t, search, testScraperConfig())
	jobID := runningJob(t, jobs)

	if _, err := d.Run(context.Background(), jobID, []string{"جدة"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(search.calls) != 3 {
		t.Errorf("page requests: got %d, want 3", len(search.calls))
	}
}

func TestDiscoveryEmptyPageEndsPair(t *testing.T) {
	// The reported total promises more results than the pages deliver; the
	// first empty page still ends the pair.
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		if q.Offset == 0 {
			return pageLinks(0, 100), 1000, nil
		}
		return nil, 1000, nil
	}}

	d, _, jobs, _ := newTestDiscovery(t, search, testScraperConfig())
	jobID := runningJob(t, jobs)

	total, err := d.Run(context.Background(), jobID, []string{"جدة"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 100 {
		t.Errorf("distinct links: got %d, want 100", total)
	}
	if len(search.calls) != 2 {
		t.Errorf("page requests: got %d, want 2", len(search.calls))
	}
}

func TestDiscoveryPageCap(t *testing.T) {
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		return pageLinks(q.Offset, 100), 1000000, nil
	}}

	cfg := testScraperConfig()
	cfg.MaxPages = 2
	d, _, jobs, _ := newTestDiscovery(t, search, cfg)
	jobID := runningJob(t, jobs)

	if _, err := d.Run(context.Background(), jobID, []string{"جدة"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(search.calls) != 2 {
		t.Errorf("page requests: got %d, want 2", len(search.calls))
	}
}

func TestDiscoveryDeduplicatesAcrossSorters(t *testing.T) {
	// Both sorters surface the same two hotels; the ledger must hold each
	// link once.
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		if q.Offset == 0 {
			return pageLinks(0, 2), 2, nil
		}
		return nil, 2, nil
	}}

	d, links, jobs, _ := newTestDiscovery(t, search, testScraperConfig("popularity", "class"))
	jobID := runningJob(t, jobs)

	total, err := d.Run(context.Background(), jobID, []string{"جدة"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 2 {
		t.Errorf("distinct links: got %d, want 2", total)
	}
	got, _ := links.ReadLinks()
	if len(got) != 2 {
		t.Errorf("ledger links: got %d, want 2", len(got))
	}
}

func TestDiscoveryFailedPairContinues(t *testing.T) {
	// The first sorter blows up; the second still runs to completion.
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		if q.Sorter == "popularity" {
			return nil, 0, errors.New("upstream error")
		}
		if q.Offset == 0 {
			return pageLinks(0, 3), 3, nil
		}
		return nil, 3, nil
	}}

	d, _, jobs, logs := newTestDiscovery(t, search, testScraperConfig("popularity", "class"))
	jobID := runningJob(t, jobs)

	total, err := d.Run(context.Background(), jobID, []string{"جدة"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 3 {
		t.Errorf("distinct links: got %d, want 3", total)
	}

	rows, err := logs.ListByJob(context.Background(), jobID, 0)
	if err != nil {
		t.Fatalf("ListByJob: %v", err)
	}
	var sawError bool
	for _, row := range rows {
		if row.LogLevel == "ERROR" {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected an ERROR log row for the failed pair")
	}
}

func TestDiscoveryUnresolvedTargetSkipped(t *testing.T) {
	search := &fakeSearch{resolveErr: errors.New("no such place")}

	d, _, jobs, logs := newTestDiscovery(t, search, testScraperConfig())
	jobID := runningJob(t, jobs)

	total, err := d.Run(context.Background(), jobID, []string{"مكان غير موجود"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 0 {
		t.Errorf("distinct links: got %d, want 0", total)
	}
	if len(search.calls) != 0 {
		t.Errorf("page requests for unresolved target: got %d, want 0", len(search.calls))
	}

	rows, _ := logs.ListByJob(context.Background(), jobID, 0)
	if len(rows) == 0 || rows[0].LogLevel != "WARN" {
		t.Error("expected a WARN log row for the unresolved target")
	}
}

func TestDiscoveryStoppedByJobState(t *testing.T) {
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		return pageLinks(q.Offset, 1), 1, nil
	}}

	d, _, jobs, _ := newTestDiscovery(t, search, testScraperConfig())
	jobID := runningJob(t, jobs)
	if err := jobs.RequestStop(context.Background(), jobID); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}

	total, err := d.Run(context.Background(), jobID, []string{"جدة"})
	if err != ErrStopped {
		t.Fatalf("Run: got %v, want ErrStopped", err)
	}
	if total != 0 || len(search.calls) != 0 {
		t.Errorf("stopped run did work: %d links, %d calls", total, len(search.calls))
	}
}

func TestDiscoveryStoppedByContext(t *testing.T) {
	search := &fakeSearch{page: func(q searchapi.PageQuery) ([]string, int, error) {
		return pageLinks(q.Offset, 1), 1, nil
	}}

	d, _, jobs, _ := newTestDiscovery(t, search, testScraperConfig())
	jobID := runningJob(t, jobs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Run(ctx, jobID, []string{"جدة"}); err != ErrStopped {
		t.Fatalf("Run: got %v, want ErrStopped", err)
	}
}

func TestFingerprintSet(t *testing.T) {
	seen := NewFingerprintSet()
	if !seen.Add("a") {
		t.Error("first Add: got false, want true")
	}
	if seen.Add("a") {
		t.Error("repeated Add: got true, want false")
	}
	if !seen.Seen("a") {
		t.Error("Seen after Add: got false")
	}
	if seen.Seen("b") {
		t.Error("Seen for unknown key: got true")
	}
	seen.Add("b")
	if seen.Len() != 2 {
		t.Errorf("Len: got %d, want 2", seen.Len())
	}
}
