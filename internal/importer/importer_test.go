package importer

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stayscout/internal/domain"
	"stayscout/internal/ledger"
	"stayscout/internal/repository"
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

func testRecord() *domain.HotelRecord {
	stars := 4
	return &domain.HotelRecord{
		Title:          "فندق الاختبار",
		Address:        "شارع الملك فهد",
		Region:         "منطقة الرياض",
		AddressCountry: "المملكة العربية السعودية",
		Stars:          &stars,
		RatingValue:    "8.5",
		URL:            "https://example.com/hotel/sa/test.ar.html",
		ImageLinks:     []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		MostFamousFacilities: map[string]string{
			"واي فاي مجاني": "<svg/>",
		},
		AllFacilities: map[string]domain.FacilityGroup{
			"عام": {SubFacilities: map[string]string{
				"مواقف سيارات":  "",
				"واي فاي مجاني": "<svg/>",
			}},
		},
		Rooms: []domain.RoomInfo{
			{
				RoomName:   "غرفة مزدوجة",
				BedType:    "سرير مزدوج",
				AdultCount: 2,
				ContentText: map[string]interface{}{
					"images_urls": []interface{}{"https://cdn.example.com/room1.jpg"},
				},
			},
		},
	}
}

func writeLedger(t *testing.T, recs ...*domain.HotelRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hotels.csv")
	l := ledger.NewHotelsLedger(path)
	for _, rec := range recs {
		if err := l.Append(rec); err != nil {
			t.Fatalf("append record: %v", err)
		}
	}
	return path
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	im := New(db)

	path := writeLedger(t, testRecord())
	res, err := im.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.Imported != 1 || res.Failed != 0 {
		t.Fatalf("result: %+v", res)
	}

	var hotel domain.Hotel
	if err := db.First(&hotel, "url = ?", "https://example.com/hotel/sa/test.ar.html").Error; err != nil {
		t.Fatalf("hotel not inserted: %v", err)
	}
	if hotel.Title != "فندق الاختبار" {
		t.Errorf("title: %q", hotel.Title)
	}
	if hotel.Stars == nil || *hotel.Stars != 4 {
		t.Errorf("stars: %v", hotel.Stars)
	}

	// Two hotel images plus one room image.
	if n := count(t, db, &domain.Image{}); n != 3 {
		t.Errorf("images: got %d, want 3", n)
	}
	if n := count(t, db, &domain.Room{}); n != 1 {
		t.Errorf("rooms: got %d, want 1", n)
	}
	var roomImages int64
	db.Model(&domain.Image{}).Where("room_id IS NOT NULL").Count(&roomImages)
	if roomImages != 1 {
		t.Errorf("room images: got %d, want 1", roomImages)
	}

	// واي فاي مجاني appears both highlighted and in a category: one facility
	// row, one link row, flag set.
	var fac domain.Facility
	if err := db.First(&fac, "name = ?", "واي فاي مجاني").Error; err != nil {
		t.Fatalf("facility not inserted: %v", err)
	}
	var links []domain.HotelFacility
	if err := db.Find(&links, "facility_id = ?", fac.ID).Error; err != nil {
		t.Fatalf("facility links: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("facility link rows: got %d, want 1", len(links))
	}
	if !links[0].IsMostFamous {
		t.Error("most-famous flag not set on shared facility")
	}

	// The category heading and the other sub-facility get linked too.
	if n := count(t, db, &domain.HotelFacility{}); n != 3 {
		t.Errorf("facility links: got %d, want 3", n)
	}
}

func TestImportFileIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	im := New(db)

	path := writeLedger(t, testRecord())
	for i := 0; i < 2; i++ {
		if _, err := im.ImportFile(ctx, path); err != nil {
			t.Fatalf("ImportFile run %d: %v", i+1, err)
		}
	}

	if n := count(t, db, &domain.Hotel{}); n != 1 {
		t.Errorf("hotels after reimport: got %d, want 1", n)
	}
	if n := count(t, db, &domain.Image{}); n != 3 {
		t.Errorf("images after reimport: got %d, want 3", n)
	}
	if n := count(t, db, &domain.Room{}); n != 1 {
		t.Errorf("rooms after reimport: got %d, want 1", n)
	}
	if n := count(t, db, &domain.HotelFacility{}); n != 3 {
		t.Errorf("facility links after reimport: got %d, want 3", n)
	}
	// The facility catalog is shared and must not grow either.
	if n := count(t, db, &domain.Facility{}); n != 3 {
		t.Errorf("facilities after reimport: got %d, want 3", n)
	}
	if n := count(t, db, &domain.Property{}); n != 1 {
		t.Errorf("properties after reimport: got %d, want 1", n)
	}
}

func TestImportFileSkipsBadRows(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	im := New(db)

	good := testRecord()
	bad := testRecord()
	bad.URL = "" // unparseable row

	path := writeLedger(t, bad, good)
	res, err := im.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.Imported != 1 || res.Failed != 1 {
		t.Errorf("result: %+v", res)
	}
	if n := count(t, db, &domain.Hotel{}); n != 1 {
		t.Errorf("hotels: got %d, want 1", n)
	}
}

func TestImportFileMissing(t *testing.T) {
	im := New(testDB(t))
	res, err := im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if err != nil {
		t.Fatalf("ImportFile on missing file: %v", err)
	}
	if res.Imported != 0 || res.Failed != 0 {
		t.Errorf("result: %+v", res)
	}
}
