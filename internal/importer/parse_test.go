package importer

import (
	"testing"
	"time"

	"stayscout/internal/ledger"
)

func TestParseRowRequiresURL(t *testing.T) {
	if _, err := ParseRow(ledger.RawRow{"title": "فندق"}); err == nil {
		t.Fatal("expected error for row without url")
	}
}

func TestParseRow(t *testing.T) {
	row := ledger.RawRow{
		"title":                  " فندق الاختبار ",
		"address":                "شارع الملك فهد",
		"region":                 "منطقة الرياض",
		"addressCountry":         "المملكة العربية السعودية",
		"latitude":               "24.71",
		"longitude":              "46.68",
		"stars":                  "4.0",
		"rating_value":           "8.5",
		"rating_text":            "جيد جدًا",
		"url":                    "https://example.com/hotel/sa/test.ar.html",
		"image_links":            `["https://cdn.example.com/a.jpg"]`,
		"most_famous_facilities": `{"واي فاي مجاني":"<svg/>"}`,
		"all_facilities":         `{"عام":{"svg":"","sub_facilities":{"مواقف سيارات":""}}}`,
		"rooms":                  `[{"room_name":"غرفة مزدوجة","bed_type":"سرير مزدوج","adult_count":2}]`,
		"scraped_at":             "2026-08-01T12:00:00Z",
	}

	rec, err := ParseRow(row)
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}

	if rec.Title != "فندق الاختبار" {
		t.Errorf("title not trimmed: %q", rec.Title)
	}
	if rec.Stars == nil || *rec.Stars != 4 {
		t.Errorf("stars: got %v, want 4", rec.Stars)
	}
	if len(rec.ImageLinks) != 1 {
		t.Errorf("image links: got %v", rec.ImageLinks)
	}
	if _, ok := rec.MostFamousFacilities["واي فاي مجاني"]; !ok {
		t.Errorf("most famous facilities: got %v", rec.MostFamousFacilities)
	}
	group, ok := rec.AllFacilities["عام"]
	if !ok || len(group.SubFacilities) != 1 {
		t.Errorf("all facilities: got %v", rec.AllFacilities)
	}
	if len(rec.Rooms) != 1 || rec.Rooms[0].RoomName != "غرفة مزدوجة" {
		t.Errorf("rooms: got %v", rec.Rooms)
	}
	want := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if !rec.ScrapedAt.Equal(want) {
		t.Errorf("scraped_at: got %v", rec.ScrapedAt)
	}
}

func TestParseRowTolerant(t *testing.T) {
	// Mangled cells must not cost the row; only the URL is load-bearing.
	row := ledger.RawRow{
		"url":         "https://example.com/hotel/sa/test.ar.html",
		"stars":       "not a number",
		"scraped_at":  "yesterday",
		"image_links": `{not json`,
		"rooms":       `[{"room_name": 42}]`,
	}

	rec, err := ParseRow(row)
	if err != nil {
		t.Fatalf("ParseRow: %v", err)
	}
	if rec.Stars != nil {
		t.Errorf("stars from garbage: got %v, want nil", rec.Stars)
	}
	if !rec.ScrapedAt.IsZero() {
		t.Errorf("scraped_at from garbage: got %v", rec.ScrapedAt)
	}
	if rec.ImageLinks != nil {
		t.Errorf("image links from garbage: got %v", rec.ImageLinks)
	}
}
