package ledger

import (
	"encoding/json"
	"strconv"
	"time"

	"stayscout/internal/domain"
)

var hotelsHeader = []string{
	"title", "address", "region", "postalCode", "addressCountry",
	"latitude", "longitude", "description", "stars",
	"rating_value", "rating_text", "url",
	"image_links", "most_famous_facilities", "all_facilities", "rooms",
	"scraped_at",
}

// HotelsLedger records scraped hotel snapshots. Structured sub-fields (image
// lists, facility maps, rooms) are stored as JSON strings inside their CSV
// cells so the row stays flat.
type HotelsLedger struct {
	path    string
	started bool
}

// NewHotelsLedger creates a hotels ledger backed by the CSV file at path.
func NewHotelsLedger(path string) *HotelsLedger {
	return &HotelsLedger{path: path}
}

// Path returns the backing file path.
func (l *HotelsLedger) Path() string {
	return l.path
}

// Append writes one hotel record. The first append of a run starts the file
// fresh with a header.
func (l *HotelsLedger) Append(rec *domain.HotelRecord) error {
	if !l.started {
		if err := appendRow(l.path, true, hotelsHeader); err != nil {
			return err
		}
		l.started = true
	}
	return appendRow(l.path, false, recordToRow(rec))
}

// HasData reports whether the backing file holds at least one data row.
func (l *HotelsLedger) HasData() (bool, error) {
	_, rows, err := readRows(l.path)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// ReadAll returns every data row keyed by header column. Cells stay raw
// strings; decoding the JSON sub-fields is the importer's concern.
func (l *HotelsLedger) ReadAll() ([]RawRow, error) {
	header, rows, err := readRows(l.path)
	if err != nil {
		return nil, err
	}
	out := make([]RawRow, 0, len(rows))
	for _, row := range rows {
		raw := make(RawRow, len(header))
		for i, col := range header {
			if i < len(row) {
				raw[col] = row[i]
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

func recordToRow(rec *domain.HotelRecord) []string {
	stars := ""
	if rec.Stars != nil {
		stars = strconv.Itoa(*rec.Stars)
	}
	scrapedAt := ""
	if !rec.ScrapedAt.IsZero() {
		scrapedAt = rec.ScrapedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		rec.Title, rec.Address, rec.Region, rec.PostalCode, rec.AddressCountry,
		rec.Latitude, rec.Longitude, rec.Description, stars,
		rec.RatingValue, rec.RatingText, rec.URL,
		marshalCell(rec.ImageLinks),
		marshalCell(rec.MostFamousFacilities),
		marshalCell(rec.AllFacilities),
		marshalCell(rec.Rooms),
		scrapedAt,
	}
}

// marshalCell encodes a sub-structure for its CSV cell. Encoding these types
// cannot fail; an empty structure becomes an empty cell rather than "null".
func marshalCell(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return ""
	}
	return string(data)
}
