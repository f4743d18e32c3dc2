package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stayscout/internal/domain"
	"stayscout/internal/ledger"
)

// ParseRow turns a raw ledger row into a record. Only the URL is required;
// every other field is tolerant, so a row with a mangled JSON cell still
// imports with that cell empty.
func ParseRow(row ledger.RawRow) (*domain.HotelRecord, error) {
	url := strings.TrimSpace(row["url"])
	if url == "" {
		return nil, fmt.Errorf("row has no url")
	}

	rec := &domain.HotelRecord{
		Title:          strings.TrimSpace(row["title"]),
		Address:        strings.TrimSpace(row["address"]),
		Region:         strings.TrimSpace(row["region"]),
		PostalCode:     strings.TrimSpace(row["postalCode"]),
		AddressCountry: strings.TrimSpace(row["addressCountry"]),
		Latitude:       strings.TrimSpace(row["latitude"]),
		Longitude:      strings.TrimSpace(row["longitude"]),
		Description:    strings.TrimSpace(row["description"]),
		RatingValue:    strings.TrimSpace(row["rating_value"]),
		RatingText:     strings.TrimSpace(row["rating_text"]),
		URL:            url,
	}

	if s := strings.TrimSpace(row["stars"]); s != "" {
		// Older ledgers carry stars as a float.
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			n := int(f)
			rec.Stars = &n
		}
	}
	if s := strings.TrimSpace(row["scraped_at"]); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			rec.ScrapedAt = t
		}
	}

	decodeCell(row["image_links"], &rec.ImageLinks)
	decodeCell(row["most_famous_facilities"], &rec.MostFamousFacilities)
	decodeCell(row["all_facilities"], &rec.AllFacilities)
	decodeCell(row["rooms"], &rec.Rooms)

	return rec, nil
}

// decodeCell unmarshals a JSON cell into out, leaving out untouched when the
// cell is empty or unparseable.
func decodeCell(cell string, out interface{}) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "null" {
		return
	}
	_ = json.Unmarshal([]byte(cell), out)
}
