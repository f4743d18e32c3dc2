package domain

import "time"

// FacilityGroup is one category block from a hotel page's facility section:
// the category's own icon plus its named sub-facilities (name -> icon SVG).
type FacilityGroup struct {
	SVG           string            `json:"svg,omitempty"`
	SubFacilities map[string]string `json:"sub_facilities,omitempty"`
}

// RoomInfo is one room as scraped from a detail page, before import.
type RoomInfo struct {
	RoomName      string                 `json:"room_name"`
	BedType       string                 `json:"bed_type"`
	AdultCount    int                    `json:"adult_count"`
	ChildrenCount int                    `json:"children_count"`
	ContentText   map[string]interface{} `json:"content_text,omitempty"`
}

// HotelRecord is the flat snapshot of one scraped hotel: the shape of a
// hotels-ledger row. Every field is best-effort; absent fields stay zero.
type HotelRecord struct {
	Title          string
	Address        string
	Region         string
	PostalCode     string
	AddressCountry string
	Latitude       string
	Longitude      string
	Description    string
	Stars          *int
	RatingValue    string
	RatingText     string
	URL            string

	ImageLinks           []string
	MostFamousFacilities map[string]string
	AllFacilities        map[string]FacilityGroup
	Rooms                []RoomInfo

	ScrapedAt time.Time
}
