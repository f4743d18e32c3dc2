package domain

import "time"

// Property is the accommodation-type dictionary (hotel, aparthotel, ...).
// Rows are get-or-created by type and shared across hotels.
type Property struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Type string `gorm:"type:text;uniqueIndex" json:"type"`
}

// TableName returns the database table name for Property.
func (Property) TableName() string {
	return "properties"
}

// Hotel is the durable entity produced by importing a ledger record.
// The source URL is its unique key: re-importing a record for a URL that
// already exists replaces the hotel and all of its dependents.
type Hotel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID     uint      `gorm:"index" json:"property_id"`
	Title          string    `gorm:"type:text" json:"title"`
	Address        string    `gorm:"type:text" json:"address"`
	Region         string    `gorm:"type:text" json:"region"`
	PostalCode     string    `gorm:"type:text" json:"postal_code"`
	AddressCountry string    `gorm:"type:text" json:"address_country"`
	// Coordinates are kept as strings to preserve the exact source formatting.
	Latitude    string    `gorm:"type:text" json:"latitude"`
	Longitude   string    `gorm:"type:text" json:"longitude"`
	Description string    `gorm:"type:text" json:"description"`
	Stars       *int      `json:"stars"`
	RatingValue string    `gorm:"type:text" json:"rating_value"`
	RatingText  string    `gorm:"type:text" json:"rating_text"`
	URL         string    `gorm:"type:text;uniqueIndex" json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Images     []Image         `gorm:"foreignKey:HotelID" json:"images,omitempty"`
	Rooms      []Room          `gorm:"foreignKey:HotelID" json:"rooms,omitempty"`
	Facilities []HotelFacility `gorm:"foreignKey:HotelID" json:"facilities,omitempty"`
}

// TableName returns the database table name for Hotel.
func (Hotel) TableName() string {
	return "hotels"
}

// Facility is a named amenity shared across hotels. Identities are
// deduplicated by name store-wide; per-hotel emphasis lives on the link row.
type Facility struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:text;uniqueIndex" json:"name"`
	Category string `gorm:"type:text" json:"category"`
	IconSVG  string `gorm:"type:text" json:"icon_svg,omitempty"`
}

// TableName returns the database table name for Facility.
func (Facility) TableName() string {
	return "facilities"
}

// HotelFacility links a hotel to a facility. IsMostFamous preserves the
// source page's highlighted-facilities emphasis without duplicating rows.
type HotelFacility struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	HotelID      uint     `gorm:"index" json:"hotel_id"`
	FacilityID   uint     `gorm:"index" json:"facility_id"`
	IsMostFamous bool     `gorm:"default:false" json:"is_most_famous"`
	Facility     Facility `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
}

// TableName returns the database table name for HotelFacility.
func (HotelFacility) TableName() string {
	return "hotel_facility"
}

// Image belongs to either a hotel or one of its rooms; exactly one of the
// two foreign keys is set.
type Image struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	HotelID  *uint  `gorm:"index" json:"hotel_id,omitempty"`
	RoomID   *uint  `gorm:"index" json:"room_id,omitempty"`
	ImageURL string `gorm:"type:text" json:"image_url"`
}

// TableName returns the database table name for Image.
func (Image) TableName() string {
	return "images"
}

// Room is a bookable unit belonging to a hotel. ContentText carries the
// loosely structured per-room details (views, policies, highlights) exactly
// as scraped.
type Room struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	HotelID       uint    `gorm:"index" json:"hotel_id"`
	RoomName      string  `gorm:"type:text" json:"room_name"`
	BedType       string  `gorm:"type:text" json:"bed_type"`
	AdultCount    int     `gorm:"default:0" json:"adult_count"`
	ChildrenCount int     `gorm:"default:0" json:"children_count"`
	ContentText   JSONMap `gorm:"type:text" json:"content_text"`
}

// TableName returns the database table name for Room.
func (Room) TableName() string {
	return "rooms"
}
