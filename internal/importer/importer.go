// Package importer replays hotels ledgers into the relational store. An
// import is idempotent per record: a hotel already present under the same URL
// is deleted together with its dependents and re-inserted fresh, so running
// the same ledger twice leaves one copy.
package importer

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"stayscout/internal/domain"
	"stayscout/internal/ledger"
	"stayscout/internal/logger"
)

// Result summarizes one import run.
type Result struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Importer writes ledger records into the database.
type Importer struct {
	db *gorm.DB
}

// New creates an Importer.
func New(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

// ImportFile imports every row of the hotels ledger at path. A bad row is
// rolled back on its own, counted as failed and the run continues; the
// returned error covers only file-level problems.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	rows, err := ledger.NewHotelsLedger(path).ReadAll()
	if err != nil {
		return Result{}, err
	}
	return im.importRows(ctx, rows)
}

func (im *Importer) importRows(ctx context.Context, rows []ledger.RawRow) (Result, error) {
	log := logger.FromContext(ctx)
	var res Result

	for i, row := range rows {
		rec, err := ParseRow(row)
		if err != nil {
			res.Failed++
			log.WithError(err).WithField("row", i+1).Warn("skipping unparseable ledger row")
			continue
		}
		if err := im.importRecord(ctx, rec); err != nil {
			res.Failed++
			log.WithError(err).WithField(logger.FieldURL, rec.URL).Error("failed to import hotel")
			continue
		}
		res.Imported++
	}

	logger.With(logger.Fields{
		logger.FieldCount: res.Imported,
		"failed":          res.Failed,
	}).Info(ctx, "ledger import finished")
	return res, nil
}

// importRecord replaces one hotel inside a single transaction.
func (im *Importer) importRecord(ctx context.Context, rec *domain.HotelRecord) error {
	return im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteExisting(tx, rec.URL); err != nil {
			return err
		}

		propertyID, err := getOrCreateProperty(tx, "hotel")
		if err != nil {
			return err
		}

		hotel := &domain.Hotel{
			PropertyID:     propertyID,
			Title:          rec.Title,
			Address:        rec.Address,
			Region:         rec.Region,
			PostalCode:     rec.PostalCode,
			AddressCountry: rec.AddressCountry,
			Latitude:       rec.Latitude,
			Longitude:      rec.Longitude,
			Description:    rec.Description,
			Stars:          rec.Stars,
			RatingValue:    rec.RatingValue,
			RatingText:     rec.RatingText,
			URL:            rec.URL,
		}
		if err := tx.Create(hotel).Error; err != nil {
			return fmt.Errorf("failed to insert hotel: %w", err)
		}

		if err := insertFacilities(tx, hotel.ID, rec); err != nil {
			return err
		}
		if err := insertImages(tx, hotel.ID, rec.ImageLinks); err != nil {
			return err
		}
		if err := insertRooms(tx, hotel.ID, rec.Rooms); err != nil {
			return err
		}
		return nil
	})
}

// deleteExisting removes a previously imported hotel and everything hanging
// off it. Room images are keyed by room, so they go before the rooms do.
func deleteExisting(tx *gorm.DB, url string) error {
	var hotel domain.Hotel
	err := tx.Select("id").First(&hotel, "url = ?", url).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up existing hotel: %w", err)
	}

	if err := tx.Where("hotel_id = ?", hotel.ID).Delete(&domain.HotelFacility{}).Error; err != nil {
		return fmt.Errorf("failed to delete hotel facilities: %w", err)
	}
	roomIDs := tx.Model(&domain.Room{}).Select("id").Where("hotel_id = ?", hotel.ID)
	if err := tx.Where("hotel_id = ? OR room_id IN (?)", hotel.ID, roomIDs).Delete(&domain.Image{}).Error; err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	if err := tx.Where("hotel_id = ?", hotel.ID).Delete(&domain.Room{}).Error; err != nil {
		return fmt.Errorf("failed to delete rooms: %w", err)
	}
	if err := tx.Delete(&domain.Hotel{}, hotel.ID).Error; err != nil {
		return fmt.Errorf("failed to delete hotel: %w", err)
	}
	return nil
}

func getOrCreateProperty(tx *gorm.DB, propertyType string) (uint, error) {
	var prop domain.Property
	err := tx.First(&prop, "type = ?", propertyType).Error
	if err == nil {
		return prop.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("failed to look up property type: %w", err)
	}
	prop = domain.Property{Type: propertyType}
	if err := tx.Create(&prop).Error; err != nil {
		return 0, fmt.Errorf("failed to create property type: %w", err)
	}
	return prop.ID, nil
}

func getOrCreateFacility(tx *gorm.DB, name, category, iconSVG string) (uint, error) {
	var fac domain.Facility
	err := tx.First(&fac, "name = ?", name).Error
	if err == nil {
		return fac.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("failed to look up facility: %w", err)
	}
	fac = domain.Facility{Name: name, Category: category, IconSVG: iconSVG}
	if err := tx.Create(&fac).Error; err != nil {
		return 0, fmt.Errorf("failed to create facility: %w", err)
	}
	return fac.ID, nil
}

// insertFacilities links the hotel to its facilities. Most-famous entries
// take precedence: a facility appearing both highlighted and in a category
// keeps its single link row with the flag set.
func insertFacilities(tx *gorm.DB, hotelID uint, rec *domain.HotelRecord) error {
	linked := make(map[uint]struct{})

	link := func(facilityID uint, mostFamous bool) error {
		if _, ok := linked[facilityID]; ok {
			return nil
		}
		linked[facilityID] = struct{}{}
		row := domain.HotelFacility{HotelID: hotelID, FacilityID: facilityID, IsMostFamous: mostFamous}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to link facility: %w", err)
		}
		return nil
	}

	for name, icon := range rec.MostFamousFacilities {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := getOrCreateFacility(tx, name, "", icon)
		if err != nil {
			return err
		}
		if err := link(id, true); err != nil {
			return err
		}
	}

	for category, group := range rec.AllFacilities {
		category = strings.TrimSpace(category)
		if category != "" {
			id, err := getOrCreateFacility(tx, category, "main", group.SVG)
			if err != nil {
				return err
			}
			if err := link(id, false); err != nil {
				return err
			}
		}
		for sub, icon := range group.SubFacilities {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				continue
			}
			id, err := getOrCreateFacility(tx, sub, "sub", icon)
			if err != nil {
				return err
			}
			if err := link(id, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertImages(tx *gorm.DB, hotelID uint, links []string) error {
	for _, url := range links {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		img := domain.Image{HotelID: &hotelID, ImageURL: url}
		if err := tx.Create(&img).Error; err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}
	return nil
}

func insertRooms(tx *gorm.DB, hotelID uint, rooms []domain.RoomInfo) error {
	for _, info := range rooms {
		room := domain.Room{
			HotelID:       hotelID,
			RoomName:      info.RoomName,
			BedType:       info.BedType,
			AdultCount:    info.AdultCount,
			ChildrenCount: info.ChildrenCount,
			ContentText:   domain.JSONMap(info.ContentText),
		}
		if err := tx.Create(&room).Error; err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}
		for _, url := range roomImageURLs(info) {
			img := domain.Image{RoomID: &room.ID, ImageURL: url}
			if err := tx.Create(&img).Error; err != nil {
				return fmt.Errorf("failed to insert room image: %w", err)
			}
		}
	}
	return nil
}

// roomImageURLs pulls the gallery URLs out of a room's loosely typed content.
func roomImageURLs(info domain.RoomInfo) []string {
	raw, ok := info.ContentText["images_urls"]
	if !ok {
		return nil
	}
	var urls []string
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			urls = append(urls, strings.TrimSpace(s))
		}
	}
	// A ledger round-trip yields []interface{}; a record straight from the
	// extractor carries []string.
	switch items := raw.(type) {
	case []interface{}:
		for _, item := range items {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range items {
			add(s)
		}
	}
	return urls
}
