package repository

import (
	"context"

	"gorm.io/gorm"

	"stayscout/internal/domain"
)

// HotelRepository serves read access to imported hotels for the API layer.
// Writes go through the importer, which owns the replace-by-URL transaction.
type HotelRepository struct {
	db *gorm.DB
}

// NewHotelRepository creates a new HotelRepository.
func NewHotelRepository(db *gorm.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

// GetByID retrieves a hotel with its dependent rows preloaded.
func (r *HotelRepository) GetByID(ctx context.Context, id uint) (*domain.Hotel, error) {
	var hotel domain.Hotel
	if err := r.db.WithContext(ctx).
		Preload("Images").
		Preload("Rooms").
		Preload("Facilities.Facility").
		First(&hotel, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &hotel, nil
}

// GetByURL retrieves a hotel by its unique source URL.
func (r *HotelRepository) GetByURL(ctx context.Context, url string) (*domain.Hotel, error) {
	var hotel domain.Hotel
	if err := r.db.WithContext(ctx).First(&hotel, "url = ?", url).Error; err != nil {
		return nil, err
	}
	return &hotel, nil
}

// List retrieves hotels newest first with pagination, optionally filtered by
// region.
func (r *HotelRepository) List(ctx context.Context, region string, limit, offset int) ([]domain.Hotel, int64, error) {
	var hotels []domain.Hotel
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Hotel{})
	if region != "" {
		query = query.Where("region = ?", region)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&hotels).Error; err != nil {
		return nil, 0, err
	}
	return hotels, total, nil
}

// Count returns the total number of stored hotels.
func (r *HotelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Hotel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
