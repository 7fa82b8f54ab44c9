package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/services/geocoder"
	"github.com/sahilchouksey/devcamper-api/services/storage"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"github.com/sahilchouksey/devcamper-api/utils/upload"
	"gorm.io/gorm"
)

// BootcampService handles bootcamp writes, geocoding and photos
type BootcampService struct {
	db       *gorm.DB
	courses  *CourseService
	geocoder geocoder.Geocoder
	photos   storage.PhotoStore
}

// NewBootcampService creates a new bootcamp service. A nil geocoder stores
// every bootcamp without a location.
func NewBootcampService(db *gorm.DB, courses *CourseService, geo geocoder.Geocoder, photos storage.PhotoStore) *BootcampService {
	if geo == nil {
		logger.Warning("Geocoder not configured. Bootcamps will be stored without a location.")
	}
	return &BootcampService{
		db:       db,
		courses:  courses,
		geocoder: geo,
		photos:   photos,
	}
}

// locate geocodes address. Failures are logged and yield an empty location.
func (s *BootcampService) locate(ctx context.Context, address string) model.GeoPoint {
	if s.geocoder == nil {
		return model.GeoPoint{}
	}

	res, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		logger.Warningf("geocoding %q failed, storing without location: %v", address, err)
		return model.GeoPoint{}
	}

	lat, lng := res.Latitude, res.Longitude
	return model.GeoPoint{
		Latitude:         &lat,
		Longitude:        &lng,
		FormattedAddress: res.FormattedAddress(),
		Street:           res.Street,
		City:             res.City,
		State:            res.State,
		Zipcode:          res.Zipcode,
		Country:          res.Country,
	}
}

// Create derives the slug and location and persists the bootcamp
func (s *BootcampService) Create(ctx context.Context, bootcamp *model.Bootcamp) error {
	bootcamp.Slug = slug.Make(bootcamp.Name)
	bootcamp.Location = s.locate(ctx, bootcamp.Address)
	bootcamp.AverageCost = nil
	bootcamp.Photo = nil
	bootcamp.Courses = nil

	return s.db.WithContext(ctx).Create(bootcamp).Error
}

// Update saves the bootcamp, refreshing slug and location when name or
// address changed
func (s *BootcampService) Update(ctx context.Context, bootcamp *model.Bootcamp, previous model.Bootcamp) error {
	if bootcamp.Name != previous.Name {
		bootcamp.Slug = slug.Make(bootcamp.Name)
	}
	if bootcamp.Address != previous.Address {
		bootcamp.Location = s.locate(ctx, bootcamp.Address)
	}
	bootcamp.Courses = nil

	return s.db.WithContext(ctx).
		Omit("UserID", "AverageCost", "Photo", "CreatedAt").
		Save(bootcamp).Error
}

// Delete removes every course, then the bootcamp, then its photo
func (s *BootcampService) Delete(ctx context.Context, bootcamp *model.Bootcamp) error {
	var courses []model.Course
	if err := s.db.WithContext(ctx).Where("bootcamp_id = ?", bootcamp.ID).Find(&courses).Error; err != nil {
		return err
	}
	for i := range courses {
		if err := s.courses.Delete(ctx, &courses[i]); err != nil {
			return fmt.Errorf("failed to delete course %d: %w", courses[i].ID, err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(&model.Bootcamp{}, bootcamp.ID).Error; err != nil {
		return err
	}

	if bootcamp.Photo != nil && s.photos != nil {
		if err := s.photos.Delete(ctx, *bootcamp.Photo); err != nil {
			logger.Warningf("failed to delete photo %s of bootcamp %d: %v", *bootcamp.Photo, bootcamp.ID, err)
		}
	}
	return nil
}

// InRadius returns bootcamps within distance miles of the zipcode
func (s *BootcampService) InRadius(ctx context.Context, zipcode string, distance float64) ([]model.Bootcamp, error) {
	if distance < 0 {
		return nil, apperror.BadRequest("Distance must not be negative")
	}
	if s.geocoder == nil {
		return nil, apperror.Internal(errors.New("geocoder not configured"), "Radius search is unavailable")
	}

	origin, err := s.geocoder.Geocode(ctx, zipcode)
	if errors.Is(err, geocoder.ErrNoMatch) {
		return nil, apperror.NotFound("No location found for zipcode %s", zipcode)
	}
	if err != nil {
		return nil, apperror.Internal(err, "Failed to geocode zipcode")
	}

	radius := distance / EarthRadiusMiles
	minLat, maxLat, minLng, maxLng, wraps := boundingBox(origin.Latitude, origin.Longitude, radius)

	q := s.db.WithContext(ctx).
		Where("location_latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("location_longitude IS NOT NULL")
	if !wraps {
		q = q.Where("location_longitude BETWEEN ? AND ?", minLng, maxLng)
	}

	var candidates []model.Bootcamp
	if err := q.Order("id").Find(&candidates).Error; err != nil {
		return nil, err
	}

	bootcamps := make([]model.Bootcamp, 0, len(candidates))
	for _, b := range candidates {
		if CentralAngle(origin.Latitude, origin.Longitude, *b.Location.Latitude, *b.Location.Longitude) <= radius {
			bootcamps = append(bootcamps, b)
		}
	}
	return bootcamps, nil
}

// SetPhoto stores img as the bootcamp's photo. The record is only changed
// once the file is stored; a failed record update removes the file again.
func (s *BootcampService) SetPhoto(ctx context.Context, bootcamp *model.Bootcamp, img *upload.Image) error {
	if s.photos == nil {
		return apperror.Internal(errors.New("photo store not configured"), "Photo upload is unavailable")
	}

	name := upload.PhotoName(bootcamp.ID, img.Ext)

	file, err := img.Header.Open()
	if err != nil {
		return apperror.Internal(err, "Problem with file upload")
	}
	defer file.Close()

	if err := s.photos.Save(ctx, name, file, img.MIMEType); err != nil {
		return apperror.Internal(err, "Problem with file upload")
	}

	previous := bootcamp.Photo
	if err := s.db.WithContext(ctx).Model(bootcamp).UpdateColumn("photo", name).Error; err != nil {
		// An earlier photo with the same name was just overwritten, keep it
		if previous == nil || *previous != name {
			if delErr := s.photos.Delete(ctx, name); delErr != nil {
				logger.Warningf("failed to remove orphaned photo %s: %v", name, delErr)
			}
		}
		return err
	}

	if previous != nil && *previous != name {
		if err := s.photos.Delete(ctx, *previous); err != nil {
			logger.Warningf("failed to delete replaced photo %s: %v", *previous, err)
		}
	}
	bootcamp.Photo = &name
	return nil
}
