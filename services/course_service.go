package services

import (
	"context"
	"fmt"
	"math"

	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"gorm.io/gorm"
)

// CourseService owns course writes and keeps each bootcamp's averageCost
// in step with its courses
type CourseService struct {
	db *gorm.DB
}

// NewCourseService creates a new course service
func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

// Create persists a course and recomputes its bootcamp's averageCost
func (s *CourseService) Create(ctx context.Context, course *model.Course) error {
	course.Bootcamp = nil
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return err
	}
	s.recompute(ctx, course.BootcampID)
	return nil
}

// Update saves a course. The bootcamp reference is never changed.
func (s *CourseService) Update(ctx context.Context, course *model.Course) error {
	course.Bootcamp = nil
	if err := s.db.WithContext(ctx).Omit("BootcampID", "CreatedAt").Save(course).Error; err != nil {
		return err
	}
	s.recompute(ctx, course.BootcampID)
	return nil
}

// Delete removes a course and recomputes its bootcamp's averageCost
func (s *CourseService) Delete(ctx context.Context, course *model.Course) error {
	if err := s.db.WithContext(ctx).Delete(&model.Course{}, course.ID).Error; err != nil {
		return err
	}
	s.recompute(ctx, course.BootcampID)
	return nil
}

// recompute logs instead of failing; the write it follows already succeeded
func (s *CourseService) recompute(ctx context.Context, bootcampID uint) {
	if err := s.RecomputeAverageCost(ctx, bootcampID); err != nil {
		logger.Errorf("failed to recompute average cost for bootcamp %d: %v", bootcampID, err)
	}
}

// AverageCost rounds the mean tuition up to the next multiple of 10
func AverageCost(mean float64) float64 {
	return math.Ceil(mean/10) * 10
}

// RecomputeAverageCost sets averageCost from the bootcamp's courses, or
// clears it when there are none
func (s *CourseService) RecomputeAverageCost(ctx context.Context, bootcampID uint) error {
	db := s.db.WithContext(ctx)

	var agg struct {
		Mean *float64
	}
	if err := db.Model(&model.Course{}).
		Select("AVG(tuition) AS mean").
		Where("bootcamp_id = ?", bootcampID).
		Scan(&agg).Error; err != nil {
		return fmt.Errorf("failed to aggregate tuition: %w", err)
	}

	var cost interface{}
	if agg.Mean != nil {
		cost = AverageCost(*agg.Mean)
	}

	return db.Model(&model.Bootcamp{}).
		Where("id = ?", bootcampID).
		UpdateColumn("average_cost", cost).Error
}

// ReconcileAll recomputes averageCost for every bootcamp and returns how
// many were processed
func (s *CourseService) ReconcileAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&model.Bootcamp{}).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.RecomputeAverageCost(ctx, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
