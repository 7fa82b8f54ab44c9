package course

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/handlers"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/services"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/middleware"
	"github.com/sahilchouksey/devcamper-api/utils/query"
	"github.com/sahilchouksey/devcamper-api/utils/response"
	"github.com/sahilchouksey/devcamper-api/utils/validation"
	"gorm.io/gorm"
)

var queryFields = map[string]query.Field{
	"title":                {Column: "title", Kind: query.String},
	"description":          {Column: "description", Kind: query.String},
	"weeks":                {Column: "weeks", Kind: query.Number},
	"tuition":              {Column: "tuition", Kind: query.Number},
	"minimumSkill":         {Column: "minimum_skill", Kind: query.String},
	"scholarshipAvailable": {Column: "scholarship_available", Kind: query.Bool},
	"bootcampId":           {Column: "bootcamp_id", Kind: query.Number},
	"createdAt":            {Column: "created_at", Kind: query.Time},
}

// parentColumns is what a course shows of its bootcamp
var parentColumns = []string{"id", "name", "description"}

// CourseHandler handles course-related requests
type CourseHandler struct {
	db           *gorm.DB
	service      *services.CourseService
	validator    *validation.Validator
	maxPageLimit int
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, service *services.CourseService, maxPageLimit int) *CourseHandler {
	return &CourseHandler{
		db:           db,
		service:      service,
		validator:    validation.NewValidator(),
		maxPageLimit: maxPageLimit,
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title                string   `json:"title" validate:"required,max=100"`
	Description          string   `json:"description" validate:"required"`
	Weeks                int      `json:"weeks" validate:"required,min=1"`
	Tuition              *float64 `json:"tuition" validate:"required,gte=0"`
	MinimumSkill         string   `json:"minimumSkill" validate:"required,oneof=beginner intermediate advanced"`
	ScholarshipAvailable bool     `json:"scholarshipAvailable"`
}

// UpdateCourseRequest is a partial update; nil fields are left unchanged.
// The bootcamp a course belongs to cannot be changed.
type UpdateCourseRequest struct {
	Title                *string  `json:"title"`
	Description          *string  `json:"description"`
	Weeks                *int     `json:"weeks"`
	Tuition              *float64 `json:"tuition"`
	MinimumSkill         *string  `json:"minimumSkill"`
	ScholarshipAvailable *bool    `json:"scholarshipAvailable"`
}

func (r *CreateCourseRequest) applyTo(c *model.Course) {
	c.Title = r.Title
	c.Description = r.Description
	c.Weeks = r.Weeks
	c.Tuition = *r.Tuition
	c.MinimumSkill = r.MinimumSkill
	c.ScholarshipAvailable = r.ScholarshipAvailable
}

func (h *CourseHandler) loadBootcamp(c *fiber.Ctx, id uint) (*model.Bootcamp, error) {
	var bootcamp model.Bootcamp
	if err := h.db.WithContext(c.UserContext()).First(&bootcamp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("No bootcamp with id of %d", id)
		}
		return nil, err
	}
	return &bootcamp, nil
}

func (h *CourseHandler) loadCourse(c *fiber.Ctx, withParent bool) (*model.Course, error) {
	id, err := handlers.ParamID(c, "id", "Course")
	if err != nil {
		return nil, err
	}

	db := h.db.WithContext(c.UserContext())
	if withParent {
		db = db.Preload("Bootcamp", func(tx *gorm.DB) *gorm.DB {
			return tx.Select(parentColumns)
		})
	}

	var course model.Course
	if err := db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Course not found with id of %d", id)
		}
		return nil, err
	}
	return &course, nil
}

// authorizeOwner fails unless the current user may modify bootcamp's courses
func authorizeOwner(c *fiber.Ctx, bootcamp *model.Bootcamp) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("Not authorized to access this route")
	}
	if !bootcamp.OwnedBy(user) {
		return apperror.Forbidden("User %d is not authorized to modify courses of bootcamp %d", user.ID, bootcamp.ID)
	}
	return nil
}

// ListCourses handles GET /api/v1/courses and GET /api/v1/bootcamps/:bootcampId/courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	if c.Params("bootcampId") != "" {
		bootcampID, err := handlers.ParamID(c, "bootcampId", "Bootcamp")
		if err != nil {
			return err
		}
		if _, err := h.loadBootcamp(c, bootcampID); err != nil {
			return err
		}

		courses := make([]model.Course, 0)
		if err := h.db.WithContext(c.UserContext()).
			Where("bootcamp_id = ?", bootcampID).
			Order("id").
			Find(&courses).Error; err != nil {
			return err
		}
		return response.List(c, courses, len(courses), nil)
	}

	result, err := query.Find[model.Course](c.UserContext(), h.db, c.Queries(), query.Options{
		Fields:   queryFields,
		Expand:   []query.Expansion{{Relation: "Bootcamp", JSONKey: "bootcamp", Columns: parentColumns}},
		MaxLimit: h.maxPageLimit,
	})
	if err != nil {
		return err
	}
	return response.List(c, result.Data, result.Count, result.Pagination)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.loadCourse(c, true)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.Map{"course": course})
}

// AddCourse handles POST /api/v1/bootcamps/:bootcampId/courses
func (h *CourseHandler) AddCourse(c *fiber.Ctx) error {
	bootcampID, err := handlers.ParamID(c, "bootcampId", "Bootcamp")
	if err != nil {
		return err
	}
	bootcamp, err := h.loadBootcamp(c, bootcampID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(c, bootcamp); err != nil {
		return err
	}

	var req CreateCourseRequest
	if err := handlers.ParseBody(c, h.validator, &req); err != nil {
		return err
	}

	course := model.Course{BootcampID: bootcamp.ID}
	req.applyTo(&course)

	if err := h.service.Create(c.UserContext(), &course); err != nil {
		return err
	}

	return response.Created(c, fiber.Map{"course": course})
}

// UpdateCourse handles PATCH /api/v1/courses/:id
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	course, err := h.loadCourse(c, false)
	if err != nil {
		return err
	}
	bootcamp, err := h.loadBootcamp(c, course.BootcampID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(c, bootcamp); err != nil {
		return err
	}

	var patch UpdateCourseRequest
	if err := c.BodyParser(&patch); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	tuition := course.Tuition
	req := CreateCourseRequest{
		Title:                course.Title,
		Description:          course.Description,
		Weeks:                course.Weeks,
		Tuition:              &tuition,
		MinimumSkill:         course.MinimumSkill,
		ScholarshipAvailable: course.ScholarshipAvailable,
	}
	if patch.Title != nil {
		req.Title = *patch.Title
	}
	if patch.Description != nil {
		req.Description = *patch.Description
	}
	if patch.Weeks != nil {
		req.Weeks = *patch.Weeks
	}
	if patch.Tuition != nil {
		req.Tuition = patch.Tuition
	}
	if patch.MinimumSkill != nil {
		req.MinimumSkill = *patch.MinimumSkill
	}
	if patch.ScholarshipAvailable != nil {
		req.ScholarshipAvailable = *patch.ScholarshipAvailable
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return err
	}
	req.applyTo(course)

	if err := h.service.Update(c.UserContext(), course); err != nil {
		return err
	}

	return response.Success(c, fiber.Map{"course": course})
}

// DeleteCourse handles DELETE /api/v1/courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	course, err := h.loadCourse(c, false)
	if err != nil {
		return err
	}
	bootcamp, err := h.loadBootcamp(c, course.BootcampID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(c, bootcamp); err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), course); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
