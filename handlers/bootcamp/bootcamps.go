package bootcamp

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/handlers"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/services"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/middleware"
	"github.com/sahilchouksey/devcamper-api/utils/query"
	"github.com/sahilchouksey/devcamper-api/utils/response"
	"github.com/sahilchouksey/devcamper-api/utils/upload"
	"github.com/sahilchouksey/devcamper-api/utils/validation"
	"gorm.io/gorm"
)

// PhotoField is the multipart field photos are uploaded in
const PhotoField = "photo"

var queryFields = map[string]query.Field{
	"name":             {Column: "name", Kind: query.String},
	"slug":             {Column: "slug", Kind: query.String},
	"description":      {Column: "description", Kind: query.String},
	"website":          {Column: "website", Kind: query.String},
	"phone":            {Column: "phone", Kind: query.String},
	"email":            {Column: "email", Kind: query.String},
	"user":             {Column: "user_id", Kind: query.Number},
	"location":         {Column: "location_formatted_address", Kind: query.String},
	"location.city":    {Column: "location_city", Kind: query.String},
	"location.state":   {Column: "location_state", Kind: query.String},
	"location.zipcode": {Column: "location_zipcode", Kind: query.String},
	"careers":          {Column: "careers", Kind: query.List},
	"housing":          {Column: "housing", Kind: query.Bool},
	"jobAssistance":    {Column: "job_assistance", Kind: query.Bool},
	"jobGuarantee":     {Column: "job_guarantee", Kind: query.Bool},
	"acceptGi":         {Column: "accept_gi", Kind: query.Bool},
	"averageCost":      {Column: "average_cost", Kind: query.Number},
	"photo":            {Column: "photo", Kind: query.String},
	"createdAt":        {Column: "created_at", Kind: query.Time},
}

// Config holds limits for the bootcamp handler
type Config struct {
	MaxPageLimit  int
	MaxFileUpload int64
}

// BootcampHandler handles bootcamp-related requests
type BootcampHandler struct {
	db        *gorm.DB
	service   *services.BootcampService
	validator *validation.Validator
	config    Config
}

// NewBootcampHandler creates a new bootcamp handler
func NewBootcampHandler(db *gorm.DB, service *services.BootcampService, config Config) *BootcampHandler {
	return &BootcampHandler{
		db:        db,
		service:   service,
		validator: validation.NewValidator(),
		config:    config,
	}
}

func (h *BootcampHandler) queryOptions() query.Options {
	return query.Options{
		Fields:   queryFields,
		Expand:   []query.Expansion{{Relation: "Courses", JSONKey: "courses"}},
		MaxLimit: h.config.MaxPageLimit,
	}
}

// load fetches a bootcamp by the :id route param
func (h *BootcampHandler) load(c *fiber.Ctx, preload bool) (*model.Bootcamp, error) {
	id, err := handlers.ParamID(c, "id", "Bootcamp")
	if err != nil {
		return nil, err
	}

	db := h.db.WithContext(c.UserContext())
	if preload {
		db = db.Preload("Courses")
	}

	var bootcamp model.Bootcamp
	if err := db.First(&bootcamp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Bootcamp not found with id of %d", id)
		}
		return nil, err
	}
	return &bootcamp, nil
}

// loadOwned fetches a bootcamp the current user may modify
func (h *BootcampHandler) loadOwned(c *fiber.Ctx) (*model.Bootcamp, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, apperror.Unauthorized("Not authorized to access this route")
	}

	bootcamp, err := h.load(c, false)
	if err != nil {
		return nil, err
	}

	if !bootcamp.OwnedBy(user) {
		return nil, apperror.Forbidden("User %d is not authorized to modify this bootcamp", user.ID)
	}
	return bootcamp, nil
}

// GetBootcamps handles GET /api/v1/bootcamps
func (h *BootcampHandler) GetBootcamps(c *fiber.Ctx) error {
	result, err := query.Find[model.Bootcamp](c.UserContext(), h.db, c.Queries(), h.queryOptions())
	if err != nil {
		return err
	}
	return response.List(c, result.Data, result.Count, result.Pagination)
}

// GetBootcamp handles GET /api/v1/bootcamps/:id
func (h *BootcampHandler) GetBootcamp(c *fiber.Ctx) error {
	bootcamp, err := h.load(c, true)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.Map{"bootcamp": bootcamp})
}

// CreateBootcamp handles POST /api/v1/bootcamps
func (h *BootcampHandler) CreateBootcamp(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("Not authorized to access this route")
	}

	var req BootcampRequest
	if err := handlers.ParseBody(c, h.validator, &req); err != nil {
		return err
	}

	bootcamp := model.Bootcamp{UserID: user.ID}
	req.applyTo(&bootcamp)

	if err := h.service.Create(c.UserContext(), &bootcamp); err != nil {
		return err
	}

	return response.Created(c, fiber.Map{"bootcamp": bootcamp})
}

// UpdateBootcamp handles PATCH /api/v1/bootcamps/:id
func (h *BootcampHandler) UpdateBootcamp(c *fiber.Ctx) error {
	bootcamp, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	var patch BootcampPatch
	if err := c.BodyParser(&patch); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	req := requestFrom(bootcamp)
	patch.applyTo(&req)
	if err := h.validator.ValidateStruct(&req); err != nil {
		return err
	}

	previous := *bootcamp
	req.applyTo(bootcamp)

	if err := h.service.Update(c.UserContext(), bootcamp, previous); err != nil {
		return err
	}

	return response.Success(c, fiber.Map{"bootcamp": bootcamp})
}

// DeleteBootcamp handles DELETE /api/v1/bootcamps/:id
func (h *BootcampHandler) DeleteBootcamp(c *fiber.Ctx) error {
	bootcamp, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), bootcamp); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetBootcampsInRadius handles GET /api/v1/bootcamps/radius/:zipcode/:distance
func (h *BootcampHandler) GetBootcampsInRadius(c *fiber.Ctx) error {
	zipcode := c.Params("zipcode")
	distance, err := strconv.ParseFloat(c.Params("distance"), 64)
	if err != nil {
		return apperror.BadRequest("Distance must be a number")
	}

	bootcamps, err := h.service.InRadius(c.UserContext(), zipcode, distance)
	if err != nil {
		return err
	}

	count := len(bootcamps)
	return c.Status(fiber.StatusOK).JSON(response.Response{
		Status: response.StatusSuccess,
		Count:  &count,
		Data:   fiber.Map{"bootcamps": bootcamps},
	})
}

// UploadPhoto handles PATCH /api/v1/bootcamps/:id/photo
func (h *BootcampHandler) UploadPhoto(c *fiber.Ctx) error {
	bootcamp, err := h.loadOwned(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile(PhotoField)
	if err != nil {
		return apperror.BadRequest("Please upload a photo")
	}

	img, err := upload.ValidateImage(fileHeader, upload.ImageLimits{MaxFileSize: h.config.MaxFileUpload})
	if err != nil {
		var vErr *upload.ValidationError
		if errors.As(err, &vErr) {
			return apperror.BadRequest("%s", vErr.Message)
		}
		return apperror.Internal(err, "Problem with file upload")
	}

	if err := h.service.SetPhoto(c.UserContext(), bootcamp, img); err != nil {
		return err
	}

	return response.Success(c, fiber.Map{"photo": *bootcamp.Photo})
}
