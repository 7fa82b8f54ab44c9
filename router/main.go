package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/handlers"
	auth_handlers "github.com/sahilchouksey/devcamper-api/handlers/auth"
	bootcamp_handlers "github.com/sahilchouksey/devcamper-api/handlers/bootcamp"
	course_handlers "github.com/sahilchouksey/devcamper-api/handlers/course"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/services"
	"github.com/sahilchouksey/devcamper-api/services/geocoder"
	"github.com/sahilchouksey/devcamper-api/services/storage"
	"github.com/sahilchouksey/devcamper-api/utils/auth"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"github.com/sahilchouksey/devcamper-api/utils/middleware"
	"gorm.io/gorm"
)

// Config holds routing options
type Config struct {
	// RoleGate restricts bootcamp and course writes to publishers and admins
	RoleGate         bool
	MaxPageLimit     int
	MaxFileUpload    int64
	CookieExpireDays int
	SecureCookie     bool
	// UploadDir is served under /uploads when set
	UploadDir string
}

// Dependencies are the shared services the routes are built from
type Dependencies struct {
	DB         *gorm.DB
	Health     handlers.HealthChecker
	JWT        *auth.JWTManager
	Blacklist  *auth.BlacklistService
	BruteForce *middleware.BruteForceProtection
	Geocoder   geocoder.Geocoder
	Photos     storage.PhotoStore
	Courses    *services.CourseService
}

func SetupRoutes(app *fiber.App, deps Dependencies, config Config) {
	courseService := deps.Courses
	if courseService == nil {
		courseService = services.NewCourseService(deps.DB)
	}
	bootcampService := services.NewBootcampService(deps.DB, courseService, deps.Geocoder, deps.Photos)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWT, deps.Blacklist, deps.DB)
	protect := authMiddleware.Protect()

	// Bootcamp and course writes
	writers := []fiber.Handler{protect}
	if config.RoleGate {
		writers = append(writers, middleware.Authorize(model.RolePublisher, model.RoleAdmin))
	} else {
		logger.Warning("ROLE GATE DISABLED: any authenticated user can create, modify and delete bootcamps and courses")
	}
	guarded := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, writers...), h)
	}

	authHandler := auth_handlers.NewAuthHandler(deps.DB, deps.JWT, deps.Blacklist, deps.BruteForce, auth_handlers.CookieConfig{
		ExpireDays: config.CookieExpireDays,
		Secure:     config.SecureCookie,
	})
	bootcampHandler := bootcamp_handlers.NewBootcampHandler(deps.DB, bootcampService, bootcamp_handlers.Config{
		MaxPageLimit:  config.MaxPageLimit,
		MaxFileUpload: config.MaxFileUpload,
	})
	courseHandler := course_handlers.NewCourseHandler(deps.DB, courseService, config.MaxPageLimit)

	// Health check endpoint (public)
	if deps.Health != nil {
		app.Get("/ping", handlers.HandleCheckHealth(deps.Health))
	}

	if config.UploadDir != "" {
		app.Static("/uploads", config.UploadDir)
	}

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", deps.BruteForce.Guard(), authHandler.Login)
	authGroup.Get("/me", protect, authHandler.GetMe)
	authGroup.Get("/logout", protect, authHandler.Logout)

	// Bootcamps routes
	bootcamps := api.Group("/bootcamps")
	bootcamps.Get("/", bootcampHandler.GetBootcamps)
	bootcamps.Get("/radius/:zipcode/:distance", bootcampHandler.GetBootcampsInRadius)
	bootcamps.Get("/:id", bootcampHandler.GetBootcamp)
	bootcamps.Post("/", guarded(bootcampHandler.CreateBootcamp)...)
	bootcamps.Patch("/:id", guarded(bootcampHandler.UpdateBootcamp)...)
	bootcamps.Delete("/:id", guarded(bootcampHandler.DeleteBootcamp)...)
	bootcamps.Patch("/:id/photo", guarded(bootcampHandler.UploadPhoto)...)

	// Courses nested under a bootcamp
	bootcamps.Get("/:bootcampId/courses", courseHandler.ListCourses)
	bootcamps.Post("/:bootcampId/courses", guarded(courseHandler.AddCourse)...)

	// Courses routes
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Patch("/:id", guarded(courseHandler.UpdateCourse)...)
	courses.Delete("/:id", guarded(courseHandler.DeleteCourse)...)
}
