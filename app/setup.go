package app

import (
	"context"
	"fmt"
	"time"

	"github.com/op/go-logging"
	"github.com/sahilchouksey/devcamper-api/api"
	"github.com/sahilchouksey/devcamper-api/config"
	"github.com/sahilchouksey/devcamper-api/database"
	"github.com/sahilchouksey/devcamper-api/router"
	"github.com/sahilchouksey/devcamper-api/services"
	"github.com/sahilchouksey/devcamper-api/services/cron"
	"github.com/sahilchouksey/devcamper-api/services/geocoder"
	"github.com/sahilchouksey/devcamper-api/services/storage"
	"github.com/sahilchouksey/devcamper-api/utils/auth"
	"github.com/sahilchouksey/devcamper-api/utils/cache"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"github.com/sahilchouksey/devcamper-api/utils/middleware"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	defaultLevel := logging.DEBUG
	if env.IsProduction() {
		defaultLevel = logging.INFO
	}
	logger.InitLogger(logger.ParseLevel(env.LOG_LEVEL, defaultLevel))

	// Initialize GORM database connection
	store, err := database.StartGORM(env)
	if err != nil {
		logger.Error("Check whether the Postgres is running or not")
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		logger.Error("Failed to initialize database tables")
		return err
	}
	db := store.GetDB()

	// Redis backs the geocode cache and brute force protection
	redisCache, err := cache.NewRedisCache(env.REDIS_URL)
	if err != nil {
		logger.Warningf("Failed to connect to Redis: %v. Brute force protection and geocode caching will be disabled.", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	var geo geocoder.Geocoder
	if env.GEOCODER_API_KEY != "" {
		geo = geocoder.NewMapQuest(geocoder.MapQuestConfig{
			APIKey:  env.GEOCODER_API_KEY,
			BaseURL: env.GEOCODER_BASE_URL,
			Timeout: 10 * time.Second,
		})
		if redisCache != nil {
			geo = geocoder.NewCached(geo, redisCache, env.GEOCODE_CACHE_TTL)
		}
	} else {
		logger.Warning("GEOCODER_API_KEY not set: new bootcamps will have no location and radius search is unavailable")
	}

	photos, err := storage.New(env)
	if err != nil {
		return fmt.Errorf("failed to initialize photo storage: %w", err)
	}
	uploadDir := ""
	if local, ok := photos.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: env.JWT_EXPIRE,
		Issuer: env.JWT_ISSUER,
	})
	blacklistService := auth.NewBlacklistService(db)
	courseService := services.NewCourseService(db)

	// Initialize Cron Manager (only if enabled via environment variable)
	if env.CRON_ENABLED {
		cronManager := cron.NewCronManager(db, courseService, blacklistService)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			logger.Warningf("Failed to start cron jobs: %v", err)
		} else {
			defer cronManager.Stop()
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), api.Config{
		Production: env.IsProduction(),
		BodyLimit:  api.BodyLimitFor(env.MAX_FILE_UPLOAD),
	})
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_REQUESTS,
		RateLimitWindow:   time.Minute,
		RequestLogging:    !env.IsProduction(),
	})

	// Setup Routes
	router.SetupRoutes(app, router.Dependencies{
		DB:         db,
		Health:     store,
		JWT:        jwtManager,
		Blacklist:  blacklistService,
		BruteForce: bruteForceProtection,
		Geocoder:   geo,
		Photos:     photos,
		Courses:    courseService,
	}, router.Config{
		RoleGate:         env.ROLE_GATE_ENABLED,
		MaxPageLimit:     env.MAX_PAGE_LIMIT,
		MaxFileUpload:    env.MAX_FILE_UPLOAD,
		CookieExpireDays: env.JWT_COOKIE_EXPIRE,
		SecureCookie:     env.IsProduction(),
		UploadDir:        uploadDir,
	})

	return server.Run(context.Background())
}
