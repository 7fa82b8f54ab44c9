package api

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"github.com/sahilchouksey/devcamper-api/utils/response"
)

// ShutdownTimeout bounds how long in-flight requests may take to drain
const ShutdownTimeout = 10 * time.Second

// Config holds server options
type Config struct {
	Production bool
	// BodyLimit is the largest accepted request body in bytes
	BodyLimit int
}

// BodyLimitFor returns a request body limit that leaves room for files
// several times maxUpload, so oversized uploads reach the handler and are
// rejected with a validation error instead of a dropped connection
func BodyLimitFor(maxUpload int64) int {
	limit := int(4*maxUpload) + 64*1024
	if limit < fiber.DefaultBodyLimit {
		return fiber.DefaultBodyLimit
	}
	return limit
}

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string, config Config) *APIServer {
	return &APIServer{
		app:           NewApp(config),
		listenAddress: listenAddress,
	}
}

// NewApp builds the Fiber app with the JSON codec and error handler
// every route relies on
func NewApp(config Config) *fiber.App {
	bodyLimit := config.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}
	return fiber.New(fiber.Config{
		AppName:               "DevCamper API",
		ErrorHandler:          response.ErrorHandler(config.Production),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: config.Production,
	})
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains
// in-flight requests
func (s *APIServer) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", s.listenAddress)
		errCh <- s.app.Listen(s.listenAddress)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down API server")
	if err := s.app.ShutdownWithTimeout(ShutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
