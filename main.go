package main

import (
	"os"

	"github.com/sahilchouksey/devcamper-api/app"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
)

func main() {
	// setup and run app
	if err := app.SetupAndRunServer(); err != nil {
		logger.Errorf("Server stopped: %v", err)
		os.Exit(1)
	}
}
