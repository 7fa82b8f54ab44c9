// Package logger provides the process-wide leveled logger used by the API,
// the seeder and the cron jobs.
package logger

import (
	"os"
	"strings"

	"github.com/op/go-logging"
)

const (
	moduleName = "devcamper"
	timeFormat = "2006/01/02 15:04:05"
)

var log = logging.MustGetLogger(moduleName)

func init() {
	InitLogger(logging.INFO)
}

// InitLogger replaces the backend with a stderr backend at the given level.
func InitLogger(level logging.Level) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`%{time:` + timeFormat + `} %{level:.4s} - %{message}`)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, format))
	leveled.SetLevel(level, moduleName)
	log.SetBackend(leveled)
}

// ParseLevel maps a LOG_LEVEL value to a logging level. Empty or unknown
// values resolve to fallback.
func ParseLevel(value string, fallback logging.Level) logging.Level {
	if value == "" {
		return fallback
	}
	level, err := logging.LogLevel(strings.ToUpper(value))
	if err != nil {
		return fallback
	}
	return level
}

func Debug(args ...interface{}) {
	log.Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Info(args ...interface{}) {
	log.Info(args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Warning(args ...interface{}) {
	log.Warning(args...)
}

func Warningf(format string, args ...interface{}) {
	log.Warningf(format, args...)
}

func Error(args ...interface{}) {
	log.Error(args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}
