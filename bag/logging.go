// Package bag bundles the error kinds and the logging layer shared by
// all packages of this module.
package bag

import (
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// Logging
// The level constants and the Log* helpers mirror the logrus API, so
// callers never import logrus directly.
var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"component", "session"},
	})

	log.SetOutput(os.Stdout)
}

// Level type
type Level uint32

// SetLogLevel sets the logging level
func SetLogLevel(level Level) {
	switch level {
	case PanicLevel:
		log.SetLevel(logrus.PanicLevel)
	case FatalLevel:
		log.SetLevel(logrus.FatalLevel)
	case ErrorLevel:
		log.SetLevel(logrus.ErrorLevel)
	case WarnLevel:
		log.SetLevel(logrus.WarnLevel)
	case InfoLevel:
		log.SetLevel(logrus.InfoLevel)
	case DebugLevel:
		log.SetLevel(logrus.DebugLevel)
	case TraceLevel:
		log.SetLevel(logrus.TraceLevel)
	}
}

const (
	// PanicLevel logs and then panics with the message.
	PanicLevel Level = iota
	// FatalLevel logs and then exits the process.
	FatalLevel
	// ErrorLevel is for errors that should definitely be noted.
	ErrorLevel
	// WarnLevel is for non-critical entries that deserve eyes.
	WarnLevel
	// InfoLevel is for general operational entries, one per imported
	// image.
	InfoLevel
	// DebugLevel adds cache and pipeline details.
	DebugLevel
	// TraceLevel is the most verbose level.
	TraceLevel
)

// LogError logs with log level ErrorLevel
func LogError(args ...interface{}) {
	log.Error(args...)
}

// LogWarn logs with log level WarnLevel
func LogWarn(args ...interface{}) {
	log.Warn(args...)
}

// LogInfo logs with log level InfoLevel
func LogInfo(args ...interface{}) {
	log.Info(args...)
}

// LogDebug logs with log level DebugLevel
func LogDebug(args ...interface{}) {
	log.Debug(args...)
}

// LogTrace logs with log level TraceLevel
func LogTrace(args ...interface{}) {
	log.Trace(args...)
}

// Fields type, used to pass to `WithFields`.
type Fields map[string]interface{}

// LogWithFields sets key values for additional logging
func LogWithFields(f Fields) *logrus.Entry {
	return log.WithFields(logrus.Fields(f))
}
