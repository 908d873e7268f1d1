package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	// JSON in prod for log collection, plain text locally for readability.
	if os.Getenv("RIVALDECK_ENV") == "prod" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	Log = logger.WithFields(logrus.Fields{
		"service":        serviceName(),
		"is_development": os.Getenv("RIVALDECK_ENV") != "prod",
	})
}

func serviceName() string {
	if name := os.Getenv("RIVALDECK_SERVICE"); name != "" {
		return name
	}
	return "api_server"
}
