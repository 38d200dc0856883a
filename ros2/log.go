package ros2

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// DefaultLogger returns the process wide logging instance. The first call
// configures it: full timestamps on the text formatter, and the severity
// taken from the ROS2_LOG_LEVEL environment variable (any logrus level
// name; info when unset or unparsable).
func DefaultLogger() *logrus.Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if value, ok := os.LookupEnv("ROS2_LOG_LEVEL"); ok {
			if level, err := logrus.ParseLevel(value); err == nil {
				logger.SetLevel(level)
			} else {
				logger.Warnf("Ignoring ROS2_LOG_LEVEL %q: %v", value, err)
			}
		}
	}
	return logger
}

// NewLogger returns a new logger independent of the default instance
func NewLogger() *logrus.Logger {
	return logrus.New()
}
