package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger writes timestamped text logs to stderr, at debug level when
// debug is set.
func InitLogger(debug bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})

	logrus.SetLevel(logrus.InfoLevel)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
