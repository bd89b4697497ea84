package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger and returns it. Log level and
// output format are controlled by FRAGSTORE_LOG_LEVEL and FRAGSTORE_LOG_PRETTY.
func Init() zerolog.Logger {
	level := parseLevel(os.Getenv("FRAGSTORE_LOG_LEVEL"))

	var logger zerolog.Logger
	if isPretty() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		}
		logger = zerolog.New(output)
	} else {
		logger = zerolog.New(os.Stderr)
	}

	logger = logger.Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func parseLevel(raw string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func isPretty() bool {
	switch strings.ToLower(os.Getenv("FRAGSTORE_LOG_PRETTY")) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}
