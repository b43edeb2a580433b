package config

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// InitLogger initializes and returns the structured service logger.
func InitLogger(level string) zerolog.Logger {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsedLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(parsedLevel)

	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "modelrelay").Logger()
}
