package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Production gets JSON; APP_ENV=development
// gets the console encoder. LOG_LEVEL (debug|info|warn|error) overrides the level.
func New(appEnv string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if strings.EqualFold(appEnv, "development") {
		config = zap.NewDevelopmentConfig()
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		l, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		config.Level = zap.NewAtomicLevelAt(l)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
