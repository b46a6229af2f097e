package config

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func Load() {
	if err := godotenv.Load(); err != nil {
		zap.S().Debug("no .env file found, using process environment")
	}
	if err := LoadEnv(); err != nil {
		zap.S().Fatalf("failed to load env: %v", err)
	}
	if err := LoadFile(Env.ConfigFile); err != nil {
		zap.S().Fatalf("failed to load config file: %v", err)
	}
	zap.S().Debugf(
		"loaded %d origin configs and %d static keys",
		len(originConfigs), len(staticKeys),
	)
}
