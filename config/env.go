package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"hlsgate/models"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var Env = GetDefaultConfig()

func LoadEnv() error {
	if value := os.Getenv("HOST"); value != "" {
		Env.Host = value
	}
	if value := os.Getenv("PORT"); value != "" {
		if port, err := strconv.Atoi(value); err == nil {
			Env.Port = port
		} else {
			zap.S().Fatal("PORT env is not a valid integer")
		}
	} else {
		zap.S().Warnf("PORT is not set, using default %d", Env.Port)
	}
	if value := os.Getenv("PROXY_PATH_PREFIX"); value != "" {
		Env.ProxyPathPrefix = value
	}
	if value := os.Getenv("ORIGIN_TIMEOUT"); value != "" {
		if timeout, err := time.ParseDuration(value); err == nil {
			Env.OriginTimeout = timeout
		} else {
			zap.S().Fatalf("ORIGIN_TIMEOUT env is not a valid duration: %v", err)
		}
	}
	if value := os.Getenv("MAX_BODY_SIZE"); value != "" {
		if size, err := humanize.ParseBytes(value); err == nil {
			Env.MaxBodySize = int64(size)
		} else {
			zap.S().Fatalf("MAX_BODY_SIZE env is not a valid size: %v", err)
		}
	}
	if value := os.Getenv("USER_AGENT"); value != "" {
		Env.UserAgent = value
	}
	if value := os.Getenv("EXCHANGE_URL"); value != "" {
		Env.ExchangeURL = value
	} else {
		zap.S().Warn("EXCHANGE_URL is not set, only static keys can be derived")
	}
	if value := os.Getenv("EXCHANGE_TIMEOUT"); value != "" {
		if timeout, err := time.ParseDuration(value); err == nil {
			Env.ExchangeTimeout = timeout
		} else {
			zap.S().Fatalf("EXCHANGE_TIMEOUT env is not a valid duration: %v", err)
		}
	}
	if value := os.Getenv("ALLOWED_ORIGINS"); value != "" {
		Env.AllowedOrigins = parseList(value)
	}
	if value := os.Getenv("SHUTDOWN_TIMEOUT"); value != "" {
		if timeout, err := time.ParseDuration(value); err == nil {
			Env.ShutdownTimeout = timeout
		} else {
			zap.S().Fatalf("SHUTDOWN_TIMEOUT env is not a valid duration: %v", err)
		}
	}
	if value := os.Getenv("HTTP_PROXY"); value != "" {
		Env.HTTPProxy = value
	}
	if value := os.Getenv("HTTPS_PROXY"); value != "" {
		Env.HTTPSProxy = value
	}
	if value := os.Getenv("NO_PROXY"); value != "" {
		Env.NoProxy = value
	}
	if value := os.Getenv("CONFIG_FILE"); value != "" {
		Env.ConfigFile = value
	}
	if value := os.Getenv("LOG_LEVEL"); value != "" {
		Env.LogLevel = value
	}
	if value := os.Getenv("LOG_FILE"); value != "" {
		if logFile, err := strconv.ParseBool(value); err == nil {
			Env.LogFile = logFile
		} else {
			zap.S().Fatal("LOG_FILE env is not a valid boolean")
		}
	}
	return nil
}

func GetDefaultConfig() *models.EnvConfig {
	return &models.EnvConfig{
		Port:            3027,
		ProxyPathPrefix: "/proxy",

		OriginTimeout: 15 * time.Second,
		MaxBodySize:   256 * 1024 * 1024,
		UserAgent:     "Mozilla/5.0",

		ExchangeTimeout: 15 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		ConfigFile: "hlsgate.yaml",
		LogLevel:   "info",
	}
}

func parseList(value string) []string {
	list := strings.Split(value, ",")
	result := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
