package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hlsgate/config"
	"hlsgate/drm"
	"hlsgate/keystore"
	"hlsgate/logger"
	"hlsgate/playlist"
	"hlsgate/proxy"
	"hlsgate/server"
	"hlsgate/server/handlers"
	"hlsgate/util/networking"

	"go.uber.org/zap"
)

func main() {
	logger.Init("info")
	defer logger.Sync()

	// load environment variables and configurations
	config.Load()

	logger.SetLevel(config.Env.LogLevel)
	logger.SetLogFile(config.Env.LogFile)

	store := keystore.New()
	deriver := drm.NewDeriver(store, newExchanger(), config.Env.ExchangeTimeout)

	originClients := networking.NewOriginClients(config.Env, config.GetOriginConfigs())
	gateway := proxy.NewGateway(store, originClients, &proxy.Options{
		Timeout:     config.Env.OriginTimeout,
		MaxBodySize: config.Env.MaxBodySize,
		Rewriter:    playlist.NewRewriter(config.Env.ProxyPathPrefix),
	})

	router := server.NewRouter(
		handlers.New(deriver, gateway, store),
		config.Env.ProxyPathPrefix,
		config.Env.AllowedOrigins,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", config.Env.Host, config.Env.Port)
	if err := server.Start(ctx, addr, router, config.Env.ShutdownTimeout); err != nil {
		zap.S().Fatalf("server error: %v", err)
	}
}

// static keys from the config file are consulted before the exchange service
func newExchanger() drm.Exchanger {
	var exchangers []drm.Exchanger
	if staticKeys := config.GetStaticKeys(); len(staticKeys) > 0 {
		zap.S().Infof("loaded %d static keys", len(staticKeys))
		exchangers = append(exchangers, drm.NewStaticExchanger(staticKeys))
	}
	if config.Env.ExchangeURL != "" {
		exchangers = append(exchangers, drm.NewHTTPExchanger(
			networking.GetDefaultHTTPClient(),
			config.Env.ExchangeURL,
		))
	}
	if len(exchangers) == 0 {
		zap.S().Warn("no key exchange configured, /derive-key will always fail")
		exchangers = append(exchangers, drm.NewStaticExchanger(nil))
	}
	return drm.Chain(exchangers...)
}
