package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hlsgate/server/handlers"

	"go.uber.org/zap"
)

func NewRouter(
	h *handlers.Handlers,
	proxyPath string,
	allowedOrigins []string,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+proxyPath, h.ProxyHandler)
	mux.HandleFunc("GET /derive-key", h.DeriveKeyHandler)
	mux.HandleFunc("GET /health", h.HealthHandler)

	return recoverMiddleware(
		corsMiddleware(
			allowedOrigins,
			loggingMiddleware(mux),
		),
	)
}

// Start serves handler on addr until ctx is cancelled, then drains
// in-flight requests for at most shutdownTimeout.
func Start(
	ctx context.Context,
	addr string,
	handler http.Handler,
	shutdownTimeout time.Duration,
) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.S().Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
