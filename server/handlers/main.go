package handlers

import (
	"context"
	"errors"
	"net/http"

	"hlsgate/models"
	"hlsgate/util"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

type KeyDeriver interface {
	Derive(ctx context.Context, playAuth string, kid string) (models.DerivedKey, error)
}

type ProxyGateway interface {
	Handle(ctx context.Context, target string, kid string) (*models.ProxyResponse, error)
}

type KeyCounter interface {
	Len() int
}

type Handlers struct {
	deriver KeyDeriver
	gateway ProxyGateway
	keys    KeyCounter
}

func New(deriver KeyDeriver, gateway ProxyGateway, keys KeyCounter) *Handlers {
	return &Handlers{
		deriver: deriver,
		gateway: gateway,
		keys:    keys,
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	data, err := sonic.ConfigDefault.Marshal(value)
	if err != nil {
		zap.S().Errorf("failed to encode response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &models.ErrorResponse{Error: err.Error()})
}

// maps an error to the status code the client sees
func statusFor(err error) int {
	switch {
	case errors.Is(err, util.ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
