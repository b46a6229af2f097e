package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"hlsgate/util"

	"go.uber.org/zap"
)

func (h *Handlers) ProxyHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	target := query.Get("url")
	kid := query.Get("kid")
	if target == "" {
		err := fmt.Errorf("%w: url", util.ErrMissingParameter)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	response, err := h.gateway.Handle(r.Context(), target, kid)
	if err != nil {
		if r.Context().Err() != nil {
			zap.S().Debugf("client went away while proxying %s", target)
			return
		}
		zap.S().Warnf("proxy %s: %v", target, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	zap.S().Debugf(
		"proxied %s as %s (decrypted=%t)",
		target, response.Kind, response.Decrypted,
	)
	w.Header().Set("Content-Type", response.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(response.Body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	w.Write(response.Body)
}
