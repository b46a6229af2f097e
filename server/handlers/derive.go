package handlers

import (
	"fmt"
	"net/http"

	"hlsgate/models"
	"hlsgate/util"

	"go.uber.org/zap"
)

func (h *Handlers) DeriveKeyHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	playAuth := query.Get("playAuth")
	kid := query.Get("kid")
	if playAuth == "" || kid == "" {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf(
			"%w: playAuth and kid are required", util.ErrMissingParameter,
		))
		return
	}

	key, err := h.deriver.Derive(r.Context(), playAuth, kid)
	if err != nil {
		zap.S().Errorf("derive key: %v", err)
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, &models.DeriveKeyResponse{
		KID:       kid,
		KeyLength: len(key),
		Cached:    true,
	})
}
