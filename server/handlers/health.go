package handlers

import (
	"net/http"

	"hlsgate/models"
)

func (h *Handlers) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &models.HealthResponse{
		Status: "ok",
		Keys:   h.keys.Len(),
	})
}
