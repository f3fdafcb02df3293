package assets

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/users/{userId}/assets", h.ListAssets).Methods("GET")
	r.HandleFunc("/api/users/{userId}/assets/{assetId}", h.DeleteAsset).Methods("DELETE")
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	assetType := model.AssetType(r.URL.Query().Get("type"))

	list, err := h.service.List(userID, assetType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assets": list})
}

func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.service.Delete(r.Context(), vars["userId"], vars["assetId"]); err != nil {
		status := http.StatusInternalServerError
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
