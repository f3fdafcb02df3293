package analyze

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
	"github.com/metnitcs/esay-ai-shop/modules/common/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/analyze", h.Analyze).Methods("POST")
}

type analyzeRequest struct {
	UserID       string `json:"userId"`
	Prompt       string `json:"prompt"`
	ImageDataURI string `json:"imageDataUri"`
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == "" || req.ImageDataURI == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userId and imageDataUri are required"})
		return
	}

	image, err := utils.ParseDataURI(req.ImageDataURI)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.service.Analyze(r.Context(), req.UserID, req.Prompt, image)
	if err != nil {
		status := http.StatusInternalServerError
		var validationErr *model.ValidationError
		var generationErr *model.GenerationError
		switch {
		case errors.As(err, &validationErr):
			status = http.StatusBadRequest
		case errors.As(err, &generationErr):
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"analysis": result})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
