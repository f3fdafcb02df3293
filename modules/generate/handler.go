package generate

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
	r.HandleFunc("/api/generate/image", h.Image).Methods("POST")
	r.HandleFunc("/api/generate/video", h.Video).Methods("POST")
}

type imageRequest struct {
	UserID           string `json:"userId"`
	Prompt           string `json:"prompt"`
	AspectRatio      string `json:"aspectRatio"`
	ReferenceDataURI string `json:"referenceDataUri"`
}

func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if req.UserID == "" {
		writeError(w, &model.ValidationError{Field: "userId", Reason: "required"})
		return
	}

	var reference *model.EmbeddedImage
	if req.ReferenceDataURI != "" {
		image, err := utils.ParseDataURI(req.ReferenceDataURI)
		if err != nil {
			writeError(w, err)
			return
		}
		reference = image
	}

	asset, err := h.service.Image(r.Context(), req.UserID, req.Prompt, req.AspectRatio, reference)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"asset": asset})
}

type videoRequest struct {
	UserID       string `json:"userId"`
	Prompt       string `json:"prompt"`
	AspectRatio  string `json:"aspectRatio"`
	ImageDataURI string `json:"imageDataUri"`
}

func (h *Handler) Video(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if req.UserID == "" {
		writeError(w, &model.ValidationError{Field: "userId", Reason: "required"})
		return
	}

	var startFrame *model.EmbeddedImage
	if req.ImageDataURI != "" {
		image, err := utils.ParseDataURI(req.ImageDataURI)
		if err != nil {
			writeError(w, err)
			return
		}
		startFrame = image
	}

	asset, err := h.service.Video(r.Context(), req.UserID, req.Prompt, req.AspectRatio, startFrame)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"asset": asset})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var validationErr *model.ValidationError
	var authErr *model.AuthorizationRequiredError
	var generationErr *model.GenerationError
	var timeoutErr *model.TimeoutError

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &authErr):
		status = http.StatusForbidden
	case errors.As(err, &generationErr):
		status = http.StatusBadGateway
	case errors.As(err, &timeoutErr):
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
