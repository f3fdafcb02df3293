package comic

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
	r.HandleFunc("/api/comic/layouts", h.Layouts).Methods("GET")
	r.HandleFunc("/api/comic/breakdown", h.Breakdown).Methods("POST")
	r.HandleFunc("/api/comic/generate", h.Generate).Methods("POST")
	r.HandleFunc("/api/comic/characters", h.CreateCharacter).Methods("POST")
	r.HandleFunc("/api/users/{userId}/comic/characters", h.ListCharacters).Methods("GET")
	r.HandleFunc("/api/users/{userId}/comic/characters/{characterId}", h.DeleteCharacter).Methods("DELETE")
}

func (h *Handler) Layouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"layouts": Layouts()})
}

type breakdownRequest struct {
	UserID     string      `json:"userId"`
	Story      string      `json:"story"`
	LayoutID   string      `json:"layoutId"`
	Characters []Character `json:"characters"`
}

func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	var req breakdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	panels, err := h.service.BreakdownStory(r.Context(), req.Story, req.LayoutID, req.Characters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"panels": panels})
}

type generateRequest struct {
	UserID  string  `json:"userId"`
	Project Project `json:"project"`
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if req.UserID == "" {
		writeError(w, &model.ValidationError{Field: "userId", Reason: "required"})
		return
	}

	asset, err := h.service.GenerateComic(r.Context(), req.UserID, req.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"asset": asset})
}

type characterRequest struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// When true, a reference-sheet portrait is generated before saving.
	GeneratePortrait bool `json:"generatePortrait"`
}

func (h *Handler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if req.UserID == "" {
		writeError(w, &model.ValidationError{Field: "userId", Reason: "required"})
		return
	}

	var portrait *model.EmbeddedImage
	if req.GeneratePortrait {
		image, err := h.service.GenerateCharacterSheet(r.Context(), req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		portrait = image
	}

	character, err := h.service.SaveCharacter(r.Context(), req.UserID, req.Name, req.Description, portrait)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"character": character})
}

func (h *Handler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	characters, err := h.service.ListCharacters(mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"characters": characters})
}

func (h *Handler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.service.DeleteCharacter(r.Context(), vars["userId"], vars["characterId"]); err != nil {
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

func writeError(w http.ResponseWriter, err error) {
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
}
