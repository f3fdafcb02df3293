package creator

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/metnitcs/esay-ai-shop/modules/common/fallback"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
	"github.com/metnitcs/esay-ai-shop/modules/common/utils"
)

// Handler exposes the creator wizard over HTTP. Each endpoint maps to
// one wizard transition.
type Handler struct {
	sessions *SessionStore
	pipeline *Pipeline
	worker   *Worker
	hub      *Hub
}

func NewHandler(sessions *SessionStore, pipeline *Pipeline, worker *Worker, hub *Hub) *Handler {
	return &Handler{
		sessions: sessions,
		pipeline: pipeline,
		worker:   worker,
		hub:      hub,
	}
}

// RegisterRoutes wires the creator endpoints onto the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/creator/sessions", h.CreateSession).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}", h.GetSession).Methods("GET")
	r.HandleFunc("/api/creator/sessions/{sessionId}/product", h.SubmitProduct).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}/generate-assets", h.GenerateAssets).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}/select", h.SelectImages).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}/script", h.UpdateScript).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}/settings", h.ConfigureVideo).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}/render", h.Render).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}/reset", h.Reset).Methods("POST")
	r.HandleFunc("/api/creator/sessions/{sessionId}", h.CloseSession).Methods("DELETE")
	r.HandleFunc("/ws/creator/{sessionId}", h.hub.ServeWS)
}

type createSessionRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, &model.ValidationError{Field: "userId", Reason: "required"})
		return
	}

	project := h.sessions.Create(req.UserID)
	log.Printf("🆕 Creator session opened: %s (user %s)", project.ID, req.UserID)
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.sessions.Snapshot(mux.Vars(r)["sessionId"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type productRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	TargetAudience string `json:"targetAudience"`
	ProductType    string `json:"productType"`
	ImageDataURI   string `json:"imageDataUri"`
}

func (h *Handler) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	product := ProductInfo{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		TargetAudience: req.TargetAudience,
		ProductType:    req.ProductType,
	}
	if req.ImageDataURI != "" {
		image, err := utils.ParseDataURI(req.ImageDataURI)
		if err != nil {
			writeError(w, err)
			return
		}
		product.Image = image
	}

	err := h.sessions.With(mux.Vars(r)["sessionId"], func(project *Project) error {
		return h.pipeline.SubmitProduct(project, product)
	})
	h.respond(w, r, err)
}

type characterRequest struct {
	Gender           string  `json:"gender"`
	Ethnicity        string  `json:"ethnicity"`
	SkinTone         string  `json:"skinTone"`
	BodyType         string  `json:"bodyType"`
	ReferenceType    string  `json:"referenceType"`
	ReferenceDataURI string  `json:"referenceDataUri"`
	Caption          Caption `json:"caption"`
}

// GenerateAssets runs the script plus image batch synchronously. It is
// the slowest inline endpoint, a handful of sequential model calls.
func (h *Handler) GenerateAssets(w http.ResponseWriter, r *http.Request) {
	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	character := CharacterInfo{
		Gender:        fallback.SafeString(req.Gender, "female"),
		Ethnicity:     fallback.SafeString(req.Ethnicity, "Southeast Asian"),
		SkinTone:      fallback.SafeString(req.SkinTone, "tan"),
		BodyType:      fallback.SafeString(req.BodyType, "slim"),
		ReferenceType: fallback.SafeString(req.ReferenceType, ReferenceProductImage),
		Caption:       req.Caption,
	}
	if req.ReferenceDataURI != "" {
		image, err := utils.ParseDataURI(req.ReferenceDataURI)
		if err != nil {
			writeError(w, err)
			return
		}
		character.ReferenceImage = image
	}

	project, ok := h.sessions.Get(mux.Vars(r)["sessionId"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	err := h.pipeline.GenerateAssets(r.Context(), project, character)
	h.respond(w, r, err)
}

type selectRequest struct {
	ImageIDs []string `json:"imageIds"`
}

func (h *Handler) SelectImages(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	err := h.sessions.With(mux.Vars(r)["sessionId"], func(project *Project) error {
		return h.pipeline.SelectImages(project, req.ImageIDs)
	})
	h.respond(w, r, err)
}

type scriptRequest struct {
	Script string `json:"script"`
}

func (h *Handler) UpdateScript(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	err := h.sessions.With(mux.Vars(r)["sessionId"], func(project *Project) error {
		h.pipeline.UpdateScript(project, req.Script)
		return nil
	})
	h.respond(w, r, err)
}

type settingsRequest struct {
	VideoLength int `json:"videoLength"`
}

func (h *Handler) ConfigureVideo(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	err := h.sessions.With(mux.Vars(r)["sessionId"], func(project *Project) error {
		return h.pipeline.ConfigureVideo(project, req.VideoLength)
	})
	h.respond(w, r, err)
}

// Render queues the clip generation job. Progress streams over the
// session's WebSocket; the final state lands on the session resource.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	snapshot, ok := h.sessions.Snapshot(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if snapshot.Step != StepSettings {
		writeError(w, &model.ValidationError{Field: "step", Reason: "configure the video before rendering"})
		return
	}
	if len(snapshot.SelectedImageIDs) == 0 {
		writeError(w, &model.ValidationError{Field: "selectedImageIds", Reason: "select at least one image"})
		return
	}

	if err := h.worker.Enqueue(r.Context(), sessionID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to queue rendering job"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "sessionId": sessionID})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.With(mux.Vars(r)["sessionId"], func(project *Project) error {
		h.pipeline.Reset(project)
		return nil
	})
	h.respond(w, r, err)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	h.sessions.Drop(sessionID)
	log.Printf("👋 Creator session closed: %s", sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	snapshot, _ := h.sessions.Snapshot(mux.Vars(r)["sessionId"])
	writeJSON(w, http.StatusOK, snapshot)
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
