package creator

import (
	"sync"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

// Wizard steps. Transitions move strictly forward on success and fall
// back one step on failure.
const (
	StepProduct   = 1
	StepCharacter = 2
	StepReview    = 3
	StepSettings  = 4
	StepRendering = 5
	StepResult    = 6
)

const clipSeconds = 8

// Caption describes the optional on-image text overlay.
type Caption struct {
	Enabled  bool   `json:"enabled"`
	Text     string `json:"text"`
	Style    string `json:"style"`
	Position string `json:"position"`
}

// ProductInfo is collected in step 1.
type ProductInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	TargetAudience string `json:"targetAudience"`
	ProductType    string `json:"productType"`

	Image *model.EmbeddedImage `json:"-"`
}

// Character reference modes.
const (
	ReferenceProductImage = "product-image"
	ReferenceAIDecides    = "ai-decides"
	ReferenceUpload       = "upload"
)

// CharacterInfo is collected in step 2.
type CharacterInfo struct {
	Gender        string  `json:"gender"`
	Ethnicity     string  `json:"ethnicity"`
	SkinTone      string  `json:"skinTone"`
	BodyType      string  `json:"bodyType"`
	ReferenceType string  `json:"referenceType"`
	Caption       Caption `json:"caption"`

	ReferenceImage *model.EmbeddedImage `json:"-"`
}

// Project is the in-memory wizard session. It lives only for the
// duration of one creator flow and dissolves into asset rows plus
// credit debits when the flow completes. Every field below is guarded
// by mu: the rendering worker mutates a project while HTTP handlers
// snapshot it.
type Project struct {
	mu *sync.Mutex

	ID     string `json:"id"`
	UserID string `json:"userId"`
	Step   int    `json:"step"`

	Product   ProductInfo   `json:"product"`
	Character CharacterInfo `json:"character"`

	Script           string                 `json:"script"`
	GeneratedImages  []model.GeneratedAsset `json:"generatedImages"`
	SelectedImageIDs []string               `json:"selectedImageIds"`

	// 8, 16 or 24 seconds. One Veo clip covers 8 seconds.
	VideoLength int `json:"videoLength"`

	ResultVideo *model.GeneratedAsset `json:"resultVideo,omitempty"`
	LastError   string                `json:"lastError,omitempty"`

	// Clip progress while step 5 runs.
	ClipCurrent int `json:"clipCurrent"`
	ClipTotal   int `json:"clipTotal"`
}

// locked runs fn while holding the project's field lock. The long
// pipeline stages lock only around field access, so generation calls
// never block concurrent readers.
func (p *Project) locked(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn()
}

// snapshot copies the project under the field lock.
func (p *Project) snapshot() Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p
}

// ClipCount derives how many 8 second clips the chosen length needs.
func (p *Project) ClipCount() int {
	if p.VideoLength <= 0 {
		return 1
	}
	return p.VideoLength / clipSeconds
}

// SelectedImage returns the first selected candidate, the seed frame
// for every clip.
func (p *Project) SelectedImage() *model.GeneratedAsset {
	if len(p.SelectedImageIDs) == 0 {
		return nil
	}
	for i := range p.GeneratedImages {
		if p.GeneratedImages[i].ID == p.SelectedImageIDs[0] {
			return &p.GeneratedImages[i]
		}
	}
	return nil
}

// ProgressEvent is pushed over the WebSocket hub while clips render.
type ProgressEvent struct {
	SessionID string `json:"sessionId"`
	Step      int    `json:"step"`
	Clip      int    `json:"clip"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	VideoURL  string `json:"videoUrl,omitempty"`
}

const (
	ProgressRendering = "rendering"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)
