package model

import (
	"encoding/base64"
	"fmt"
	"time"
)

// UserProfile mirrors a row in the Supabase profiles table.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Credits   float64   `json:"credits"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// AssetType classifies rows in the assets table.
type AssetType string

const (
	AssetImage     AssetType = "IMAGE"
	AssetVideo     AssetType = "VIDEO"
	AssetCharacter AssetType = "CHARACTER"
)

// GeneratedAsset mirrors a row in the Supabase assets table.
type GeneratedAsset struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        AssetType `json:"type"`
	URL         string    `json:"url"`
	Prompt      string    `json:"prompt,omitempty"`
	AspectRatio string    `json:"aspect_ratio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmbeddedImage is a decoded inline media payload.
type EmbeddedImage struct {
	MimeType string
	Data     []byte
}

// DataURI renders the payload as a browser-consumable data URI.
func (e EmbeddedImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", e.MimeType, base64.StdEncoding.EncodeToString(e.Data))
}

// ValidationError reports malformed or missing caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationRequiredError reports a missing capability grant, such as
// the separate billed key for video generation.
type AuthorizationRequiredError struct {
	Capability string
}

func (e *AuthorizationRequiredError) Error() string {
	return fmt.Sprintf("authorization required for %s", e.Capability)
}

// GenerationError reports a failed or empty model response.
type GenerationError struct {
	Stage   string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s generation failed: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s generation failed: %s", e.Stage, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// TimeoutError reports a polling loop that hit its deadline.
type TimeoutError struct {
	Stage   string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Stage, e.Elapsed)
}

// PersistenceError reports a failed database write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
