package comic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/metnitcs/esay-ai-shop/modules/common/database"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
	"github.com/metnitcs/esay-ai-shop/modules/common/storage"
)

// Generator is the slice of the Gemini client this module consumes.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string, refs []*model.EmbeddedImage, aspectRatio string) (*model.EmbeddedImage, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Ledger is the credit slice: balance gate plus the per-comic debit.
type Ledger interface {
	Balance(userID string) (float64, error)
	Debit(userID string, amount float64) (float64, error)
}

// characterMeta is the JSON packed into a CHARACTER row's prompt column.
type characterMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Service builds multi-panel comic strips: a story breakdown via the
// text model, a reusable character library persisted as CHARACTER
// assets, and one single-image generation per comic. Only the comic
// itself is billed; breakdowns and character sheets are free.
type Service struct {
	generator Generator
	store     database.Store
	uploads   storage.Uploader
	ledger    Ledger
	cost      float64

	resolveRef func(ctx context.Context, url string) (*model.EmbeddedImage, error)
}

func NewService(generator Generator, store database.Store, uploads storage.Uploader, ledger Ledger, cost float64) *Service {
	s := &Service{
		generator: generator,
		store:     store,
		uploads:   uploads,
		ledger:    ledger,
		cost:      cost,
	}
	s.resolveRef = fetchReference
	return s
}

var panelLine = regexp.MustCompile(`(?i)^panel\s*\d+\s*[:.\-]\s*(.+)$`)

// BreakdownStory splits a story idea into one scene per panel of the
// chosen layout. Free of charge; only the comic generation bills.
func (s *Service) BreakdownStory(ctx context.Context, story, layoutID string, characters []Character) ([]Panel, error) {
	layout, ok := layouts[layoutID]
	if !ok {
		return nil, &model.ValidationError{Field: "layoutId", Reason: "unknown layout " + layoutID}
	}
	if strings.TrimSpace(story) == "" {
		return nil, &model.ValidationError{Field: "story", Reason: "required"}
	}

	log.Printf("📖 Breaking story into %d panels", layout.Panels)
	answer, err := s.generator.GenerateText(ctx, BuildBreakdownPrompt(story, layout.Panels, characters))
	if err != nil {
		return nil, err
	}

	var panels []Panel
	for _, line := range strings.Split(answer, "\n") {
		match := panelLine.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		panels = append(panels, Panel{Number: len(panels) + 1, Prompt: strings.TrimSpace(match[1])})
	}

	if len(panels) != layout.Panels {
		return nil, &model.GenerationError{
			Stage:   "breakdown",
			Message: fmt.Sprintf("expected %d panels, model returned %d", layout.Panels, len(panels)),
		}
	}
	return panels, nil
}

// GenerateCharacterSheet renders a square reference-sheet portrait for
// a new cast member. Not billed; the sheet only becomes useful once
// saved and used in a comic.
func (s *Service) GenerateCharacterSheet(ctx context.Context, description string) (*model.EmbeddedImage, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &model.ValidationError{Field: "description", Reason: "required"}
	}
	return s.generator.GenerateImage(ctx, CharacterSheetPrompt(description), nil, "1:1")
}

// SaveCharacter persists a cast member as a CHARACTER asset row. The
// name and description ride in the prompt column as JSON. Unlike media
// rows, a failed insert here is a hard error: a character that never
// reached the library cannot be reused.
func (s *Service) SaveCharacter(ctx context.Context, userID, name, description string, portrait *model.EmbeddedImage) (*Character, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "required"}
	}
	if strings.TrimSpace(description) == "" {
		return nil, &model.ValidationError{Field: "description", Reason: "required"}
	}

	var url string
	if portrait != nil {
		result := s.uploads.UploadDataURI(ctx, portrait.DataURI(), userID, "characters", "")
		url = result.URL
	}

	meta, _ := json.Marshal(characterMeta{Name: name, Description: description})
	asset := &model.GeneratedAsset{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        model.AssetCharacter,
		URL:         url,
		Prompt:      string(meta),
		AspectRatio: "1:1",
		CreatedAt:   time.Now(),
	}
	if err := s.store.InsertAsset(asset); err != nil {
		return nil, &model.PersistenceError{Op: "save character", Err: err}
	}

	log.Printf("👤 Character saved: %s (%s)", name, asset.ID)
	return &Character{
		ID:          asset.ID,
		Name:        name,
		Description: description,
		ImageURL:    url,
		CreatedAt:   asset.CreatedAt,
	}, nil
}

// ListCharacters returns the user's character library. Rows whose
// prompt column predates the JSON format degrade to a description-only
// character instead of being dropped.
func (s *Service) ListCharacters(userID string) ([]Character, error) {
	rows, err := s.store.ListAssets(userID, model.AssetCharacter)
	if err != nil {
		return nil, err
	}

	characters := make([]Character, 0, len(rows))
	for _, row := range rows {
		character := Character{
			ID:        row.ID,
			ImageURL:  row.URL,
			CreatedAt: row.CreatedAt,
		}
		var meta characterMeta
		if err := json.Unmarshal([]byte(row.Prompt), &meta); err == nil && meta.Name != "" {
			character.Name = meta.Name
			character.Description = meta.Description
		} else {
			character.Name = "Character"
			character.Description = row.Prompt
		}
		characters = append(characters, character)
	}
	return characters, nil
}

// DeleteCharacter removes a cast member, storage object included. The
// row must belong to the user; the storage delete is best effort.
func (s *Service) DeleteCharacter(ctx context.Context, userID, characterID string) error {
	rows, err := s.store.ListAssets(userID, model.AssetCharacter)
	if err != nil {
		return err
	}

	var row *model.GeneratedAsset
	for i := range rows {
		if rows[i].ID == characterID {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return &model.ValidationError{Field: "characterId", Reason: "character not found"}
	}

	if row.URL != "" {
		if err := s.uploads.DeleteObject(ctx, row.URL); err != nil {
			log.Printf("⚠️ Character portrait not removed from storage: %v", err)
		}
	}
	if err := s.store.DeleteAsset(characterID); err != nil {
		return err
	}
	log.Printf("🗑️ Character deleted: %s", characterID)
	return nil
}

// GenerateComic renders the whole strip as one image and bills the
// flat per-comic price. Saved character portraits ride along as
// reference images when they can be fetched; a portrait that cannot
// be loaded degrades to its text description.
func (s *Service) GenerateComic(ctx context.Context, userID string, project Project) (*model.GeneratedAsset, error) {
	layout, ok := layouts[project.LayoutID]
	if !ok {
		return nil, &model.ValidationError{Field: "layoutId", Reason: "unknown layout " + project.LayoutID}
	}
	style, ok := artStyles[project.ArtStyleID]
	if !ok {
		return nil, &model.ValidationError{Field: "artStyleId", Reason: "unknown art style " + project.ArtStyleID}
	}
	colorKeywords, ok := colorModes[project.ColorMode]
	if !ok {
		return nil, &model.ValidationError{Field: "colorMode", Reason: "unknown color mode " + project.ColorMode}
	}
	if len(project.Panels) != layout.Panels {
		return nil, &model.ValidationError{
			Field:  "panels",
			Reason: fmt.Sprintf("layout %s needs %d panels, got %d", layout.ID, layout.Panels, len(project.Panels)),
		}
	}

	balance, err := s.ledger.Balance(userID)
	if err != nil {
		return nil, err
	}
	if balance < s.cost {
		return nil, &model.ValidationError{
			Field:  "credits",
			Reason: fmt.Sprintf("insufficient credits, a comic costs %g credits", s.cost),
		}
	}

	var refs []*model.EmbeddedImage
	for _, character := range project.Characters {
		if character.ImageURL == "" {
			continue
		}
		ref, err := s.resolveRef(ctx, character.ImageURL)
		if err != nil {
			log.Printf("⚠️ Character portrait unavailable, using description only: %v", err)
			continue
		}
		refs = append(refs, ref)
	}

	prompt := BuildComicPrompt(layout, style, colorKeywords, project.Characters, project.Panels)
	log.Printf("🎨 Generating %s comic (%d panels, style %s)", layout.ID, layout.Panels, style.ID)

	image, err := s.generator.GenerateImage(ctx, prompt, refs, layout.AspectRatio)
	if err != nil {
		return nil, err
	}

	result := s.uploads.UploadDataURI(ctx, image.DataURI(), userID, "images", "")
	asset := &model.GeneratedAsset{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        model.AssetImage,
		URL:         result.URL,
		Prompt:      prompt,
		AspectRatio: layout.AspectRatio,
		CreatedAt:   time.Now(),
	}
	if err := s.store.InsertAsset(asset); err != nil {
		log.Printf("⚠️ Comic row not persisted, returning anyway: %v", err)
	}

	if _, err := s.ledger.Debit(userID, s.cost); err != nil {
		log.Printf("⚠️ Comic debit failed: %v", err)
		return nil, err
	}
	return asset, nil
}

func fetchReference(ctx context.Context, url string) (*model.EmbeddedImage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download reference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &model.EmbeddedImage{MimeType: mimeType, Data: data}, nil
}
