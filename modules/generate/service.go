package generate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/metnitcs/esay-ai-shop/modules/common/database"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
	"github.com/metnitcs/esay-ai-shop/modules/common/storage"
	"github.com/metnitcs/esay-ai-shop/modules/common/utils"
)

const (
	defaultImageAspect = "1:1"
	defaultVideoAspect = "16:9"

	// Asset row prompt for a video job submitted with only a start frame.
	videoPromptFallback = "Image-to-Video"
)

var imageAspects = map[string]bool{
	"1:1": true, "2:3": true, "3:2": true, "3:4": true,
	"4:3": true, "9:16": true, "16:9": true, "21:9": true,
}

var videoAspects = map[string]bool{
	"16:9": true, "9:16": true,
}

// Generator is the slice of the Gemini client this module consumes.
type Generator interface {
	EnsureVideoAuth() error
	GenerateImage(ctx context.Context, prompt string, refs []*model.EmbeddedImage, aspectRatio string) (*model.EmbeddedImage, error)
	GenerateVideo(ctx context.Context, prompt string, startFrame *model.EmbeddedImage, aspectRatio string) ([]byte, string, error)
}

// Ledger is the credit slice: balance gate plus the per-job debit.
type Ledger interface {
	Balance(userID string) (float64, error)
	Debit(userID string, amount float64) (float64, error)
}

// Costs carries the per-job credit prices.
type Costs struct {
	Image float64
	Video float64
}

// Service runs standalone one-off generation jobs outside the creator
// wizard: one image or one video per request, each persisted as an
// asset and debited on success.
type Service struct {
	generator Generator
	store     database.Store
	uploads   storage.Uploader
	ledger    Ledger
	costs     Costs
}

func NewService(generator Generator, store database.Store, uploads storage.Uploader, ledger Ledger, costs Costs) *Service {
	return &Service{
		generator: generator,
		store:     store,
		uploads:   uploads,
		ledger:    ledger,
		costs:     costs,
	}
}

// Image generates a single image from a prompt and an optional
// reference image, defaulting to a square frame.
func (s *Service) Image(ctx context.Context, userID, prompt, aspectRatio string, reference *model.EmbeddedImage) (*model.GeneratedAsset, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &model.ValidationError{Field: "prompt", Reason: "required"}
	}
	if aspectRatio == "" {
		aspectRatio = defaultImageAspect
	}
	if !imageAspects[aspectRatio] {
		return nil, &model.ValidationError{Field: "aspectRatio", Reason: "unsupported ratio " + aspectRatio}
	}

	if err := s.gateBalance(userID, s.costs.Image, "image"); err != nil {
		return nil, err
	}

	var refs []*model.EmbeddedImage
	if reference != nil {
		refs = append(refs, reference)
	}

	image, err := s.generator.GenerateImage(ctx, prompt, refs, aspectRatio)
	if err != nil {
		return nil, err
	}

	asset := s.persist(ctx, userID, model.AssetImage, image.DataURI(), "images", prompt, aspectRatio)

	if _, err := s.ledger.Debit(userID, s.costs.Image); err != nil {
		log.Printf("⚠️ Image debit failed: %v", err)
		return nil, err
	}
	return asset, nil
}

// Video generates a single clip from a prompt, a start frame, or both.
// The Veo capability gate runs before anything is billed or submitted.
func (s *Service) Video(ctx context.Context, userID, prompt, aspectRatio string, startFrame *model.EmbeddedImage) (*model.GeneratedAsset, error) {
	if err := s.generator.EnsureVideoAuth(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prompt) == "" && startFrame == nil {
		return nil, &model.ValidationError{Field: "prompt", Reason: "provide a prompt or a starting image"}
	}
	if aspectRatio == "" {
		aspectRatio = defaultVideoAspect
	}
	if !videoAspects[aspectRatio] {
		return nil, &model.ValidationError{Field: "aspectRatio", Reason: "unsupported ratio " + aspectRatio}
	}

	if err := s.gateBalance(userID, s.costs.Video, "video"); err != nil {
		return nil, err
	}

	videoBytes, mimeType, err := s.generator.GenerateVideo(ctx, prompt, startFrame, aspectRatio)
	if err != nil {
		return nil, err
	}

	rowPrompt := prompt
	if strings.TrimSpace(rowPrompt) == "" {
		rowPrompt = videoPromptFallback
	}
	asset := s.persist(ctx, userID, model.AssetVideo, utils.BuildDataURI(mimeType, videoBytes), "videos", rowPrompt, aspectRatio)

	if _, err := s.ledger.Debit(userID, s.costs.Video); err != nil {
		log.Printf("⚠️ Video debit failed: %v", err)
		return nil, err
	}
	return asset, nil
}

func (s *Service) gateBalance(userID string, cost float64, job string) error {
	balance, err := s.ledger.Balance(userID)
	if err != nil {
		return err
	}
	if balance < cost {
		return &model.ValidationError{
			Field:  "credits",
			Reason: fmt.Sprintf("insufficient credits, %s generation costs %g credits", job, cost),
		}
	}
	return nil
}

func (s *Service) persist(ctx context.Context, userID string, assetType model.AssetType, dataURI, category, prompt, aspectRatio string) *model.GeneratedAsset {
	result := s.uploads.UploadDataURI(ctx, dataURI, userID, category, "")
	asset := &model.GeneratedAsset{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        assetType,
		URL:         result.URL,
		Prompt:      prompt,
		AspectRatio: aspectRatio,
		CreatedAt:   time.Now(),
	}
	if err := s.store.InsertAsset(asset); err != nil {
		log.Printf("⚠️ Asset row not persisted, returning anyway: %v", err)
	}
	return asset
}
