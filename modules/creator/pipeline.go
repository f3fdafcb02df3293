package creator

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/metnitcs/esay-ai-shop/modules/common/database"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
	"github.com/metnitcs/esay-ai-shop/modules/common/storage"
	"github.com/metnitcs/esay-ai-shop/modules/common/utils"
)

const (
	imageBatchSize  = 3
	imageBatchDelay = 2 * time.Second
	clipDelay       = 3 * time.Second

	aspectRatio = "9:16"
)

// Generator is the slice of the Gemini client the pipeline consumes.
type Generator interface {
	EnsureVideoAuth() error
	GenerateImage(ctx context.Context, prompt string, refs []*model.EmbeddedImage, aspectRatio string) (*model.EmbeddedImage, error)
	GenerateVideo(ctx context.Context, prompt string, startFrame *model.EmbeddedImage, aspectRatio string) ([]byte, string, error)
	GenerateScript(ctx context.Context, prompt string) (string, error)
}

// Ledger is the slice of the credit ledger the pipeline consumes.
type Ledger interface {
	Balance(userID string) (float64, error)
	Debit(userID string, amount float64) (float64, error)
}

// Costs carries the per-operation credit prices.
type Costs struct {
	Image        float64
	Video        float64
	VoiceBase    float64
	VoicePerClip float64
}

// Pipeline drives a creator project through its wizard states. All
// generation calls within one run are strictly sequential; the fixed
// inter-call delays exist to respect provider rate limits.
type Pipeline struct {
	generator Generator
	store     database.Store
	uploads   storage.Uploader
	ledger    Ledger
	costs     Costs

	sleep       func(time.Duration)
	resolveSeed func(ctx context.Context, url string) (*model.EmbeddedImage, error)
	onProgress  func(event ProgressEvent)
}

func NewPipeline(generator Generator, store database.Store, uploads storage.Uploader, ledger Ledger, costs Costs) *Pipeline {
	p := &Pipeline{
		generator: generator,
		store:     store,
		uploads:   uploads,
		ledger:    ledger,
		costs:     costs,
		sleep:     time.Sleep,
	}
	p.resolveSeed = p.fetchSeed
	p.onProgress = func(ProgressEvent) {}
	return p
}

// SetProgressFunc registers the progress sink for clip rendering.
func (p *Pipeline) SetProgressFunc(fn func(event ProgressEvent)) {
	if fn != nil {
		p.onProgress = fn
	}
}

// NewProject opens a fresh wizard session for a user.
func NewProject(userID string) *Project {
	return &Project{
		mu:          &sync.Mutex{},
		ID:          uuid.NewString(),
		UserID:      userID,
		Step:        StepProduct,
		VideoLength: clipSeconds,
	}
}

// SubmitProduct validates step 1 input and advances to character setup.
func (p *Pipeline) SubmitProduct(project *Project, product ProductInfo) error {
	if strings.TrimSpace(product.Name) == "" {
		return &model.ValidationError{Field: "product.name", Reason: "required"}
	}
	if product.Image == nil {
		return &model.ValidationError{Field: "product.image", Reason: "required"}
	}

	project.Product = product
	project.Step = StepCharacter
	project.LastError = ""
	return nil
}

// BatchCost is what one round of candidate generation debits.
func (p *Pipeline) BatchCost() float64 {
	return p.costs.Image * imageBatchSize
}

// FinalCost is what the clip rendering step debits. The image share of
// the project was already debited by the batch step.
func (p *Pipeline) FinalCost(clips int) float64 {
	return p.costs.Video*float64(clips) + p.costs.VoiceBase + p.costs.VoicePerClip*float64(clips)
}

// GenerateAssets runs the step 2 to 3 transition: one script, then
// exactly three candidate images, sequentially with a fixed delay.
// The batch is all-or-nothing: persistence and the debit happen only
// after every call succeeded. Callers hand in the live pointer; field
// access is locked internally so snapshots stay safe mid-batch.
func (p *Pipeline) GenerateAssets(ctx context.Context, project *Project, character CharacterInfo) error {
	var userID, projectID string
	var product ProductInfo
	err := project.locked(func() error {
		if project.Step != StepCharacter {
			return &model.ValidationError{Field: "step", Reason: fmt.Sprintf("expected step %d, at %d", StepCharacter, project.Step)}
		}
		project.Character = character
		userID = project.UserID
		projectID = project.ID
		product = project.Product
		return nil
	})
	if err != nil {
		return err
	}

	batchCost := p.BatchCost()
	balance, err := p.ledger.Balance(userID)
	if err != nil {
		return err
	}
	if balance < batchCost {
		return &model.ValidationError{
			Field:  "credits",
			Reason: fmt.Sprintf("insufficient credits, generating %d variations costs %g credits", imageBatchSize, batchCost),
		}
	}

	log.Printf("📝 Generating script for project %s", projectID)
	script, err := p.generator.GenerateScript(ctx, BuildScriptPrompt(product))
	if err != nil {
		return p.noteError(project, err)
	}

	prompt := BuildImagePrompt(product, character)
	refs := referenceImages(product, character)

	images := make([]*model.EmbeddedImage, 0, imageBatchSize)
	for i := 1; i <= imageBatchSize; i++ {
		if i > 1 {
			p.sleep(imageBatchDelay)
		}
		log.Printf("🎨 Generating candidate %d/%d for project %s", i, imageBatchSize, projectID)

		img, err := p.generator.GenerateImage(ctx, prompt, refs, aspectRatio)
		if err != nil {
			return p.noteError(project, err)
		}
		images = append(images, img)
	}

	assets := make([]model.GeneratedAsset, 0, imageBatchSize)
	for _, img := range images {
		result := p.uploads.UploadDataURI(ctx, img.DataURI(), userID, "images", projectID)
		asset := model.GeneratedAsset{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        model.AssetImage,
			URL:         result.URL,
			Prompt:      prompt,
			AspectRatio: aspectRatio,
			CreatedAt:   time.Now(),
		}
		if err := p.store.InsertAsset(&asset); err != nil {
			log.Printf("⚠️ Asset row not persisted, keeping in session: %v", err)
		}
		assets = append(assets, asset)
	}

	if _, err := p.ledger.Debit(userID, batchCost); err != nil {
		log.Printf("⚠️ Batch debit failed: %v", err)
		return p.noteError(project, err)
	}

	project.locked(func() error {
		project.Script = script
		project.GeneratedImages = assets
		project.Step = StepReview
		project.LastError = ""
		return nil
	})
	log.Printf("✅ Batch complete for project %s: %d candidates, script %d chars", projectID, len(assets), len(script))
	return nil
}

// SelectImages records the chosen candidates and advances to settings.
func (p *Pipeline) SelectImages(project *Project, ids []string) error {
	if project.Step != StepReview {
		return &model.ValidationError{Field: "step", Reason: fmt.Sprintf("expected step %d, at %d", StepReview, project.Step)}
	}
	if len(ids) == 0 {
		return &model.ValidationError{Field: "selectedImageIds", Reason: "select at least one image"}
	}
	known := make(map[string]bool, len(project.GeneratedImages))
	for _, asset := range project.GeneratedImages {
		known[asset.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return &model.ValidationError{Field: "selectedImageIds", Reason: "unknown image id " + id}
		}
	}

	project.SelectedImageIDs = ids
	project.Step = StepSettings
	project.LastError = ""
	return nil
}

// ConfigureVideo records the chosen clip length.
func (p *Pipeline) ConfigureVideo(project *Project, videoLength int) error {
	switch videoLength {
	case 8, 16, 24:
	default:
		return &model.ValidationError{Field: "videoLength", Reason: "must be 8, 16 or 24 seconds"}
	}
	project.VideoLength = videoLength
	return nil
}

// UpdateScript lets the user edit the generated script before rendering.
func (p *Pipeline) UpdateScript(project *Project, script string) {
	project.Script = script
}

// FinalGenerate runs the step 4 through 6 transition: the Veo
// capability gate, then one clip per 8 seconds of chosen length,
// sequentially with a fixed delay, each persisted immediately. The
// debit happens once, after every clip succeeded. On a clip failure
// the project returns to step 4 with no debit; clips already persisted
// stay as assets. Callers hand in the live pointer; field access is
// locked internally so snapshots stay safe mid-render.
func (p *Pipeline) FinalGenerate(ctx context.Context, project *Project) error {
	var userID, projectID, script, seedURL string
	var product ProductInfo
	var character CharacterInfo
	var videoLength, clips int

	err := project.locked(func() error {
		if project.Step != StepSettings && project.Step != StepRendering {
			return &model.ValidationError{Field: "step", Reason: fmt.Sprintf("expected step %d, at %d", StepSettings, project.Step)}
		}
		userID = project.UserID
		projectID = project.ID
		product = project.Product
		character = project.Character
		script = project.Script
		videoLength = project.VideoLength
		clips = project.ClipCount()
		if seed := project.SelectedImage(); seed != nil {
			seedURL = seed.URL
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := p.generator.EnsureVideoAuth(); err != nil {
		return p.backToSettings(project, err)
	}
	if seedURL == "" {
		return p.backToSettings(project, &model.ValidationError{Field: "selectedImageIds", Reason: "select at least one image"})
	}

	cost := p.FinalCost(clips)
	balance, err := p.ledger.Balance(userID)
	if err != nil {
		return p.backToSettings(project, err)
	}
	if balance < cost {
		return p.backToSettings(project, &model.ValidationError{
			Field:  "credits",
			Reason: fmt.Sprintf("insufficient credits for %ds video, need %g credits", videoLength, cost),
		})
	}

	project.locked(func() error {
		project.Step = StepRendering
		project.ClipTotal = clips
		project.ClipCurrent = 0
		project.LastError = ""
		return nil
	})

	seed, err := p.resolveSeed(ctx, seedURL)
	if err != nil {
		return p.failRendering(project, fmt.Errorf("failed to load seed image: %w", err))
	}

	var clipAssets []model.GeneratedAsset
	for clip := 1; clip <= clips; clip++ {
		if clip > 1 {
			p.sleep(clipDelay)
		}
		project.locked(func() error {
			project.ClipCurrent = clip
			return nil
		})
		p.onProgress(ProgressEvent{
			SessionID: projectID,
			Step:      StepRendering,
			Clip:      clip,
			Total:     clips,
			Status:    ProgressRendering,
		})

		prompt := BuildVideoPrompt(product, character, clip, clips, script)
		log.Printf("🎬 Rendering clip %d/%d for project %s", clip, clips, projectID)

		videoBytes, mimeType, err := p.generator.GenerateVideo(ctx, prompt, seed, aspectRatio)
		if err != nil {
			return p.failRendering(project, err)
		}

		result := p.uploads.UploadDataURI(ctx, utils.BuildDataURI(mimeType, videoBytes), userID, "videos", projectID)
		asset := model.GeneratedAsset{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        model.AssetVideo,
			URL:         result.URL,
			Prompt:      prompt,
			AspectRatio: aspectRatio,
			CreatedAt:   time.Now(),
		}
		if err := p.store.InsertAsset(&asset); err != nil {
			log.Printf("⚠️ Clip row not persisted, keeping in session: %v", err)
		}
		clipAssets = append(clipAssets, asset)
	}

	if _, err := p.ledger.Debit(userID, cost); err != nil {
		return p.failRendering(project, err)
	}

	project.locked(func() error {
		project.ResultVideo = &clipAssets[0]
		project.Step = StepResult
		return nil
	})
	p.onProgress(ProgressEvent{
		SessionID: projectID,
		Step:      StepResult,
		Clip:      clips,
		Total:     clips,
		Status:    ProgressCompleted,
		VideoURL:  clipAssets[0].URL,
	})
	log.Printf("✅ Rendering complete for project %s: %d clips, %g credits", projectID, clips, cost)
	return nil
}

// Reset returns the session to a blank step 1 project. The field lock
// carries over so watchers of the old state stay valid.
func (p *Pipeline) Reset(project *Project) {
	fresh := NewProject(project.UserID)
	fresh.ID = project.ID
	fresh.mu = project.mu
	*project = *fresh
}

func (p *Pipeline) noteError(project *Project, err error) error {
	project.locked(func() error {
		project.LastError = err.Error()
		return nil
	})
	return err
}

func (p *Pipeline) backToSettings(project *Project, err error) error {
	project.locked(func() error {
		project.Step = StepSettings
		project.LastError = err.Error()
		return nil
	})
	return err
}

func (p *Pipeline) failRendering(project *Project, err error) error {
	var sessionID string
	var clip, total int
	project.locked(func() error {
		project.Step = StepSettings
		project.LastError = err.Error()
		sessionID = project.ID
		clip = project.ClipCurrent
		total = project.ClipTotal
		return nil
	})
	log.Printf("❌ Rendering failed for project %s: %v", sessionID, err)
	p.onProgress(ProgressEvent{
		SessionID: sessionID,
		Step:      StepSettings,
		Clip:      clip,
		Total:     total,
		Status:    ProgressFailed,
		Error:     err.Error(),
	})
	return err
}

// referenceImages assembles the generation references: the product
// photo first, then the character style reference when the user
// uploaded one. The ai-decides mode sends the product photo only.
func referenceImages(product ProductInfo, character CharacterInfo) []*model.EmbeddedImage {
	var refs []*model.EmbeddedImage
	if product.Image != nil {
		refs = append(refs, product.Image)
	}
	if character.ReferenceType == ReferenceUpload && character.ReferenceImage != nil {
		refs = append(refs, character.ReferenceImage)
	}
	return refs
}

// fetchSeed turns a persisted candidate URL back into inline bytes.
func (p *Pipeline) fetchSeed(ctx context.Context, url string) (*model.EmbeddedImage, error) {
	if strings.HasPrefix(url, "data:") {
		return utils.ParseDataURI(url)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create seed request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download seed image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed image download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &model.EmbeddedImage{MimeType: mimeType, Data: data}, nil
}
