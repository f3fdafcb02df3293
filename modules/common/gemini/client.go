package gemini

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/metnitcs/esay-ai-shop/modules/common/config"
	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

const (
	// ScriptFallback is returned when the text model answers with nothing usable.
	ScriptFallback = "Could not generate script."
	// AnalysisFallback is returned when the analysis call answers with nothing usable.
	AnalysisFallback = "No analysis could be generated."

	videoPollInterval = 5 * time.Second
	videoPollCeiling  = 5 * time.Minute
)

// Client talks to the Gemini API for text, image analysis, image
// generation and Veo video generation.
type Client struct {
	apiKey     string
	videoKey   string
	imageModel string
	videoModel string
	textModel  string

	httpClient  *http.Client
	sleep       func(time.Duration)
	now         func() time.Time
	newOperator func(ctx context.Context, apiKey string) (videoOperator, error)
}

func NewClient() *Client {
	cfg := config.GetConfig()

	return &Client{
		apiKey:      cfg.GeminiAPIKey,
		videoKey:    cfg.GeminiVideoKey,
		imageModel:  cfg.ImageModel,
		videoModel:  cfg.VideoModel,
		textModel:   cfg.TextModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		sleep:       time.Sleep,
		now:         time.Now,
		newOperator: newGenaiVideoOperator,
	}
}

// videoOperator is the slice of the Veo API the polling loop consumes.
type videoOperator interface {
	submit(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	poll(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

type genaiVideoOperator struct {
	client *genai.Client
}

func newGenaiVideoOperator(ctx context.Context, apiKey string) (videoOperator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &genaiVideoOperator{client: client}, nil
}

func (o *genaiVideoOperator) submit(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return o.client.Models.GenerateVideos(ctx, model, prompt, image, cfg)
}

func (o *genaiVideoOperator) poll(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return o.client.Operations.GetVideosOperation(ctx, op, nil)
}

// EnsureVideoAuth verifies the separately billed Veo capability is configured.
func (c *Client) EnsureVideoAuth() error {
	if c.videoKey == "" {
		return &model.AuthorizationRequiredError{Capability: "video generation"}
	}
	return nil
}

// GenerateImage produces one image from a prompt and up to two reference
// images, vertical 9:16 unless told otherwise. With two references the
// prompt is prefixed so the model knows which image plays which role.
func (c *Client) GenerateImage(ctx context.Context, prompt string, refs []*model.EmbeddedImage, aspectRatio string) (*model.EmbeddedImage, error) {
	if aspectRatio == "" {
		aspectRatio = "9:16"
	}

	log.Printf("🎨 Generating image (model: %s, refs: %d, aspect: %s, prompt: %d chars)",
		c.imageModel, len(refs), aspectRatio, len(prompt))

	finalPrompt := prompt
	if len(refs) >= 2 {
		finalPrompt = "The first reference image is the product being promoted. " +
			"The second reference image defines the creator's appearance and style. " +
			"Keep the product exactly as shown and keep the creator consistent with the style reference.\n\n" + prompt
	} else if len(refs) == 1 {
		finalPrompt = "The reference image is the product being promoted. " +
			"Keep the product exactly as shown.\n\n" + prompt
	}

	var parts []*genai.Part
	for _, ref := range refs {
		parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(finalPrompt))

	content := &genai.Content{Parts: parts}

	result, err := GenerateContentWithRetry(ctx, c.imageKeys(), c.imageModel,
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{
				AspectRatio: aspectRatio,
			},
		})
	if err != nil {
		return nil, &model.GenerationError{Stage: "image", Message: "Gemini API call failed", Err: err}
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				log.Printf("✅ Received image: %d bytes (%s)", len(part.InlineData.Data), mimeType)
				return &model.EmbeddedImage{MimeType: mimeType, Data: part.InlineData.Data}, nil
			}
		}
	}

	return nil, &model.GenerationError{Stage: "image", Message: "no image data in response"}
}

// GenerateScript asks the text model for a short UGC script. An empty
// answer degrades to a fixed fallback line instead of an error.
func (c *Client) GenerateScript(ctx context.Context, prompt string) (string, error) {
	log.Printf("📝 Generating script (model: %s, prompt: %d chars)", c.textModel, len(prompt))

	text, err := c.generateText(ctx, prompt, nil)
	if err != nil {
		return "", &model.GenerationError{Stage: "script", Message: "Gemini API call failed", Err: err}
	}
	if text == "" {
		log.Printf("⚠️ Empty script response, using fallback")
		return ScriptFallback, nil
	}
	return text, nil
}

// GenerateText runs a plain prompt through the text model and returns
// the trimmed answer verbatim, empty included.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	log.Printf("📝 Generating text (model: %s, prompt: %d chars)", c.textModel, len(prompt))

	text, err := c.generateText(ctx, prompt, nil)
	if err != nil {
		return "", &model.GenerationError{Stage: "text", Message: "Gemini API call failed", Err: err}
	}
	return text, nil
}

// AnalyzeImage runs a multimodal prompt over the supplied image.
func (c *Client) AnalyzeImage(ctx context.Context, prompt string, image *model.EmbeddedImage) (string, error) {
	log.Printf("🔍 Analyzing image (model: %s, %d bytes)", c.textModel, len(image.Data))

	text, err := c.generateText(ctx, prompt, image)
	if err != nil {
		return "", &model.GenerationError{Stage: "analysis", Message: "Gemini API call failed", Err: err}
	}
	if text == "" {
		log.Printf("⚠️ Empty analysis response, using fallback")
		return AnalysisFallback, nil
	}
	return text, nil
}

func (c *Client) generateText(ctx context.Context, prompt string, image *model.EmbeddedImage) (string, error) {
	var parts []*genai.Part
	if image != nil {
		parts = append(parts, genai.NewPartFromBytes(image.Data, image.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	content := &genai.Content{Parts: parts}

	result, err := GenerateContentWithRetry(ctx, c.imageKeys(), c.textModel,
		[]*genai.Content{content}, nil)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// GenerateVideo submits a Veo job seeded with a start frame and polls it
// to completion. Polling runs every 5 seconds with a 5 minute ceiling.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, startFrame *model.EmbeddedImage, aspectRatio string) ([]byte, string, error) {
	if err := c.EnsureVideoAuth(); err != nil {
		return nil, "", err
	}
	if aspectRatio == "" {
		aspectRatio = "9:16"
	}

	log.Printf("🎬 Generating video (model: %s, aspect: %s, prompt: %d chars)", c.videoModel, aspectRatio, len(prompt))

	operator, err := c.newOperator(ctx, c.videoKey)
	if err != nil {
		return nil, "", &model.GenerationError{Stage: "video", Message: "failed to create client", Err: err}
	}

	var image *genai.Image
	if startFrame != nil {
		image = &genai.Image{
			ImageBytes: startFrame.Data,
			MIMEType:   startFrame.MimeType,
		}
	}

	op, err := operator.submit(ctx, c.videoModel, prompt, image,
		&genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			AspectRatio:    aspectRatio,
			Resolution:     "720p",
		})
	if err != nil {
		return nil, "", &model.GenerationError{Stage: "video", Message: "failed to submit Veo job", Err: err}
	}

	started := c.now()
	for !op.Done {
		elapsed := c.now().Sub(started)
		if elapsed > videoPollCeiling {
			return nil, "", &model.TimeoutError{Stage: "video generation", Elapsed: elapsed}
		}

		c.sleep(videoPollInterval)
		log.Printf("⏳ Polling Veo operation (%.0fs elapsed)...", c.now().Sub(started).Seconds())

		op, err = operator.poll(ctx, op)
		if err != nil {
			return nil, "", &model.GenerationError{Stage: "video", Message: "failed to poll operation", Err: err}
		}
	}

	if op.Error != nil {
		message := fmt.Sprintf("%v", op.Error["message"])
		return nil, "", &model.GenerationError{Stage: "video", Message: message}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, "", &model.GenerationError{Stage: "video", Message: "no videos in response"}
	}

	generated := op.Response.GeneratedVideos[0]
	if generated.Video == nil {
		return nil, "", &model.GenerationError{Stage: "video", Message: "no video payload in response"}
	}

	mimeType := generated.Video.MIMEType
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	// Inline bytes first, remote URI second.
	if len(generated.Video.VideoBytes) > 0 {
		log.Printf("✅ Received video inline: %d bytes", len(generated.Video.VideoBytes))
		return generated.Video.VideoBytes, mimeType, nil
	}

	if generated.Video.URI != "" {
		data, err := c.downloadVideo(ctx, generated.Video.URI)
		if err != nil {
			return nil, "", &model.GenerationError{Stage: "video", Message: "failed to download video", Err: err}
		}
		log.Printf("✅ Downloaded video: %d bytes", len(data))
		return data, mimeType, nil
	}

	return nil, "", &model.GenerationError{Stage: "video", Message: "response carried neither bytes nor URI"}
}

func (c *Client) downloadVideo(ctx context.Context, uri string) ([]byte, error) {
	downloadURL := uri
	if !strings.Contains(uri, "key=") {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		downloadURL = uri + sep + "key=" + c.videoKey
	}

	req, err := http.NewRequestWithContext(ctx, "GET", downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("video download failed with status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) imageKeys() []string {
	return []string{c.apiKey}
}
