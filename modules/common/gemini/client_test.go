package gemini

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

type fakeOperator struct {
	submitOp  *genai.GenerateVideosOperation
	submitErr error
	pollOps   []*genai.GenerateVideosOperation
	pollErr   error

	submitCalls int
	pollCalls   int
}

func (f *fakeOperator) submit(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitOp, nil
}

func (f *fakeOperator) poll(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	f.pollCalls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if len(f.pollOps) == 0 {
		return op, nil
	}
	next := f.pollOps[0]
	f.pollOps = f.pollOps[1:]
	return next, nil
}

// newVideoTestClient wires a fake operator and a fake clock that only
// advances when the poll loop sleeps.
func newVideoTestClient(operator *fakeOperator) *Client {
	current := time.Unix(0, 0)
	c := &Client{
		videoKey:   "vk",
		videoModel: "veo-3.0",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	c.now = func() time.Time { return current }
	c.sleep = func(d time.Duration) { current = current.Add(d) }
	c.newOperator = func(ctx context.Context, apiKey string) (videoOperator, error) {
		if apiKey != "vk" {
			return nil, errors.New("wrong key")
		}
		return operator, nil
	}
	return c
}

func doneVideoOp(video *genai.Video) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: video}},
		},
	}
}

func TestGenerateVideoRequiresVideoKey(t *testing.T) {
	operator := &fakeOperator{}
	c := newVideoTestClient(operator)
	c.videoKey = ""

	_, _, err := c.GenerateVideo(context.Background(), "a clip", nil, "9:16")
	var authErr *model.AuthorizationRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationRequiredError, got %v", err)
	}
	if operator.submitCalls != 0 {
		t.Error("job submitted without a video key")
	}
}

func TestGenerateVideoTimesOut(t *testing.T) {
	operator := &fakeOperator{
		submitOp: &genai.GenerateVideosOperation{Done: false},
	}
	c := newVideoTestClient(operator)

	_, _, err := c.GenerateVideo(context.Background(), "a clip", nil, "9:16")
	var timeoutErr *model.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Elapsed <= videoPollCeiling {
		t.Errorf("elapsed = %v, want past the %v ceiling", timeoutErr.Elapsed, videoPollCeiling)
	}
	// 5 minute ceiling at 5 second polls: 61 polls, then the check trips.
	if operator.pollCalls != 61 {
		t.Errorf("poll calls = %d, want 61", operator.pollCalls)
	}
}

func TestGenerateVideoProviderError(t *testing.T) {
	operator := &fakeOperator{
		submitOp: &genai.GenerateVideosOperation{Done: false},
		pollOps: []*genai.GenerateVideosOperation{
			{Done: true, Error: map[string]any{"message": "quota exceeded"}},
		},
	}
	c := newVideoTestClient(operator)

	_, _, err := c.GenerateVideo(context.Background(), "a clip", nil, "9:16")
	var generationErr *model.GenerationError
	if !errors.As(err, &generationErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error should surface the provider message: %v", err)
	}
	if operator.pollCalls != 1 {
		t.Errorf("poll calls = %d, want 1", operator.pollCalls)
	}
}

func TestGenerateVideoInlineBytes(t *testing.T) {
	operator := &fakeOperator{
		submitOp: doneVideoOp(&genai.Video{VideoBytes: []byte{0x00, 0x01}}),
	}
	c := newVideoTestClient(operator)

	data, mimeType, err := c.GenerateVideo(context.Background(), "a clip",
		&model.EmbeddedImage{MimeType: "image/png", Data: []byte{0x89}}, "9:16")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if !bytes.Equal(data, []byte{0x00, 0x01}) {
		t.Errorf("data = %v, want the inline bytes", data)
	}
	if mimeType != "video/mp4" {
		t.Errorf("mimeType = %q, want the video/mp4 default", mimeType)
	}
	if operator.pollCalls != 0 {
		t.Errorf("polled %d times on an already done operation", operator.pollCalls)
	}
}

func TestGenerateVideoDownloadsURI(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("clip-bytes"))
	}))
	defer server.Close()

	operator := &fakeOperator{
		submitOp: &genai.GenerateVideosOperation{Done: false},
		pollOps: []*genai.GenerateVideosOperation{
			doneVideoOp(&genai.Video{URI: server.URL + "/files/clip", MIMEType: "video/mp4"}),
		},
	}
	c := newVideoTestClient(operator)

	data, mimeType, err := c.GenerateVideo(context.Background(), "a clip", nil, "9:16")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if string(data) != "clip-bytes" {
		t.Errorf("data = %q, want the downloaded body", data)
	}
	if mimeType != "video/mp4" {
		t.Errorf("mimeType = %q", mimeType)
	}
	if gotKey != "vk" {
		t.Errorf("download key = %q, want the video key appended", gotKey)
	}
}

func TestGenerateVideoSubmitFailure(t *testing.T) {
	operator := &fakeOperator{submitErr: errors.New("bad request")}
	c := newVideoTestClient(operator)

	_, _, err := c.GenerateVideo(context.Background(), "a clip", nil, "9:16")
	var generationErr *model.GenerationError
	if !errors.As(err, &generationErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if operator.pollCalls != 0 {
		t.Error("polled after a failed submit")
	}
}
