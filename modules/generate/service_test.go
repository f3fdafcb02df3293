package generate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
	"github.com/metnitcs/esay-ai-shop/modules/common/storage"
)

type fakeGenerator struct {
	authErr  error
	imageErr error
	videoErr error

	imageCalls   int
	videoCalls   int
	imageAspects []string
	videoAspects []string
	imageRefs    int
	videoFrames  int
}

func (f *fakeGenerator) EnsureVideoAuth() error { return f.authErr }

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string, refs []*model.EmbeddedImage, aspectRatio string) (*model.EmbeddedImage, error) {
	f.imageCalls++
	f.imageAspects = append(f.imageAspects, aspectRatio)
	f.imageRefs = len(refs)
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &model.EmbeddedImage{MimeType: "image/png", Data: []byte{0x89}}, nil
}

func (f *fakeGenerator) GenerateVideo(ctx context.Context, prompt string, startFrame *model.EmbeddedImage, aspectRatio string) ([]byte, string, error) {
	f.videoCalls++
	f.videoAspects = append(f.videoAspects, aspectRatio)
	if startFrame != nil {
		f.videoFrames++
	}
	if f.videoErr != nil {
		return nil, "", f.videoErr
	}
	return []byte{0x00}, "video/mp4", nil
}

type fakeStore struct {
	inserted  []model.GeneratedAsset
	insertErr error
}

func (f *fakeStore) GetProfile(userID string) (*model.UserProfile, error) {
	return &model.UserProfile{ID: userID}, nil
}
func (f *fakeStore) UpdateCredits(userID string, credits float64) error             { return nil }
func (f *fakeStore) UpdateCreditsIf(userID string, expected, credits float64) error { return nil }
func (f *fakeStore) InsertAsset(asset *model.GeneratedAsset) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *asset)
	return nil
}
func (f *fakeStore) DeleteAsset(assetID string) error { return nil }
func (f *fakeStore) ListAssets(userID string, assetType model.AssetType) ([]model.GeneratedAsset, error) {
	return f.inserted, nil
}

type fakeUploader struct {
	uploads []string
}

func (f *fakeUploader) UploadDataURI(ctx context.Context, dataURI, userID, category, folder string) storage.UploadResult {
	f.uploads = append(f.uploads, category)
	return storage.UploadResult{URL: fmt.Sprintf("https://cdn.test/%s/%d", category, len(f.uploads))}
}

func (f *fakeUploader) DeleteObject(ctx context.Context, objectURL string) error { return nil }

type fakeLedger struct {
	balance float64
	debits  []float64
}

func (f *fakeLedger) Balance(userID string) (float64, error) { return f.balance, nil }
func (f *fakeLedger) Debit(userID string, amount float64) (float64, error) {
	f.debits = append(f.debits, amount)
	f.balance -= amount
	return f.balance, nil
}

type testRig struct {
	service   *Service
	generator *fakeGenerator
	store     *fakeStore
	uploader  *fakeUploader
	ledger    *fakeLedger
}

func newTestRig(balance float64) *testRig {
	rig := &testRig{
		generator: &fakeGenerator{},
		store:     &fakeStore{},
		uploader:  &fakeUploader{},
		ledger:    &fakeLedger{balance: balance},
	}
	rig.service = NewService(rig.generator, rig.store, rig.uploader, rig.ledger, Costs{Image: 5, Video: 25})
	return rig
}

func TestImageDefaultsToSquare(t *testing.T) {
	rig := newTestRig(100)

	asset, err := rig.service.Image(context.Background(), "user-1", "a red fox", "", nil)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if rig.generator.imageAspects[0] != "1:1" {
		t.Errorf("aspect = %q, want 1:1 default", rig.generator.imageAspects[0])
	}
	if asset.Type != model.AssetImage || asset.AspectRatio != "1:1" {
		t.Errorf("asset = %+v", asset)
	}
	if len(rig.ledger.debits) != 1 || rig.ledger.debits[0] != 5 {
		t.Errorf("debits = %v, want one debit of 5", rig.ledger.debits)
	}
	if len(rig.store.inserted) != 1 {
		t.Errorf("persisted %d rows, want 1", len(rig.store.inserted))
	}
}

func TestImageValidation(t *testing.T) {
	rig := newTestRig(100)

	tests := []struct {
		name   string
		prompt string
		aspect string
	}{
		{"empty prompt", "  ", "1:1"},
		{"unsupported aspect", "a fox", "5:4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rig.service.Image(context.Background(), "user-1", tt.prompt, tt.aspect, nil)
			var validationErr *model.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
	if rig.generator.imageCalls != 0 {
		t.Errorf("generator invoked %d times on invalid input", rig.generator.imageCalls)
	}
}

func TestImageAspectChoices(t *testing.T) {
	rig := newTestRig(1000)

	for _, aspect := range []string{"1:1", "2:3", "3:2", "3:4", "4:3", "9:16", "16:9", "21:9"} {
		if _, err := rig.service.Image(context.Background(), "user-1", "a fox", aspect, nil); err != nil {
			t.Errorf("aspect %s rejected: %v", aspect, err)
		}
	}
}

func TestImageWithReference(t *testing.T) {
	rig := newTestRig(100)

	ref := &model.EmbeddedImage{MimeType: "image/png", Data: []byte{0x89}}
	if _, err := rig.service.Image(context.Background(), "user-1", "a fox", "9:16", ref); err != nil {
		t.Fatalf("Image: %v", err)
	}
	if rig.generator.imageRefs != 1 {
		t.Errorf("refs = %d, want 1", rig.generator.imageRefs)
	}
}

func TestImageBalanceGate(t *testing.T) {
	rig := newTestRig(4)

	_, err := rig.service.Image(context.Background(), "user-1", "a fox", "", nil)
	var validationErr *model.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if rig.generator.imageCalls != 0 {
		t.Error("generator invoked despite balance gate")
	}
	if len(rig.ledger.debits) != 0 {
		t.Errorf("debited %v despite balance gate", rig.ledger.debits)
	}
}

func TestImageFailureSkipsDebit(t *testing.T) {
	rig := newTestRig(100)
	rig.generator.imageErr = &model.GenerationError{Stage: "image", Message: "no image data in response"}

	if _, err := rig.service.Image(context.Background(), "user-1", "a fox", "", nil); err == nil {
		t.Fatal("expected generation failure")
	}
	if len(rig.ledger.debits) != 0 {
		t.Errorf("debited %v from a failed job", rig.ledger.debits)
	}
	if len(rig.store.inserted) != 0 {
		t.Errorf("persisted %d rows from a failed job", len(rig.store.inserted))
	}
}

func TestVideoAuthGateRunsFirst(t *testing.T) {
	rig := newTestRig(100)
	rig.generator.authErr = &model.AuthorizationRequiredError{Capability: "video generation"}

	_, err := rig.service.Video(context.Background(), "user-1", "a fox runs", "", nil)
	var authErr *model.AuthorizationRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthorizationRequiredError, got %v", err)
	}
	if rig.generator.videoCalls != 0 {
		t.Error("video generation attempted without authorization")
	}
}

func TestVideoRequiresPromptOrImage(t *testing.T) {
	rig := newTestRig(100)

	_, err := rig.service.Video(context.Background(), "user-1", "", "", nil)
	var validationErr *model.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestVideoFromImageOnly(t *testing.T) {
	rig := newTestRig(100)

	frame := &model.EmbeddedImage{MimeType: "image/png", Data: []byte{0x89}}
	asset, err := rig.service.Video(context.Background(), "user-1", "", "", frame)
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	if rig.generator.videoFrames != 1 {
		t.Error("start frame not forwarded")
	}
	if asset.Prompt != "Image-to-Video" {
		t.Errorf("row prompt = %q, want the image-only fallback", asset.Prompt)
	}
	if asset.AspectRatio != "16:9" {
		t.Errorf("aspect = %q, want 16:9 default", asset.AspectRatio)
	}
	if len(rig.ledger.debits) != 1 || rig.ledger.debits[0] != 25 {
		t.Errorf("debits = %v, want one debit of 25", rig.ledger.debits)
	}
}

func TestVideoRejectsImageAspects(t *testing.T) {
	rig := newTestRig(100)

	_, err := rig.service.Video(context.Background(), "user-1", "a fox runs", "1:1", nil)
	var validationErr *model.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if rig.generator.videoCalls != 0 {
		t.Error("video generation attempted with unsupported aspect")
	}
}

func TestVideoBalanceGate(t *testing.T) {
	rig := newTestRig(24)

	_, err := rig.service.Video(context.Background(), "user-1", "a fox runs", "", nil)
	var validationErr *model.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if rig.generator.videoCalls != 0 {
		t.Error("video generation attempted despite balance gate")
	}
}
