package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/metnitcs/esay-ai-shop/modules/common/config"
	"github.com/metnitcs/esay-ai-shop/modules/common/utils"
)

const uploadTimeout = 60 * time.Second

// UploadResult reports where a media payload ended up. When the remote
// upload fails the original data URI is handed back with Fallback set,
// so callers always get a usable URL.
type UploadResult struct {
	URL      string
	Fallback bool
}

// Uploader persists media payloads and removes stored objects.
type Uploader interface {
	UploadDataURI(ctx context.Context, dataURI, userID, category, folder string) UploadResult
	DeleteObject(ctx context.Context, objectURL string) error
}

type Client struct {
	baseURL    string
	serviceKey string
	bucket     string
	publicBase string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient() *Client {
	cfg := config.GetConfig()

	publicBase := cfg.SupabaseStorageBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/storage/v1/object/public/%s/", cfg.SupabaseURL, cfg.SupabaseStorageBucket)
	}

	return &Client{
		baseURL:    cfg.SupabaseURL,
		serviceKey: cfg.SupabaseServiceKey,
		bucket:     cfg.SupabaseStorageBucket,
		publicBase: publicBase,
		httpClient: &http.Client{Timeout: uploadTimeout},
		now:        time.Now,
	}
}

// UploadDataURI stores a data-URI payload and returns its public URL.
// PNG images are re-encoded as WebP first. Any failure falls back to the
// original data URI instead of surfacing an error.
func (c *Client) UploadDataURI(ctx context.Context, dataURI, userID, category, folder string) UploadResult {
	payload, err := utils.ParseDataURI(dataURI)
	if err != nil {
		log.Printf("⚠️ Upload skipped, unparseable payload: %v", err)
		return UploadResult{URL: dataURI, Fallback: true}
	}

	data := payload.Data
	mimeType := payload.MimeType
	if mimeType == "image/png" {
		if webpData, convErr := utils.ConvertPNGToWebP(data, 90.0); convErr == nil {
			data = webpData
			mimeType = "image/webp"
		} else {
			log.Printf("⚠️ WebP conversion failed, uploading original PNG: %v", convErr)
		}
	}

	objectKey := c.buildObjectKey(userID, category, folder, mimeType)
	log.Printf("📤 Uploading to storage: %s (%d bytes, %s)", objectKey, len(data), mimeType)

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectKey)
	req, err := http.NewRequestWithContext(uploadCtx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		log.Printf("⚠️ Upload request build failed, falling back to data URI: %v", err)
		return UploadResult{URL: dataURI, Fallback: true}
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("⚠️ Upload failed, falling back to data URI: %v", err)
		return UploadResult{URL: dataURI, Fallback: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("⚠️ Upload rejected (status %d): %s", resp.StatusCode, string(body))
		return UploadResult{URL: dataURI, Fallback: true}
	}

	publicURL := c.publicBase + objectKey
	log.Printf("✅ Uploaded: %s", publicURL)
	return UploadResult{URL: publicURL}
}

// DeleteObject removes a stored object by its public URL. URLs that never
// reached storage (data URIs) are a no-op.
func (c *Client) DeleteObject(ctx context.Context, objectURL string) error {
	if strings.HasPrefix(objectURL, "data:") {
		return nil
	}

	objectKey := strings.TrimPrefix(objectURL, c.publicBase)
	if objectKey == objectURL {
		return fmt.Errorf("object URL outside managed bucket: %s", objectURL)
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectKey)
	req, err := http.NewRequestWithContext(ctx, "DELETE", deleteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("🗑️ Storage object deleted: %s", objectKey)
	return nil
}

func (c *Client) buildObjectKey(userID, category, folder, mimeType string) string {
	timestamp := c.now().UnixMilli()
	ext := utils.ExtensionForMime(mimeType)
	name := fmt.Sprintf("%d_%s.%s", timestamp, uuid.NewString(), ext)
	if folder != "" {
		return fmt.Sprintf("users/%s/%s/%s/%s", userID, category, folder, name)
	}
	return fmt.Sprintf("users/%s/%s/%s", userID, category, name)
}
