package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"strings"

	_ "image/jpeg"

	_ "github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

// ParseDataURI splits a data URI into its mime type and decoded bytes.
func ParseDataURI(uri string) (*model.EmbeddedImage, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, &model.ValidationError{Field: "dataUri", Reason: "missing data: prefix"}
	}
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, &model.ValidationError{Field: "dataUri", Reason: "missing comma separator"}
	}
	header := uri[len("data:"):comma]
	mimeType := strings.TrimSuffix(header, ";base64")
	if mimeType == header {
		return nil, &model.ValidationError{Field: "dataUri", Reason: "only base64 payloads are supported"}
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, &model.ValidationError{Field: "dataUri", Reason: fmt.Sprintf("invalid base64: %v", err)}
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &model.EmbeddedImage{MimeType: mimeType, Data: data}, nil
}

// BuildDataURI encodes raw bytes back into a data URI.
func BuildDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// ExtensionForMime maps media mime types onto storage file extensions.
func ExtensionForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "video/mp4":
		return "mp4"
	case "video/webm":
		return "webm"
	default:
		if idx := strings.Index(mimeType, "/"); idx >= 0 && idx+1 < len(mimeType) {
			return mimeType[idx+1:]
		}
		return "bin"
	}
}

// ConvertPNGToWebP re-encodes a PNG payload as lossy WebP.
func ConvertPNGToWebP(pngData []byte, quality float32) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()
	log.Printf("✅ PNG converted to WebP: %d bytes → %d bytes (%.1f%% reduction)",
		len(pngData), len(webpData),
		float64(len(pngData)-len(webpData))/float64(len(pngData))*100)

	return webpData, nil
}
