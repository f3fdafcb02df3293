package utils

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

func TestParseDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	tests := []struct {
		name     string
		uri      string
		wantMime string
		wantErr  bool
	}{
		{"png payload", "data:image/png;base64," + payload, "image/png", false},
		{"missing mime defaults", "data:;base64," + payload, "application/octet-stream", false},
		{"no data prefix", "image/png;base64," + payload, "", true},
		{"no comma", "data:image/png;base64" + payload, "", true},
		{"not base64 encoded", "data:image/png,rawbytes", "", true},
		{"broken base64", "data:image/png;base64,!!!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDataURI(tt.uri)
			if tt.wantErr {
				var validationErr *model.ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataURI: %v", err)
			}
			if got.MimeType != tt.wantMime {
				t.Errorf("mime = %q, want %q", got.MimeType, tt.wantMime)
			}
			if string(got.Data) != "hello" {
				t.Errorf("data = %q, want %q", got.Data, "hello")
			}
		})
	}
}

func TestBuildDataURIRoundTrip(t *testing.T) {
	uri := BuildDataURI("video/mp4", []byte{0x00, 0x01, 0x02})

	parsed, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if parsed.MimeType != "video/mp4" {
		t.Errorf("mime = %q, want video/mp4", parsed.MimeType)
	}
	if len(parsed.Data) != 3 || parsed.Data[2] != 0x02 {
		t.Errorf("data = %v", parsed.Data)
	}
}

func TestExtensionForMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/jpg", "jpg"},
		{"image/webp", "webp"},
		{"video/mp4", "mp4"},
		{"video/webm", "webm"},
		{"audio/ogg", "ogg"},
		{"garbage", "bin"},
	}

	for _, tt := range tests {
		if got := ExtensionForMime(tt.mime); got != tt.want {
			t.Errorf("ExtensionForMime(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
