package storage

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testDataURI() string {
	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	return "data:image/jpeg;base64," + payload
}

func newTestClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: "service-key",
		bucket:     "media",
		publicBase: "https://cdn.test/media/",
		httpClient: &http.Client{Timeout: time.Second},
		now:        func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestUploadDataURI(t *testing.T) {
	var gotPath, gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result := client.UploadDataURI(context.Background(), testDataURI(), "user-1", "images", "proj-1")

	if result.Fallback {
		t.Fatal("upload reported fallback on success")
	}
	if !strings.HasPrefix(gotPath, "/storage/v1/object/media/users/user-1/images/proj-1/1700000000000_") {
		t.Errorf("object path = %q", gotPath)
	}
	if !strings.HasSuffix(gotPath, ".jpg") {
		t.Errorf("object path missing extension: %q", gotPath)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotContentType != "image/jpeg" {
		t.Errorf("content type = %q", gotContentType)
	}
	wantPrefix := "https://cdn.test/media/users/user-1/images/proj-1/"
	if !strings.HasPrefix(result.URL, wantPrefix) {
		t.Errorf("public URL = %q, want prefix %q", result.URL, wantPrefix)
	}
}

func TestUploadDataURIWithoutFolder(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result := client.UploadDataURI(context.Background(), testDataURI(), "user-1", "videos", "")

	if result.Fallback {
		t.Fatal("upload reported fallback on success")
	}
	if !strings.HasPrefix(gotPath, "/storage/v1/object/media/users/user-1/videos/1700000000000_") {
		t.Errorf("object path = %q", gotPath)
	}
}

func TestUploadFallsBackOnRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	dataURI := testDataURI()
	result := client.UploadDataURI(context.Background(), dataURI, "user-1", "images", "")

	if !result.Fallback {
		t.Error("rejection did not trigger fallback")
	}
	if result.URL != dataURI {
		t.Errorf("fallback URL = %q, want the original data URI", result.URL)
	}
}

func TestUploadFallsBackOnNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)
	dataURI := testDataURI()
	result := client.UploadDataURI(context.Background(), dataURI, "user-1", "images", "")

	if !result.Fallback || result.URL != dataURI {
		t.Errorf("result = %+v, want fallback to original data URI", result)
	}
}

func TestUploadFallsBackOnBadPayload(t *testing.T) {
	client := newTestClient("http://unused.invalid")
	result := client.UploadDataURI(context.Background(), "not a data uri", "user-1", "images", "")

	if !result.Fallback || result.URL != "not a data uri" {
		t.Errorf("result = %+v, want fallback to original payload", result)
	}
}

func TestDeleteObjectSkipsDataURIs(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.DeleteObject(context.Background(), testDataURI()); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if requests != 0 {
		t.Errorf("data URI delete made %d requests", requests)
	}
}

func TestDeleteObject(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.DeleteObject(context.Background(), "https://cdn.test/media/users/user-1/images/a.webp")
	if err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if gotMethod != "DELETE" {
		t.Errorf("method = %q", gotMethod)
	}
	if gotPath != "/storage/v1/object/media/users/user-1/images/a.webp" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestDeleteObjectRejectsForeignURLs(t *testing.T) {
	client := newTestClient("http://unused.invalid")
	if err := client.DeleteObject(context.Background(), "https://elsewhere.example/file.webp"); err == nil {
		t.Error("expected error for URL outside the managed bucket")
	}
}
