package artworks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gallery-server/core"
	"gallery-server/handlers/auth"
	"gallery-server/middleware"
	"gallery-server/stores/memory"

	"github.com/golang-jwt/jwt/v5"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func newSubmissionRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "artwork.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("failed to write image bytes: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/artworks/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func withClaims(req *http.Request, userID string) *http.Request {
	claims := &auth.AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		Username:         "alice",
		Email:            "a@x.com",
	}
	ctx := context.WithValue(req.Context(), middleware.ClaimsContextKey, claims)
	return req.WithContext(ctx)
}

func TestHandleCreate_Success(t *testing.T) {
	store := memory.NewStore()
	handler := HandleCreate(store)

	req := newSubmissionRequest(t, map[string]string{
		"title":       "Sunrise",
		"artist":      "alice",
		"year":        "2024",
		"medium":      "Oil on canvas",
		"description": "Morning light.",
	}, pngHeader)
	rec := httptest.NewRecorder()

	handler(rec, withClaims(req, "u1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status mismatch: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created core.Artwork
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("created artwork has no id")
	}
	if created.Source != core.SourceUser {
		t.Errorf("source mismatch: got %q, want %q", created.Source, core.SourceUser)
	}
	if created.UserID != "u1" {
		t.Errorf("user id mismatch: got %q, want %q", created.UserID, "u1")
	}
	if !strings.HasPrefix(created.ImageURL, "data:image/png;base64,") {
		t.Errorf("image url is not an embedded png data url: %q", created.ImageURL)
	}

	// Append-then-read visibility.
	stored, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() failed: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != created.ID {
		t.Errorf("stored artworks mismatch: got %+v", stored)
	}
}

func TestHandleCreate_MissingImage(t *testing.T) {
	store := memory.NewStore()
	handler := HandleCreate(store)

	req := newSubmissionRequest(t, map[string]string{"title": "Sunrise"}, nil)
	rec := httptest.NewRecorder()
	handler(rec, withClaims(req, "u1"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status mismatch: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "image") {
		t.Errorf("error message mismatch: got %q", rec.Body.String())
	}

	stored, _ := store.ListAll(context.Background())
	if len(stored) != 0 {
		t.Errorf("nothing should be stored on a rejected submission, got %d records", len(stored))
	}
}

func TestHandleCreate_Unauthenticated(t *testing.T) {
	store := memory.NewStore()
	handler := HandleCreate(store)

	req := newSubmissionRequest(t, map[string]string{"title": "Sunrise"}, pngHeader)
	rec := httptest.NewRecorder()
	handler(rec, req) // no claims in context

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status mismatch: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleList(t *testing.T) {
	store := memory.NewStore()
	if err := store.Append(context.Background(), &core.Artwork{ID: "a1", Source: core.SourceUser, UserID: "u1"}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/artworks/", http.NoBody)
	rec := httptest.NewRecorder()
	HandleList(store)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d, want %d", rec.Code, http.StatusOK)
	}
	var artworks []*core.Artwork
	if err := json.NewDecoder(rec.Body).Decode(&artworks); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(artworks) != 1 || artworks[0].ID != "a1" {
		t.Errorf("response mismatch: got %+v", artworks)
	}
}

func TestHandleList_EmptyIsJSONArray(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/artworks/", http.NoBody)
	rec := httptest.NewRecorder()
	HandleList(memory.NewStore())(rec, req)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty list should serialize as [], got %q", got)
	}
}

func TestEncodeDataURL(t *testing.T) {
	encoded, err := EncodeDataURL(bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("EncodeDataURL() failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %q", encoded)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, pngHeader) {
		t.Error("decoded payload does not match the original bytes")
	}
}
