package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSpecFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write spec file: %v", err)
	}
	return path
}

func TestOpenAPIHandler_ServeYAML(t *testing.T) {
	t.Parallel()

	path := writeSpecFile(t, "openapi: 3.0.3\ninfo:\n  title: Two Kinds API\n")
	h := NewOpenAPIHandler(path)

	req := httptest.NewRequest("GET", "/api/v1/openapi.yaml", nil)
	w := httptest.NewRecorder()
	h.ServeYAML(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Expected Content-Type 'application/x-yaml', got '%s'", ct)
	}
	if !strings.Contains(w.Body.String(), "Two Kinds API") {
		t.Error("Expected response body to contain the document title")
	}
}

func TestOpenAPIHandler_ServeJSON(t *testing.T) {
	t.Parallel()

	path := writeSpecFile(t, "openapi: 3.0.3\ninfo:\n  title: Two Kinds API\n  version: 1.0.0\n")
	h := NewOpenAPIHandler(path)

	req := httptest.NewRequest("GET", "/api/v1/openapi.json", nil)
	w := httptest.NewRecorder()
	h.ServeJSON(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	info, ok := body["info"].(map[string]any)
	if !ok {
		t.Fatal("Expected info object in converted document")
	}
	if title, _ := info["title"].(string); title != "Two Kinds API" {
		t.Errorf("Expected title 'Two Kinds API', got '%v'", info["title"])
	}
}

func TestOpenAPIHandler_MissingFile(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(filepath.Join(t.TempDir(), "missing.yaml"))

	req := httptest.NewRequest("GET", "/api/v1/openapi.yaml", nil)
	w := httptest.NewRecorder()
	h.ServeYAML(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// The document shipped in the repo must stay parseable and must describe the
// routes the server actually registers.
func TestOpenAPIHandler_ShippedDocument(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(filepath.Join("..", "..", "api", "openapi", "openapi.yaml"))

	req := httptest.NewRequest("GET", "/api/v1/openapi.json", nil)
	w := httptest.NewRecorder()
	h.ServeJSON(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Shipped document did not convert to JSON: %v", err)
	}
	paths, ok := body["paths"].(map[string]any)
	if !ok {
		t.Fatal("Expected paths object in shipped document")
	}
	for _, route := range []string{
		"/healthz",
		"/api/v1/sayings",
		"/api/v1/sayings/{id}/like",
		"/api/v1/users/me/preferences",
		"/api/v1/intros",
		"/api/v1/types",
	} {
		if _, ok := paths[route]; !ok {
			t.Errorf("Shipped document is missing path %s", route)
		}
	}
}
