package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/twokinds/twokinds-api/internal/middleware"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/services/sayings"
)

func TestViewerID(t *testing.T) {
	t.Parallel()

	anon := httptest.NewRequest("GET", "/api/v1/sayings", nil)
	if got := viewerID(anon); got != 0 {
		t.Errorf("viewerID(anonymous) = %d, want 0", got)
	}

	user := &models.User{ID: 42, Email: "a@x.com"}
	authed := anon.WithContext(middleware.SetUserInContext(anon.Context(), user))
	if got := viewerID(authed); got != 42 {
		t.Errorf("viewerID(authenticated) = %d, want 42", got)
	}
}

func TestPathID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		id     string
		wantID int64
		wantOK bool
	}{
		{"valid", "17", 17, true},
		{"not a number", "abc", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/api/v1/sayings/x", nil)
			r = mux.SetURLVars(r, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()

			id, ok := pathID(w, r)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("pathID() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
			if !tt.wantOK && w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDecodeBody_InvalidJSON(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "/api/v1/sayings", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	var req CreateSayingRequest
	if decodeBody(w, r, &req) {
		t.Fatal("decodeBody() = true, want false for invalid JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestValidateStruct_RejectsShortKind(t *testing.T) {
	t.Parallel()

	req := CreateSayingRequest{
		IntroID:    1,
		TypeID:     1,
		FirstKind:  "ab",
		SecondKind: "long enough",
	}
	w := httptest.NewRecorder()
	if validateStruct(w, req) {
		t.Fatal("validateStruct() = true, want false for short first_kind")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRespondServiceError(t *testing.T) {
	t.Parallel()

	h := &SayingHandler{}
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &sayings.ValidationError{Field: "firstKind", Message: "too short"}, http.StatusBadRequest},
		{"rate limited", &sayings.RateLimitError{Message: "Rate limit exceeded. Try again in 1 hour."}, http.StatusTooManyRequests},
		{"moderation", &sayings.ModerationError{Reason: "Content flagged for: hate"}, http.StatusUnprocessableEntity},
		{"not found", sayings.ErrSayingNotFound, http.StatusNotFound},
		{"forbidden", sayings.ErrForbidden, http.StatusForbidden},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			h.respondServiceError(w, tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if success, _ := body["success"].(bool); success {
				t.Error("success = true, want false on error response")
			}
		})
	}
}

func TestRespondServiceError_HidesInternalDetails(t *testing.T) {
	t.Parallel()

	h := &SayingHandler{}
	w := httptest.NewRecorder()
	h.respondServiceError(w, errors.New("pq: connection refused at 10.0.0.5:5432"))

	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Error("internal error details leaked into response body")
	}
}
