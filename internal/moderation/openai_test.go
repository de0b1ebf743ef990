package moderation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

func TestEvaluate_NotFlagged(t *testing.T) {
	t.Parallel()
	result := evaluate(openai.Moderation{Flagged: false})
	if !result.IsSafe {
		t.Error("evaluate() IsSafe = false, want true for unflagged verdict")
	}
	if result.Reason != "" || len(result.Categories) != 0 {
		t.Errorf("evaluate() = %+v, want empty reason and categories", result)
	}
}

func TestEvaluate_Flagged(t *testing.T) {
	t.Parallel()
	verdict := openai.Moderation{
		Flagged: true,
		Categories: openai.ModerationCategories{
			Harassment: true,
			Hate:       true,
		},
		CategoryScores: openai.ModerationCategoryScores{
			Harassment: 0.92,
			Hate:       0.71,
			Violence:   0.99, // not flagged, must not drive confidence
		},
	}

	result := evaluate(verdict)
	if result.IsSafe {
		t.Fatal("evaluate() IsSafe = true, want false")
	}
	want := "Content flagged for: harassment, hate"
	if result.Reason != want {
		t.Errorf("Reason = %q, want %q", result.Reason, want)
	}
	if len(result.Categories) != 2 {
		t.Errorf("Categories = %v, want 2 entries", result.Categories)
	}
	if result.Confidence != 0.92 {
		t.Errorf("Confidence = %v, want 0.92", result.Confidence)
	}
}

func TestEvaluate_FlaggedWithoutCategories(t *testing.T) {
	t.Parallel()
	result := evaluate(openai.Moderation{Flagged: true})
	if result.IsSafe {
		t.Fatal("evaluate() IsSafe = true, want false")
	}
	if result.Reason != "Content flagged by moderation" {
		t.Errorf("Reason = %q, want generic fallback", result.Reason)
	}
}

// stubModerationAPI returns a moderator pointed at a test server that
// answers every request with the given handler.
func stubModerationAPI(t *testing.T, handler http.HandlerFunc) *OpenAIModerator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIModerator("test-key", server.URL, "", zap.NewNop())
}

func TestOpenAIModerator_FailsOpenOnAPIError(t *testing.T) {
	t.Parallel()

	// 401 is not retried by the client, so the call fails immediately.
	m := stubModerationAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	})

	result, err := m.Moderate(context.Background(), Input{Text: "some saying", Context: "saying"})
	if err != nil {
		t.Fatalf("Moderate() error = %v, want nil (fail open)", err)
	}
	if !result.IsSafe {
		t.Error("IsSafe = false, want true when the API is unreachable")
	}
}

func TestOpenAIModerator_FailsOpenOnEmptyResults(t *testing.T) {
	t.Parallel()

	m := stubModerationAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "modr-1", "model": "omni-moderation-latest", "results": []}`))
	})

	result, err := m.Moderate(context.Background(), Input{Text: "some saying", Context: "saying"})
	if err != nil {
		t.Fatalf("Moderate() error = %v, want nil", err)
	}
	if !result.IsSafe {
		t.Error("IsSafe = false, want true for empty verdict list")
	}
}

func TestOpenAIModerator_FlaggedVerdict(t *testing.T) {
	t.Parallel()

	m := stubModerationAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "modr-1",
			"model": "omni-moderation-latest",
			"results": [{
				"flagged": true,
				"categories": {"harassment": true},
				"category_scores": {"harassment": 0.95}
			}]
		}`))
	})

	result, err := m.Moderate(context.Background(), Input{Text: "some saying", Context: "saying"})
	if err != nil {
		t.Fatalf("Moderate() error = %v", err)
	}
	if result.IsSafe {
		t.Fatal("IsSafe = true, want flagged verdict")
	}
	if result.Reason != "Content flagged for: harassment" {
		t.Errorf("Reason = %q, want harassment flag", result.Reason)
	}
}

func TestNullModerator(t *testing.T) {
	t.Parallel()
	result, err := NullModerator{}.Moderate(context.Background(), Input{Text: "anything"})
	if err != nil {
		t.Fatalf("Moderate() error = %v", err)
	}
	if !result.IsSafe {
		t.Error("NullModerator flagged content, want allow-all")
	}
}
