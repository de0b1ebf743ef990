package moderation

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the moderation model used when none is configured
	DefaultModel = "omni-moderation-latest"
	// DefaultTimeout bounds one moderation call
	DefaultTimeout = 10 * time.Second
)

// OpenAIModerator screens text with the OpenAI moderation endpoint
type OpenAIModerator struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIModerator creates a moderator backed by the OpenAI API
func NewOpenAIModerator(apiKey, baseURL, model string, logger *zap.Logger) *OpenAIModerator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIModerator{
		client: client,
		model:  model,
		logger: logger,
	}
}

var _ ContentModerator = (*OpenAIModerator)(nil)

// Moderate classifies the input text. API failures resolve as safe with a
// warning log; the error return is reserved for future strict-mode callers
// and is currently always nil.
func (m *OpenAIModerator) Moderate(ctx context.Context, input Input) (Result, error) {
	resp, err := m.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(input.Text),
		},
		Model: openai.ModerationModel(m.model),
	})
	if err != nil {
		m.logger.Warn("moderation_request_failed",
			zap.String("context", input.Context),
			zap.Error(err),
		)
		return Result{IsSafe: true}, nil
	}
	if len(resp.Results) == 0 {
		m.logger.Warn("moderation_empty_response",
			zap.String("context", input.Context),
		)
		return Result{IsSafe: true}, nil
	}

	result := evaluate(resp.Results[0])
	if !result.IsSafe {
		m.logger.Info("moderation_flagged",
			zap.String("context", input.Context),
			zap.Strings("categories", result.Categories),
			zap.Float64("confidence", result.Confidence),
		)
	}
	return result, nil
}

// evaluate converts one API verdict into a Result
func evaluate(verdict openai.Moderation) Result {
	if !verdict.Flagged {
		return Result{IsSafe: true}
	}

	categories := flaggedCategories(verdict.Categories)
	confidence := maxScore(verdict.CategoryScores, categories)

	return Result{
		IsSafe:     false,
		Reason:     buildReason(categories),
		Categories: categories,
		Confidence: confidence,
	}
}

// flaggedCategories lists the category names the classifier tripped on
func flaggedCategories(c openai.ModerationCategories) []string {
	flags := []struct {
		name    string
		flagged bool
	}{
		{"harassment", c.Harassment},
		{"harassment/threatening", c.HarassmentThreatening},
		{"hate", c.Hate},
		{"hate/threatening", c.HateThreatening},
		{"illicit", c.Illicit},
		{"illicit/violent", c.IllicitViolent},
		{"self-harm", c.SelfHarm},
		{"self-harm/instructions", c.SelfHarmInstructions},
		{"self-harm/intent", c.SelfHarmIntent},
		{"sexual", c.Sexual},
		{"sexual/minors", c.SexualMinors},
		{"violence", c.Violence},
		{"violence/graphic", c.ViolenceGraphic},
	}

	var flagged []string
	for _, f := range flags {
		if f.flagged {
			flagged = append(flagged, f.name)
		}
	}
	return flagged
}

// maxScore returns the highest score among the flagged categories
func maxScore(s openai.ModerationCategoryScores, categories []string) float64 {
	scores := map[string]float64{
		"harassment":             s.Harassment,
		"harassment/threatening": s.HarassmentThreatening,
		"hate":                   s.Hate,
		"hate/threatening":       s.HateThreatening,
		"illicit":                s.Illicit,
		"illicit/violent":        s.IllicitViolent,
		"self-harm":              s.SelfHarm,
		"self-harm/instructions": s.SelfHarmInstructions,
		"self-harm/intent":       s.SelfHarmIntent,
		"sexual":                 s.Sexual,
		"sexual/minors":          s.SexualMinors,
		"violence":               s.Violence,
		"violence/graphic":       s.ViolenceGraphic,
	}

	var max float64
	for _, name := range categories {
		if score := scores[name]; score > max {
			max = score
		}
	}
	return max
}

func buildReason(categories []string) string {
	if len(categories) == 0 {
		return "Content flagged by moderation"
	}
	return "Content flagged for: " + strings.Join(categories, ", ")
}
