package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

// DefaultGeminiBaseURL is the Gemini REST API root.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel matches the model the index was built alongside.
const DefaultModel = "gemini-2.0-flash-lite"

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
	client  *http.Client
}

// NewGemini creates a Gemini completion client.
func NewGemini(baseURL, apiKey, model string) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		client:  &http.Client{},
	}
}

type geminiGenerateReq struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerateResp struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate produces an answer for the prompt, mapping provider failures
// onto domain.ErrGeneration. Leading and trailing whitespace is trimmed;
// the text is otherwise untouched.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generate: %w: %w", domain.ErrGeneration, err)
	}

	body, _ := json.Marshal(geminiGenerateReq{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generate: %w: %w", domain.ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: %w: %w", domain.ErrGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("generate: %w: status %d", domain.ErrGeneration, resp.StatusCode)
		if permanentStatus(resp.StatusCode) {
			return "", domain.Permanent(err)
		}
		return "", err
	}

	var result geminiGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("generate: decode: %w: %w", domain.ErrGeneration, err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("generate: %w: no candidates", domain.ErrGeneration)
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String()), nil
}

// permanentStatus reports whether an HTTP status will not improve on retry.
func permanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
