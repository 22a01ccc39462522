package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jacobwagner8/Cosmos-Hiring-Assessment/engine/domain"
)

// DefaultGeminiBaseURL is the Gemini REST API root.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiClient calls the Gemini embedContent endpoint.
type GeminiClient struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	limiter   *rate.Limiter
	client    *http.Client
}

// NewGemini creates a Gemini embedding client. dimension > 0 enables a
// strict check on the returned vector size; mismatches are permanent
// failures.
func NewGemini(baseURL, apiKey, model string, dimension int) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		limiter:   rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		client:    &http.Client{},
	}
}

type geminiEmbedReq struct {
	Content geminiContent `json:"content"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedResp struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the embedding for text, mapping provider failures onto
// domain.ErrEmbedding.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed: %w: %w", domain.ErrEmbedding, err)
	}

	body, _ := json.Marshal(geminiEmbedReq{
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	})
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: %w: %w", domain.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: %w: %w", domain.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("embed: %w: status %d", domain.ErrEmbedding, resp.StatusCode)
		if permanentStatus(resp.StatusCode) {
			return nil, domain.Permanent(err)
		}
		return nil, err
	}

	var result geminiEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed: decode: %w: %w", domain.ErrEmbedding, err)
	}

	vec := result.Embedding.Values
	if len(vec) == 0 {
		return nil, domain.Permanent(fmt.Errorf("embed: %w: empty vector", domain.ErrEmbedding))
	}
	if c.dimension > 0 && len(vec) != c.dimension {
		return nil, domain.Permanent(fmt.Errorf("embed: %w: dimension %d, want %d", domain.ErrEmbedding, len(vec), c.dimension))
	}
	return vec, nil
}

// permanentStatus reports whether an HTTP status will not improve on retry.
// 429 and 5xx are transient; other 4xx (bad request, auth) are not.
func permanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
