// Package vision submits food photos to a remote multimodal model for identification.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/tabemono/internal/config"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when remote inference fails: network or
// credential errors, or output that cannot be parsed as a candidate list.
// Callers surface it as "image recognition currently off", not a crash.
var ErrUnavailable = errors.New("vision: image recognition unavailable")

// Candidate is one food identified in a photo, with the model's own
// estimates. Confidence is self-reported and clamped to [0,1].
type Candidate struct {
	Name           string             `json:"name"`
	ServingSize    string             `json:"serving_size"`
	Calories       float64            `json:"calories"`
	Macronutrients map[string]float64 `json:"macronutrients"`
	Confidence     float64            `json:"confidence"`
}

const systemPrompt = `You are a nutrition assistant that identifies foods in photos.

IMPORTANT: Always respond with valid JSON in this exact format:
{
  "candidates": [
    {
      "name": "specific food name",
      "serving_size": "estimated portion with units",
      "calories": [number],
      "macronutrients": {"protein": [grams], "carbs": [grams], "fat": [grams]},
      "confidence": [number between 0 and 1]
    }
  ]
}

List the most likely foods first. Return at most the requested number of candidates.`

// Gateway is a stateless client for a remote multimodal inference endpoint
// (OpenAI-compatible chat completions). No caching, no catalog dependency:
// every call is a fresh inference.
type Gateway struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewGateway creates a gateway from config. Returns nil when no endpoint is
// configured, which callers treat as "vision path not available".
func NewGateway(cfg *config.VisionConfig, logger *zap.Logger) *Gateway {
	if cfg == nil || cfg.Endpoint == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

// AnalyzeImage sends the raw image to the remote model and returns up to
// topK candidates.
func (g *Gateway) AnalyzeImage(ctx context.Context, image []byte, topK int) ([]Candidate, error) {
	if topK <= 0 {
		topK = 5
	}
	content, err := g.complete(ctx, image, topK)
	if err != nil {
		return nil, err
	}
	candidates, err := parseCandidates(content)
	if err != nil {
		g.logger.Warn("vision response unparseable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func (g *Gateway) complete(ctx context.Context, image []byte, topK int) (string, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(image),
		base64.StdEncoding.EncodeToString(image))

	payload := map[string]interface{}{
		"model": g.model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemPrompt},
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": fmt.Sprintf("Identify the foods in this photo. Return at most %d candidates.", topK)},
					{"type": "image_url", "image_url": map[string]string{"url": dataURI}},
				},
			},
		},
		"max_tokens":  1000,
		"temperature": 0.1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Warn("vision request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", b))
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return completion.Choices[0].Message.Content, nil
}

// parseCandidates extracts the candidate array from model output. Models
// sometimes wrap the JSON in prose or code fences, so the outermost JSON
// object is extracted by brace positions.
func parseCandidates(content string) ([]Candidate, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, errors.New("no JSON object in output")
	}

	var parsed struct {
		Candidates []Candidate `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parse candidates: %v", err)
	}
	if parsed.Candidates == nil {
		return nil, errors.New("no candidate array in output")
	}

	candidates := parsed.Candidates[:0]
	for _, c := range parsed.Candidates {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if c.Confidence < 0 {
			c.Confidence = 0
		}
		if c.Confidence > 1 {
			c.Confidence = 1
		}
		if c.Macronutrients == nil {
			c.Macronutrients = map[string]float64{}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
