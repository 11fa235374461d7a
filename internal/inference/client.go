package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"sunny-osprey/internal/models"

	"github.com/rs/zerolog/log"
)

const defaultSystemPrompt = "You are a helpful security camera video analysis assistant."

// Client talks to the inference collaborator over HTTP. The collaborator
// shares a filesystem with this process, so clips are referenced by path
// rather than uploaded.
type Client struct {
	baseURL      string
	client       *http.Client
	prompt       string
	systemPrompt string
}

func NewClient(cfg models.InferenceConfig) (*Client, error) {
	prompt, err := os.ReadFile(cfg.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	systemPrompt := defaultSystemPrompt
	if cfg.SystemPromptFile != "" {
		data, err := os.ReadFile(cfg.SystemPromptFile)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.SystemPromptFile).Msg("Could not read system prompt file, using default")
		} else {
			systemPrompt = strings.TrimSpace(string(data))
		}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		prompt:       string(prompt),
		systemPrompt: systemPrompt,
	}, nil
}

type analyzeRequest struct {
	ClipPath     string `json:"clip_path"`
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"system_prompt"`
}

// Infer submits a clip for analysis and normalizes the response. A nil result
// means no usable result was produced; a non-nil result carrying Error
// signals a collaborator failure and must not be classified.
func (c *Client) Infer(clipPath string) (*models.InferenceResult, error) {
	body, err := json.Marshal(analyzeRequest{
		ClipPath:     clipPath,
		Prompt:       c.prompt,
		SystemPrompt: c.systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Post(c.baseURL+"/api/v1/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis service returned status %d", resp.StatusCode)
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("Inference completed")
	return parseResponse(string(raw)), nil
}

// parseResponse extracts the outermost JSON object from the model output.
// Responses frequently wrap the JSON in prose or code fences; when no object
// can be decoded the raw text is preserved on a degraded result.
func parseResponse(response string) *models.InferenceResult {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return &models.InferenceResult{Error: "no JSON found in response", RawResponse: response}
	}

	var result models.InferenceResult
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return &models.InferenceResult{Error: "invalid JSON response", RawResponse: response}
	}
	return &result
}
