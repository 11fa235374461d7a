package inference

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"sunny-osprey/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePromptFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewClient_MissingPromptFile(t *testing.T) {
	_, err := NewClient(models.InferenceConfig{
		BaseURL:    "http://127.0.0.1:0",
		PromptFile: filepath.Join(t.TempDir(), "nope.txt"),
	})
	assert.Error(t, err)
}

func TestInfer_ParsesWrappedJSON(t *testing.T) {
	var got analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("Here is my analysis:\n{\"description\": \"person at gate\", \"suspicious\": \"yes\"}\nThanks."))
	}))
	defer srv.Close()

	c, err := NewClient(models.InferenceConfig{
		BaseURL:    srv.URL,
		PromptFile: writePromptFile(t, "describe the clip"),
	})
	require.NoError(t, err)

	result, err := c.Infer("/tmp/clip.mp4")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Empty(t, result.Error)
	assert.Equal(t, "person at gate", result.Description)
	assert.Equal(t, models.SuspicionString, result.Suspicious.Kind)
	assert.Equal(t, "yes", result.Suspicious.Str)

	assert.Equal(t, "/tmp/clip.mp4", got.ClipPath)
	assert.Equal(t, "describe the clip", got.Prompt)
	assert.Equal(t, defaultSystemPrompt, got.SystemPrompt)
}

func TestInfer_NoJSONInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("the model rambled and produced nothing structured"))
	}))
	defer srv.Close()

	c, err := NewClient(models.InferenceConfig{
		BaseURL:    srv.URL,
		PromptFile: writePromptFile(t, "p"),
	})
	require.NoError(t, err)

	result, err := c.Infer("/tmp/clip.mp4")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "no JSON found in response", result.Error)
	assert.Contains(t, result.RawResponse, "rambled")
}

func TestInfer_ServiceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(models.InferenceConfig{
		BaseURL:    srv.URL,
		PromptFile: writePromptFile(t, "p"),
	})
	require.NoError(t, err)

	result, err := c.Infer("/tmp/clip.mp4")
	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestInfer_CustomSystemPrompt(t *testing.T) {
	sysPath := filepath.Join(t.TempDir(), "system.txt")
	require.NoError(t, os.WriteFile(sysPath, []byte("be terse\n"), 0o644))

	var got analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"description": "d", "suspicious": false}`))
	}))
	defer srv.Close()

	c, err := NewClient(models.InferenceConfig{
		BaseURL:          srv.URL,
		PromptFile:       writePromptFile(t, "p"),
		SystemPromptFile: sysPath,
	})
	require.NoError(t, err)

	_, err = c.Infer("/tmp/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "be terse", got.SystemPrompt)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantError string
		wantDesc  string
	}{
		{
			name:     "Bare JSON",
			response: `{"description": "d", "suspicious": true}`,
			wantDesc: "d",
		},
		{
			name:     "JSON With Surrounding Prose",
			response: "sure!\n```json\n{\"description\": \"d\"}\n```",
			wantDesc: "d",
		},
		{
			name:      "No Braces",
			response:  "nothing here",
			wantError: "no JSON found in response",
		},
		{
			name:      "Broken JSON",
			response:  `{"description": `,
			wantError: "no JSON found in response",
		},
		{
			name:      "Unparseable Object",
			response:  `{"description": oops}`,
			wantError: "invalid JSON response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResponse(tt.response)
			assert.Equal(t, tt.wantError, got.Error)
			if tt.wantError == "" {
				assert.Equal(t, tt.wantDesc, got.Description)
			} else {
				assert.Equal(t, tt.response, got.RawResponse)
			}
		})
	}
}
