package alert

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sunny-osprey/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTelegram(apiBase string) *Telegram {
	t := NewTelegram(models.TelegramConfig{
		BotToken:   "token",
		ChatID:     "chat42",
		APIBaseURL: apiBase,
	})
	t.retryBackoff = time.Millisecond
	return t
}

func TestTelegram_DisabledWithoutCredentials(t *testing.T) {
	tg := NewTelegram(models.TelegramConfig{})
	assert.False(t, tg.enabled)
	assert.False(t, tg.SendIncident(suspiciousIncident("person at gate")))
}

func TestTelegram_SendsTextMessage(t *testing.T) {
	var messages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "chat42", r.FormValue("chat_id"))
		messages = append(messages, r.FormValue("text"))
	}))
	defer srv.Close()

	ok := newTestTelegram(srv.URL).SendIncident(suspiciousIncident("person at gate"))

	assert.True(t, ok)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "SECURITY ALERT")
	assert.Contains(t, messages[0], "person at gate")
	assert.Contains(t, messages[0], "[Video Clip]")
}

func TestTelegram_UploadsClipWhenPresent(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("video-bytes"), 0o644))

	var videoCalls int
	var caption string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottoken/sendMessage":
			// text goes out first
		case "/bottoken/sendVideo":
			videoCalls++
			require.NoError(t, r.ParseMultipartForm(1 << 20))
			caption = r.FormValue("caption")
			assert.Equal(t, "chat42", r.FormValue("chat_id"))
			_, header, err := r.FormFile("video")
			require.NoError(t, err)
			assert.Equal(t, "clip.mp4", header.Filename)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	incident := suspiciousIncident("person at gate")
	incident.Result = &models.InferenceResult{ClipPath: clip}

	ok := newTestTelegram(srv.URL).SendIncident(incident)

	assert.True(t, ok)
	assert.Equal(t, 1, videoCalls)
	assert.True(t, strings.Contains(caption, "person at gate"))
}

func TestTelegram_MissingClipSkipsUpload(t *testing.T) {
	var videoCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bottoken/sendVideo" {
			videoCalls++
		}
	}))
	defer srv.Close()

	incident := suspiciousIncident("person at gate")
	incident.Result = &models.InferenceResult{ClipPath: filepath.Join(t.TempDir(), "gone.mp4")}

	ok := newTestTelegram(srv.URL).SendIncident(incident)

	assert.True(t, ok)
	assert.Equal(t, 0, videoCalls)
}

func TestTelegram_VideoUploadRetriesThenSucceeds(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("video-bytes"), 0o644))

	var videoCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendVideo" {
			return
		}
		videoCalls++
		if videoCalls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	incident := suspiciousIncident("person at gate")
	incident.Result = &models.InferenceResult{ClipPath: clip}

	ok := newTestTelegram(srv.URL).SendIncident(incident)

	assert.True(t, ok)
	assert.Equal(t, 3, videoCalls)
}

func TestTelegram_VideoUploadExhaustionFails(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("video-bytes"), 0o644))

	var videoCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bottoken/sendVideo" {
			videoCalls++
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	incident := suspiciousIncident("person at gate")
	incident.Result = &models.InferenceResult{ClipPath: clip}

	ok := newTestTelegram(srv.URL).SendIncident(incident)

	assert.False(t, ok)
	assert.Equal(t, 3, videoCalls)
}
