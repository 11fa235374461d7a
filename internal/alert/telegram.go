package alert

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"sunny-osprey/internal/models"

	"github.com/rs/zerolog/log"
)

const defaultTelegramAPI = "https://api.telegram.org"

const videoSendAttempts = 3

// Telegram delivers incidents to a chat via the Bot API: a text message,
// plus the clip itself as a video message when it is still on disk.
type Telegram struct {
	config  models.TelegramConfig
	client  *http.Client
	apiBase string
	enabled bool

	retryBackoff time.Duration
}

func NewTelegram(cfg models.TelegramConfig) *Telegram {
	t := &Telegram{
		config: cfg,
		client: &http.Client{
			// Video uploads on slow uplinks take a while
			Timeout: 120 * time.Second,
		},
		apiBase:      cfg.APIBaseURL,
		enabled:      cfg.BotToken != "" && cfg.ChatID != "",
		retryBackoff: 2 * time.Second,
	}
	if t.apiBase == "" {
		t.apiBase = defaultTelegramAPI
	}
	if !t.enabled {
		log.Warn().Msg("Telegram notifications disabled: missing bot_token or chat_id")
	}
	return t
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) SendIncident(incident *models.Incident) bool {
	if !t.enabled {
		log.Warn().Str("event_id", incident.EventID).Msg("Telegram backend disabled, incident not sent")
		return false
	}

	if incident.Suspicious {
		log.Info().Str("event_id", incident.EventID).Msg("Sending Telegram alert")
	} else {
		log.Info().Str("event_id", incident.EventID).Msg("Sending Telegram notification")
	}

	text := incident.Description
	if incident.VideoURL != "" {
		text += "\n" + incident.VideoURL
	}
	if err := t.sendMessage(text); err != nil {
		log.Error().Err(err).Str("event_id", incident.EventID).Msg("Error sending Telegram message")
		return false
	}

	clipPath := ""
	if incident.Result != nil {
		clipPath = incident.Result.ClipPath
	}
	if clipPath != "" {
		if _, err := os.Stat(clipPath); err == nil {
			if err := t.sendVideo(clipPath, incident.Description); err != nil {
				log.Error().Err(err).Str("event_id", incident.EventID).Msg("Error sending Telegram video")
				return false
			}
		}
	}

	return true
}

func (t *Telegram) sendMessage(text string) error {
	vals := url.Values{
		"chat_id": {t.config.ChatID},
		"text":    {text},
	}
	resp, err := t.client.PostForm(fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.config.BotToken), vals)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}

// sendVideo uploads the clip, retrying on transport failure with a fixed
// backoff. The last error is surfaced after the attempts are exhausted.
func (t *Telegram) sendVideo(path, caption string) error {
	var lastErr error
	for attempt := 1; attempt <= videoSendAttempts; attempt++ {
		lastErr = t.uploadVideo(path, caption)
		if lastErr == nil {
			return nil
		}
		log.Error().Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", videoSendAttempts).
			Msg("Telegram video upload attempt failed")
		if attempt < videoSendAttempts {
			time.Sleep(t.retryBackoff)
		}
	}
	return lastErr
}

func (t *Telegram) uploadVideo(path, caption string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", t.config.ChatID); err != nil {
		return err
	}
	if err := w.WriteField("caption", caption); err != nil {
		return err
	}
	part, err := w.CreateFormFile("video", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	resp, err := t.client.Post(fmt.Sprintf("%s/bot%s/sendVideo", t.apiBase, t.config.BotToken), w.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendVideo returned status %d", resp.StatusCode)
	}
	return nil
}
