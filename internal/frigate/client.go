package frigate

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sunny-osprey/internal/metrics"
	"sunny-osprey/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// testEventPrefix marks synthetic events whose clip is a pre-seeded local
// file instead of a Frigate API download.
const testEventPrefix = "test_"

const downloadAttempts = 3

// ErrClipUnavailable is returned when no clip could be produced for an event,
// either because every download attempt failed or a test fixture is missing.
// The caller treats it as "skip this event", never as fatal.
var ErrClipUnavailable = errors.New("clip unavailable")

type Client struct {
	config models.FrigateConfig
	client *http.Client

	// retryBackoff is fixed, no jitter or growth; worst case is bounded at
	// (downloadAttempts-1) * retryBackoff before giving up. Tests shrink it.
	retryBackoff time.Duration
}

func NewClient(cfg models.FrigateConfig) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryBackoff: 3 * time.Second,
	}
}

// FetchClip retrieves the video clip for an end event. Network downloads are
// saved to a uniquely named temporary file and marked ephemeral; test fixture
// clips are returned as-is and never deleted by the pipeline.
func (c *Client) FetchClip(evt *models.FrigateEvent) (*models.ClipReference, error) {
	eventID := evt.ID()
	if strings.HasPrefix(eventID, testEventPrefix) {
		return c.localClip(evt)
	}

	url := fmt.Sprintf("%s/api/events/%s/clip.mp4", c.config.APIBaseURL, eventID)
	log.Info().Str("event_id", eventID).Str("url", url).Msg("Downloading video clip")

	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		path, size, err := c.download(url)
		if err == nil {
			log.Info().Str("path", path).Int64("bytes", size).Msg("Downloaded video clip")
			metrics.ClipDownloads.WithLabelValues("ok").Inc()
			return &models.ClipReference{Path: path, Ephemeral: true}, nil
		}

		lastErr = err
		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", downloadAttempts).
			Str("event_id", eventID).
			Msg("Clip download attempt failed")

		if attempt < downloadAttempts {
			time.Sleep(c.retryBackoff)
		}
	}

	metrics.ClipDownloads.WithLabelValues("failed").Inc()
	return nil, fmt.Errorf("%w: %v", ErrClipUnavailable, lastErr)
}

// download performs one GET attempt. A zero-byte body counts as a failure and
// the partial file is removed before the caller retries.
func (c *Client) download(url string) (string, int64, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("clip request returned status %d", resp.StatusCode)
	}

	path := filepath.Join(os.TempDir(), "clip-"+uuid.NewString()+".mp4")
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}
	if n == 0 {
		os.Remove(path)
		return "", 0, errors.New("downloaded clip is empty")
	}

	return path, n, nil
}

func (c *Client) localClip(evt *models.FrigateEvent) (*models.ClipReference, error) {
	if evt.After == nil || evt.After.VideoPath == "" {
		return nil, fmt.Errorf("%w: test event %q carries no video_path", ErrClipUnavailable, evt.ID())
	}
	if _, err := os.Stat(evt.After.VideoPath); err != nil {
		return nil, fmt.Errorf("%w: test clip %s: %v", ErrClipUnavailable, evt.After.VideoPath, err)
	}

	log.Info().Str("path", evt.After.VideoPath).Msg("Using local test clip")
	return &models.ClipReference{Path: evt.After.VideoPath, Ephemeral: false}, nil
}
