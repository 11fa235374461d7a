package alert

import (
	"fmt"
	"strings"

	"sunny-osprey/internal/classify"
	"sunny-osprey/internal/metrics"
	"sunny-osprey/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	suspiciousBanner = "🚨 SECURITY ALERT 🚨"
	normalBanner     = "🏃 NORMAL ACTIVITY 🏃"

	defaultDescription = "No description available"
)

// Notifier is the capability every alert backend provides. SendIncident
// reports whether the incident was delivered; backends do not return errors
// across this boundary.
type Notifier interface {
	SendIncident(incident *models.Incident) bool
	Name() string
}

// Manager composes incidents and routes them to the configured backend,
// applying the normal-activity suppression policy.
type Manager struct {
	backend          Notifier
	sendAll          bool
	videoClipBaseURL string
}

// NewBackend selects the alert backend once, at startup. Unknown values fall
// back to Telegram like the "ALERT_BACKEND" setting always has.
func NewBackend(cfg models.AlertsConfig) Notifier {
	if strings.EqualFold(cfg.Backend, "grafana") {
		return NewGrafanaIRM(cfg.Grafana)
	}
	return NewTelegram(cfg.Telegram)
}

func NewManager(cfg models.AlertsConfig, backend Notifier) *Manager {
	return &Manager{
		backend:          backend,
		sendAll:          cfg.SendAllActivities,
		videoClipBaseURL: cfg.VideoClipBaseURL,
	}
}

// Route builds an incident for a classified result and dispatches it. The
// return value means "handled": a normal-activity incident held back by the
// suppression policy is handled, not failed.
func (m *Manager) Route(eventID string, result *models.InferenceResult) bool {
	incident := m.buildIncident(eventID, result)

	if !incident.Suspicious && !m.sendAll {
		log.Info().Str("event_id", eventID).Msg("Normal activity, notification suppressed by configuration")
		metrics.AlertsSuppressed.Inc()
		return true
	}

	if !m.backend.SendIncident(incident) {
		metrics.AlertsFailed.WithLabelValues(m.backend.Name()).Inc()
		return false
	}
	metrics.AlertsSent.WithLabelValues(m.backend.Name()).Inc()
	return true
}

func (m *Manager) buildIncident(eventID string, result *models.InferenceResult) *models.Incident {
	description := result.Description
	if description == "" {
		description = defaultDescription
	}

	suspicious := classify.IsSuspicious(result)
	banner := normalBanner
	if suspicious {
		banner = suspiciousBanner
	}

	videoURL := ""
	if m.videoClipBaseURL != "" {
		videoURL = fmt.Sprintf("[Video Clip] %s?event_id=%s", m.videoClipBaseURL, eventID)
	}

	return &models.Incident{
		EventID:     eventID,
		Description: banner + "\n" + description,
		VideoURL:    videoURL,
		Suspicious:  suspicious,
		Result:      result,
	}
}
