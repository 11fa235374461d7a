package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sunny-osprey/internal/models"

	"github.com/rs/zerolog/log"
)

const irmCreateIncidentPath = "/api/plugins/grafana-irm-app/resources/api/v1/IncidentsService.CreateIncident"

// titleMaxRunes caps the description portion of an incident title
const titleMaxRunes = 100

// GrafanaIRM delivers incidents to Grafana Incident Response Management via
// its plugin resource API.
type GrafanaIRM struct {
	config  models.GrafanaConfig
	client  *http.Client
	enabled bool
}

func NewGrafanaIRM(cfg models.GrafanaConfig) *GrafanaIRM {
	g := &GrafanaIRM{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		enabled: cfg.URL != "" && cfg.APIKey != "",
	}
	if !g.enabled {
		log.Warn().Msg("Grafana IRM incidents disabled: missing url or api_key")
	}
	return g
}

func (g *GrafanaIRM) Name() string { return "grafana" }

type irmPayload struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Severity      string `json:"severity"`
	Status        string `json:"status"`
	IsDrill       bool   `json:"isDrill"`
	RoomPrefix    string `json:"roomPrefix"`
	AttachCaption string `json:"attachCaption"`
	AttachURL     string `json:"attachURL"`
}

func (g *GrafanaIRM) SendIncident(incident *models.Incident) bool {
	if !g.enabled {
		log.Warn().Str("event_id", incident.EventID).Msg("Grafana IRM backend disabled, incident not sent")
		return false
	}

	if incident.Suspicious {
		log.Info().Str("event_id", incident.EventID).Msg("Creating Grafana IRM alert incident")
	} else {
		log.Info().Str("event_id", incident.EventID).Msg("Creating Grafana IRM notification incident")
	}

	return g.createIncident(buildIRMPayload(incident))
}

func buildIRMPayload(incident *models.Incident) irmPayload {
	title := incident.Description
	if r := []rune(title); len(r) > titleMaxRunes {
		title = string(r[:titleMaxRunes-3]) + "..."
	}

	prefix, severity, roomPrefix := "NORMAL ACTIVITY", "info", "normal-activity"
	if incident.Suspicious {
		prefix, severity, roomPrefix = "Security Alert", "critical", "security-alert"
	}

	return irmPayload{
		Title:         fmt.Sprintf("%s: %s - Event %s", prefix, title, incident.EventID),
		Description:   incident.Description,
		Severity:      severity,
		Status:        "active",
		IsDrill:       false,
		RoomPrefix:    roomPrefix,
		AttachCaption: incident.Description,
		AttachURL:     incident.VideoURL,
	}
}

// createIncident posts the payload. A non-2xx response is a logged failure,
// not an error the caller has to handle.
func (g *GrafanaIRM) createIncident(payload irmPayload) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal IRM payload")
		return false
	}

	req, err := http.NewRequest(http.MethodPost, g.config.URL+irmCreateIncidentPath, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("Failed to build IRM request")
		return false
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Error creating IRM incident")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("Failed to create IRM incident")
		return false
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || created.ID == "" {
		created.ID = "unknown"
	}
	log.Info().Str("incident_id", created.ID).Msg("Incident created in Grafana IRM")
	return true
}
