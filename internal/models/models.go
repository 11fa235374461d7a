package models

import "encoding/json"

// Config defines the user settings
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Frigate   FrigateConfig   `yaml:"frigate"`
	Cameras   CameraConfig    `yaml:"cameras"`
	Inference InferenceConfig `yaml:"inference"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Logging   LoggingConfig   `yaml:"logging"`
	API       APIConfig       `yaml:"api"`
}

type MQTTConfig struct {
	Broker    string `yaml:"broker"`
	ClientID  string `yaml:"client_id"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Topic     string `yaml:"topic"`
	ReadyFile string `yaml:"ready_file"`
}

type FrigateConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
}

type CameraConfig struct {
	// EnabledCameras is an allow-list. Empty means every camera is processed.
	EnabledCameras []string `yaml:"enabled_cameras"`
}

type InferenceConfig struct {
	BaseURL          string `yaml:"base_url"`
	PromptFile       string `yaml:"prompt_file"`
	SystemPromptFile string `yaml:"system_prompt_file"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

type AlertsConfig struct {
	Backend           string         `yaml:"backend"` // "telegram" or "grafana"
	SendAllActivities bool           `yaml:"send_all_activities"`
	VideoClipBaseURL  string         `yaml:"video_clip_base_url"`
	Telegram          TelegramConfig `yaml:"telegram"`
	Grafana           GrafanaConfig  `yaml:"grafana"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	// APIBaseURL overrides the Telegram Bot API endpoint, mainly for tests
	APIBaseURL string `yaml:"api_base_url"`
}

type GrafanaConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type APIConfig struct {
	Listen string `yaml:"listen"` // empty disables the ops server
}

// FrigateEvent matches the Frigate JSON payload
type FrigateEvent struct {
	Type   string             `json:"type"`
	Before *FrigateEventState `json:"before"`
	After  *FrigateEventState `json:"after"`
}

type FrigateEventState struct {
	ID        string  `json:"id"`
	Camera    string  `json:"camera"`
	Label     string  `json:"label"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time,omitempty"`
	// VideoPath is only present on synthetic test events, pointing at a
	// pre-seeded local clip instead of the Frigate API.
	VideoPath string `json:"video_path,omitempty"`
}

// ID returns the event id carried in the "after" state, or "" if absent.
func (e *FrigateEvent) ID() string {
	if e.After == nil {
		return ""
	}
	return e.After.ID
}

// Camera returns the camera name from the "after" state, falling back to
// "before" when "after" carries none.
func (e *FrigateEvent) Camera() string {
	if e.After != nil && e.After.Camera != "" {
		return e.After.Camera
	}
	if e.Before != nil {
		return e.Before.Camera
	}
	return ""
}

// ClipReference names the video artifact retrieved for one event. Ephemeral
// clips are owned by the pipeline and deleted after processing; fixture clips
// are never touched.
type ClipReference struct {
	Path      string
	Ephemeral bool
}

// SuspicionKind tags the wire shape of the "suspicious" field.
type SuspicionKind int

const (
	SuspicionAbsent SuspicionKind = iota
	SuspicionBool
	SuspicionString
	SuspicionNumber
	SuspicionOther // arrays, objects, anything else the model invents
)

// SuspicionValue preserves the shape of the suspicious verdict as emitted by
// the model. The field is not consistent across prompt versions: booleans,
// "yes"/"no" strings and numbers have all been observed.
type SuspicionValue struct {
	Kind SuspicionKind
	Bool bool
	Str  string
	Num  float64

	empty bool
}

func (v *SuspicionValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		v.Kind = SuspicionAbsent
		v.empty = true
	case bool:
		v.Kind = SuspicionBool
		v.Bool = val
		v.empty = !val
	case string:
		v.Kind = SuspicionString
		v.Str = val
		v.empty = val == ""
	case float64:
		v.Kind = SuspicionNumber
		v.Num = val
		v.empty = val == 0
	case []interface{}:
		v.Kind = SuspicionOther
		v.empty = len(val) == 0
	case map[string]interface{}:
		v.Kind = SuspicionOther
		v.empty = len(val) == 0
	default:
		v.Kind = SuspicionOther
	}
	return nil
}

// Falsy reports whether the value is absent or empty in the loose,
// presence-based sense the classifier uses when deciding to fall back to the
// legacy field. An explicit false, "" and 0 all count as falsy.
func (v SuspicionValue) Falsy() bool {
	return v.Kind == SuspicionAbsent || v.empty
}

// InferenceResult is the normalized output of the inference collaborator.
// A result carrying Error must never be classified.
type InferenceResult struct {
	Description      string         `json:"description"`
	Suspicious       SuspicionValue `json:"suspicious"`
	LegacySuspicious SuspicionValue `json:"is_unusual_or_suspicious_activity_detected"`
	Error            string         `json:"error,omitempty"`
	RawResponse      string         `json:"raw_response,omitempty"`

	// ClipPath is attached by the pipeline after a successful fetch so
	// backends can upload the clip itself.
	ClipPath string `json:"-"`
}

// Incident is the alert-ready projection handed to a backend.
type Incident struct {
	EventID     string
	Description string // banner-decorated
	VideoURL    string // decorated link, may be empty
	Suspicious  bool
	Result      *InferenceResult
}
