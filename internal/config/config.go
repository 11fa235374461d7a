package config

import (
	"fmt"
	"os"

	"sunny-osprey/internal/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the configuration from a file, overlays credentials from
// the environment (including a .env file when present) and applies defaults.
// A missing config file is not an error; the defaults describe a working
// single-host deployment.
func LoadConfig(path string) (*models.Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded environment variables from .env file")
	}

	var cfg models.Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		log.Warn().Str("path", path).Msg("Configuration file not found, using defaults")
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyEnv fills fields the config file left empty. The file wins when both
// are set; the environment is the usual home for credentials.
func applyEnv(cfg *models.Config) {
	overlay(&cfg.MQTT.Broker, "MQTT_BROKER")
	overlay(&cfg.MQTT.User, "MQTT_USER")
	overlay(&cfg.MQTT.Password, "MQTT_PASSWORD")
	overlay(&cfg.Frigate.APIBaseURL, "FRIGATE_API_URL")
	overlay(&cfg.Inference.BaseURL, "INFERENCE_URL")
	overlay(&cfg.Alerts.VideoClipBaseURL, "VIDEO_CLIP_BASE_URL")
	overlay(&cfg.Alerts.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	overlay(&cfg.Alerts.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	overlay(&cfg.Alerts.Grafana.URL, "GRAFANA_URL")
	overlay(&cfg.Alerts.Grafana.APIKey, "GRAFANA_API_KEY")
}

func overlay(field *string, key string) {
	if *field == "" {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

func applyDefaults(cfg *models.Config) {
	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = "tcp://127.0.0.1:1883"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "sunny-osprey-" + uuid.NewString()[:8]
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "frigate/events"
	}
	if cfg.MQTT.ReadyFile == "" {
		cfg.MQTT.ReadyFile = "/shared/ready"
	}
	if cfg.Frigate.APIBaseURL == "" {
		cfg.Frigate.APIBaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Inference.BaseURL == "" {
		cfg.Inference.BaseURL = "http://127.0.0.1:8091"
	}
	if cfg.Inference.PromptFile == "" {
		cfg.Inference.PromptFile = "prompt.txt"
	}
	if cfg.Inference.TimeoutSeconds <= 0 {
		cfg.Inference.TimeoutSeconds = 120
	}
	if cfg.Alerts.Backend == "" {
		cfg.Alerts.Backend = "telegram"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
