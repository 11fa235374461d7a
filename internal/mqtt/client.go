package mqtt

import (
	"os"
	"time"

	"sunny-osprey/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

type Client struct {
	client mqtt.Client
	config models.MQTTConfig
}

func NewClient(cfg models.MQTTConfig) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.User != "" {
		opts.SetUsername(cfg.User)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetOrderMatters(true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("Connected to MQTT broker")
		writeReadyFile(cfg.ReadyFile)
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.Error().Err(err).Msg("Lost connection to MQTT broker")
	})

	client := mqtt.NewClient(opts)
	return &Client{
		client: client,
		config: cfg,
	}
}

// writeReadyFile drops the readiness sentinel for external health checks.
// Failure to write is never fatal.
func writeReadyFile(path string) {
	if path == "" {
		return
	}
	if err := os.WriteFile(path, []byte("ready\n"), 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write readiness file")
	}
}

func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Subscribe forwards raw event payloads to the pipeline's ingest channel.
// Payloads are copied because paho may reuse the message buffer.
func (c *Client) Subscribe(ingestChan chan<- []byte) error {
	token := c.client.Subscribe(c.config.Topic, 0, func(client mqtt.Client, msg mqtt.Message) {
		payload := append([]byte(nil), msg.Payload()...)
		ingestChan <- payload
	})

	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	log.Info().Str("topic", c.config.Topic).Msg("Subscribed to topic")
	return nil
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
