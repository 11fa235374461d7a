package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sunny-osprey/internal/alert"
	"sunny-osprey/internal/api"
	"sunny-osprey/internal/config"
	"sunny-osprey/internal/frigate"
	"sunny-osprey/internal/inference"
	"sunny-osprey/internal/logger"
	"sunny-osprey/internal/mqtt"
	"sunny-osprey/internal/pipeline"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	logger.Setup(cfg.Logging.Level)
	log.Info().Str("path", *configPath).Msg("Loaded config")

	// 2. Initialize Clients
	mqttClient := mqtt.NewClient(cfg.MQTT)
	frigateClient := frigate.NewClient(cfg.Frigate)

	analyzer, err := inference.NewClient(cfg.Inference)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing inference client")
	}

	router := alert.NewManager(cfg.Alerts, alert.NewBackend(cfg.Alerts))

	// 3. Initialize Pipeline
	pipe := pipeline.New(cfg, frigateClient, analyzer, router)

	// 4. Ops server (health + metrics), optional
	if cfg.API.Listen != "" {
		go func() {
			log.Info().Str("addr", cfg.API.Listen).Msg("Ops server listening")
			if err := http.ListenAndServe(cfg.API.Listen, api.NewRouter(mqttClient.IsConnected)); err != nil {
				log.Error().Err(err).Msg("Ops server stopped")
			}
		}()
	}

	// 5. Connect to MQTT
	if err := mqttClient.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MQTT")
	}
	defer mqttClient.Disconnect()

	// 6. Subscribe to Frigate Events
	// The subscriber feeds the pipeline's ingest channel directly
	if err := mqttClient.Subscribe(pipe.IngestChannel()); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe to topic")
	}

	// 7. Start Pipeline
	go pipe.Run()

	// 8. Wait for Signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
}
