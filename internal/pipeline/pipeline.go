package pipeline

import (
	"encoding/json"
	"os"
	"slices"
	"time"

	"sunny-osprey/internal/classify"
	"sunny-osprey/internal/metrics"
	"sunny-osprey/internal/models"

	"github.com/rs/zerolog/log"
)

// Fetcher retrieves the video clip for an event.
type Fetcher interface {
	FetchClip(evt *models.FrigateEvent) (*models.ClipReference, error)
}

// Analyzer is the inference collaborator. A nil result or an error means no
// usable result; a result carrying Error is a collaborator failure.
type Analyzer interface {
	Infer(clipPath string) (*models.InferenceResult, error)
}

// Router dispatches a classified result to the configured alert backend.
type Router interface {
	Route(eventID string, result *models.InferenceResult) bool
}

// Pipeline drives one event through filter, clip fetch, inference,
// classification, routing and cleanup.
type Pipeline struct {
	cfg        *models.Config
	fetcher    Fetcher
	analyzer   Analyzer
	router     Router
	ingestChan chan []byte
}

func New(cfg *models.Config, fetcher Fetcher, analyzer Analyzer, router Router) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		fetcher:    fetcher,
		analyzer:   analyzer,
		router:     router,
		ingestChan: make(chan []byte, 100),
	}
}

// IngestChannel is handed to the MQTT subscriber.
func (p *Pipeline) IngestChannel() chan<- []byte {
	return p.ingestChan
}

// Run drains the ingest channel on a single goroutine, so events are
// processed strictly in delivery order. A slow event delays the next one;
// camera event rates make that acceptable.
func (p *Pipeline) Run() {
	log.Info().Msg("Pipeline started")
	for payload := range p.ingestChan {
		p.HandleMessage(payload)
	}
}

// HandleMessage processes one raw transport payload. Faults are contained
// here: a malformed payload or a panic never takes down the subscription
// loop.
func (p *Pipeline) HandleMessage(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic while processing event")
		}
	}()

	var evt models.FrigateEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		log.Error().Err(err).Msg("Failed to parse MQTT message")
		metrics.EventsSkipped.WithLabelValues("malformed").Inc()
		return
	}

	metrics.EventsReceived.WithLabelValues(evt.Type).Inc()

	// Only end events carry a finished clip
	if evt.Type != "end" {
		log.Debug().Str("type", evt.Type).Msg("Skipping non-end event")
		return
	}

	if !p.shouldProcess(&evt) {
		metrics.EventsSkipped.WithLabelValues("filtered").Inc()
		return
	}

	p.processEndEvent(&evt)
}

// shouldProcess applies the camera allow-list. An empty list permits every
// camera, and an event without a camera name is not rejected for that alone.
func (p *Pipeline) shouldProcess(evt *models.FrigateEvent) bool {
	camera := evt.Camera()
	if camera == "" {
		return true
	}

	enabled := p.cfg.Cameras.EnabledCameras
	if len(enabled) > 0 && !slices.Contains(enabled, camera) {
		log.Info().Str("camera", camera).Msg("Skipping event from camera not in enabled list")
		return false
	}

	return true
}

func (p *Pipeline) processEndEvent(evt *models.FrigateEvent) {
	eventID := evt.ID()
	if eventID == "" {
		log.Error().Msg("No event ID found in event data")
		metrics.EventsSkipped.WithLabelValues("missing_id").Inc()
		return
	}

	log.Info().Str("event_id", eventID).Msg("Processing end event")

	clip, err := p.fetcher.FetchClip(evt)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Skipping event, clip not retrieved")
		metrics.EventsSkipped.WithLabelValues("clip_unavailable").Inc()
		return
	}
	defer p.cleanup(clip)

	start := time.Now()
	result, err := p.analyzer.Infer(clip.Path)
	metrics.InferenceLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Inference failed")
		metrics.EventsSkipped.WithLabelValues("inference_failed").Inc()
		return
	}
	if result == nil {
		log.Error().Str("event_id", eventID).Msg("Inference produced no usable result")
		metrics.EventsSkipped.WithLabelValues("inference_failed").Inc()
		return
	}
	if result.Error != "" {
		log.Error().Str("event_id", eventID).Str("error", result.Error).Msg("Inference returned an error result")
		metrics.EventsSkipped.WithLabelValues("inference_error").Inc()
		return
	}

	result.ClipPath = clip.Path

	if classify.IsSuspicious(result) {
		log.Info().Str("event_id", eventID).Msg("Suspicious activity detected, processing alert")
	} else {
		log.Info().Str("event_id", eventID).Msg("Normal activity detected, processing notification")
	}

	if p.router.Route(eventID, result) {
		log.Info().Str("event_id", eventID).Msg("Alert/notification processed")
	} else {
		log.Warn().Str("event_id", eventID).Msg("Failed to process alert/notification")
	}
	metrics.EventsProcessed.Inc()
}

// cleanup releases the clip on every exit path after inference has finished.
// Pre-seeded fixtures are kept.
func (p *Pipeline) cleanup(clip *models.ClipReference) {
	if !clip.Ephemeral {
		log.Debug().Str("path", clip.Path).Msg("Keeping local clip")
		return
	}
	if err := os.Remove(clip.Path); err != nil {
		log.Warn().Err(err).Str("path", clip.Path).Msg("Failed to clean up clip")
		return
	}
	log.Debug().Str("path", clip.Path).Msg("Cleaned up temporary clip")
}
