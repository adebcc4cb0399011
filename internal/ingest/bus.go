package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/metrics"
)

// Envelope is the JSON message shape out-of-process producers put on the bus.
type Envelope struct {
	Kind    string         `json:"kind"`
	Source  string         `json:"source"`
	Payload map[string]any `json:"payload"`
}

// BusConsumer feeds envelopes from kafka into the pipeline channel. External
// scrapers (a twitter collector, for one) inject events this way without
// linking against this process.
type BusConsumer struct {
	reader  *kafka.Reader
	out     chan<- event.Event
	tracker *StatusTracker
	log     zerolog.Logger
}

// NewBusConsumer builds the adapter around a consumer-group reader.
func NewBusConsumer(brokers []string, group, topic string, out chan<- event.Event, log zerolog.Logger) *BusConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: group,
		Topic:   topic,
	})
	return &BusConsumer{
		reader:  reader,
		out:     out,
		tracker: NewStatusTracker(),
		log:     log.With().Str("adapter", "bus").Logger(),
	}
}

// Name identifies the adapter in status reports.
func (b *BusConsumer) Name() string { return "bus" }

// Status reports the adapter's lifecycle state.
func (b *BusConsumer) Status() Status { return b.tracker.Status() }

// Run consumes messages until the context ends. Read errors degrade the
// adapter and the loop keeps going; the reader reconnects internally.
func (b *BusConsumer) Run(ctx context.Context) error {
	defer b.tracker.Set(StatusStopped)
	defer b.reader.Close()
	b.tracker.Set(StatusStarting)

	for {
		msg, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.tracker.Set(StatusDegraded)
			b.log.Warn().Err(err).Msg("bus read failed")
			continue
		}
		b.tracker.Set(StatusRunning)
		b.handle(ctx, msg.Value)
	}
}

func (b *BusConsumer) handle(ctx context.Context, value []byte) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		b.log.Debug().Err(err).Msg("skipping malformed envelope")
		return
	}

	now := time.Now().UTC()
	var ev event.Event
	var err error
	switch env.Kind {
	case string(event.KindNews):
		ev, err = event.NormalizeNews(env.Payload, env.Source, now)
	case string(event.KindSocial):
		ev, err = event.NormalizeSocial(env.Payload, env.Source, now)
	default:
		b.log.Debug().Str("kind", env.Kind).Msg("skipping unknown envelope kind")
		return
	}
	if err != nil {
		b.log.Debug().Err(err).Msg("skipping malformed payload")
		return
	}

	select {
	case b.out <- ev:
		metrics.EventsTotal.WithLabelValues(env.Source, env.Kind).Inc()
	case <-ctx.Done():
	}
}
