package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/metrics"
)

// ErrMissingCreds fails news stream start when credentials are absent.
var ErrMissingCreds = errors.New("news stream credentials missing")

const newsReadTimeout = 30 * time.Second

// NewsStream consumes a streaming news websocket. It authenticates, subscribes
// to the firehose, and emits one NewsEvent per frame item. On disconnect the
// adapter stops; restarting it is an external operational concern, the stream
// never reconnects on its own.
type NewsStream struct {
	url     string
	key     string
	secret  string
	out     chan<- event.Event
	tracker *StatusTracker
	log     zerolog.Logger
}

// NewNewsStream builds the adapter; out receives normalized events.
func NewNewsStream(url, key, secret string, out chan<- event.Event, log zerolog.Logger) *NewsStream {
	return &NewsStream{
		url:     url,
		key:     key,
		secret:  secret,
		out:     out,
		tracker: NewStatusTracker(),
		log:     log.With().Str("adapter", "alpaca_news").Logger(),
	}
}

// Name identifies the adapter in status reports.
func (n *NewsStream) Name() string { return "alpaca_news" }

// Status reports the adapter's lifecycle state.
func (n *NewsStream) Status() Status { return n.tracker.Status() }

// Run dials, authenticates, subscribes, and consumes until disconnect or
// context end.
func (n *NewsStream) Run(ctx context.Context) error {
	defer n.tracker.Set(StatusStopped)
	if n.key == "" || n.secret == "" {
		return ErrMissingCreds
	}
	n.tracker.Set(StatusStarting)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, n.url, nil)
	if err != nil {
		return fmt.Errorf("dial news stream: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"action": "auth", "key": n.key, "secret": n.secret}); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}
	if err := conn.WriteJSON(map[string]any{"action": "subscribe", "news": []string{"*"}}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	n.tracker.Set(StatusRunning)
	n.log.Info().Str("url", n.url).Msg("news stream connected")

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(newsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(newsReadTimeout))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n.log.Warn().Err(err).Msg("news stream disconnected")
			return err
		}
		n.handleFrame(ctx, message)
	}
}

// handleFrame normalizes every object in the frame and emits the usable ones.
// Control messages and malformed items fail normalization and are skipped.
func (n *NewsStream) handleFrame(ctx context.Context, message []byte) {
	now := time.Now().UTC()
	for _, item := range decodeFrame(message) {
		ev, err := event.NormalizeNews(item, "alpaca", now)
		if err != nil {
			n.log.Debug().Err(err).Msg("skipping frame item")
			continue
		}
		select {
		case n.out <- ev:
			metrics.EventsTotal.WithLabelValues("alpaca", string(event.KindNews)).Inc()
		case <-ctx.Done():
			return
		}
	}
}
