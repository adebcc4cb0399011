// Package app wires configuration into the running sentiment engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/api"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/config"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/event"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/ingest"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/metrics"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/pipeline"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/sentiment"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/signal"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/state"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/store"
	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/util"
)

// App centralizes dependency wiring for the engine process.
type App struct {
	cfg config.Config
	log zerolog.Logger

	queue    chan event.Event
	coord    *pipeline.Coordinator
	adapters []ingest.Adapter

	live    *state.Store
	records *store.Store
}

// New builds the engine from config. Redis and sqlite are optional at
// runtime: when either is unreachable the process starts without it and the
// pipeline keeps scoring in degraded mode.
func New(ctx context.Context, cfg config.Config, creds config.Credentials, log zerolog.Logger) *App {
	a := &App{
		cfg:   cfg,
		log:   log,
		queue: make(chan event.Event, cfg.Pipeline.QueueSize),
	}

	live, err := state.New(ctx, cfg.Redis.Addr, creds.RedisPassword, cfg.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, live state disabled")
	} else {
		a.live = live
	}

	records, err := store.Open(cfg.Store.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("sqlite unavailable, history disabled")
	} else {
		a.records = records
	}

	backends := make([]sentiment.Backend, 0, len(cfg.Sentiment.Backends))
	timeout := time.Duration(cfg.Sentiment.TimeoutMs) * time.Millisecond
	for _, b := range cfg.Sentiment.Backends {
		backends = append(backends, sentiment.NewHTTPBackend(b.Name, b.URL, timeout))
	}
	scorer := sentiment.NewEngine(util.Component(log, "sentiment"), backends...)
	signals := signal.NewEngine(cfg.Signal.BullishThreshold, cfg.Signal.BearishThreshold, cfg.Signal.MinConfidence)

	opts := []pipeline.Option{
		pipeline.WithRelevanceThreshold(cfg.Pipeline.RelevanceThreshold),
		pipeline.WithStepTimeout(time.Duration(cfg.Pipeline.StepTimeoutMs) * time.Millisecond),
	}
	if a.live != nil {
		opts = append(opts, pipeline.WithBreaker(a.live), pipeline.WithPublisher(a.live))
	}
	if a.records != nil {
		opts = append(opts, pipeline.WithRecorder(a.records))
	}
	a.coord = pipeline.New(scorer, signals, util.Component(log, "pipeline"), opts...)

	a.adapters = a.buildAdapters(creds)
	return a
}

func (a *App) buildAdapters(creds config.Credentials) []ingest.Adapter {
	var adapters []ingest.Adapter
	ing := a.cfg.Ingest

	if ing.News.Enabled {
		adapters = append(adapters, ingest.NewNewsStream(ing.News.URL, creds.NewsKey, creds.NewsSecret, a.queue, a.log))
	}
	if ing.Social.Enabled {
		interval := time.Duration(ing.Social.IntervalS) * time.Second
		adapters = append(adapters, ingest.NewSocialPoller(ing.Social.BaseURL, ing.Social.Subreddits, interval, a.queue, a.log))
	}
	if ing.Buzz.Enabled {
		if a.live == nil {
			a.log.Warn().Msg("buzz adapter needs redis, skipping")
		} else {
			interval := time.Duration(ing.Buzz.IntervalS) * time.Second
			adapters = append(adapters, ingest.NewBuzzPoller(ing.Buzz.URL, interval, a.live, a.log))
		}
	}
	if ing.Bus.Enabled {
		adapters = append(adapters, ingest.NewBusConsumer(ing.Bus.Brokers, ing.Bus.Group, ing.Bus.Topic, a.queue, a.log))
	}
	if ing.Stub.Enabled {
		interval := time.Duration(ing.Stub.IntervalMs) * time.Millisecond
		adapters = append(adapters, ingest.NewStubFeed(interval, a.queue, a.log))
	}
	return adapters
}

// Run starts every service and blocks until ctx cancellation or a fatal
// error from the API server or a pipeline worker. A single adapter dying is
// logged and leaves the rest of the engine running.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	metricsSrv := metrics.Serve(a.cfg.MetricsAddr)
	a.log.Info().Str("addr", a.cfg.MetricsAddr).Msg("metrics up")
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return gctx.Err()
	})

	apiSrv := &http.Server{Addr: a.cfg.APIAddr, Handler: a.apiRouter()}
	g.Go(func() error {
		a.log.Info().Str("addr", a.cfg.APIAddr).Msg("api up")
		return a.runServer(gctx, apiSrv, "api server")
	})

	var feeds sync.WaitGroup
	for _, ad := range a.adapters {
		ad := ad
		feeds.Add(1)
		g.Go(func() error {
			defer feeds.Done()
			if err := ad.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Warn().Err(err).Str("adapter", ad.Name()).Msg("adapter exited")
			}
			return nil
		})
	}
	go func() {
		feeds.Wait()
		close(a.queue)
	}()

	for i := 0; i < a.cfg.Pipeline.Workers; i++ {
		g.Go(func() error {
			if err := a.coord.Run(gctx, a.queue); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("pipeline worker: %w", err)
			}
			return nil
		})
	}

	a.log.Info().
		Int("adapters", len(a.adapters)).
		Int("workers", a.cfg.Pipeline.Workers).
		Msg("sentiment engine started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (a *App) apiRouter() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	// Interface values must stay nil when the backing service is down, a
	// typed nil would slip past the handlers' checks.
	var records api.Records
	if a.records != nil {
		records = a.records
	}
	var live api.Live
	if a.live != nil {
		live = a.live
	}
	return api.NewServer(records, live, a.overview, util.Component(a.log, "api")).Router()
}

func (a *App) overview() api.Overview {
	statuses := make(map[string]string, len(a.adapters))
	for _, ad := range a.adapters {
		statuses[ad.Name()] = string(ad.Status())
	}
	return api.Overview{
		Adapters:      statuses,
		QueueDepth:    len(a.queue),
		QueueCapacity: cap(a.queue),
		Workers:       a.cfg.Pipeline.Workers,
	}
}

func (a *App) runServer(ctx context.Context, srv *http.Server, name string) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s shutdown: %w", name, err)
		}
		if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

func (a *App) cleanup() {
	if a.records != nil {
		if err := a.records.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing sqlite")
		}
	}
	if a.live != nil {
		if err := a.live.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing redis")
		}
	}
}
