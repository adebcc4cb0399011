package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/SakxamShrestha/sentiment-driven-options-trading-system/internal/store"
)

// Records serves the persisted scoring history.
type Records interface {
	RecentSentiment(ctx context.Context, limit int) ([]store.SentimentRecord, error)
	RecentSignals(ctx context.Context, limit int) ([]store.SignalRecord, error)
	AggregateStats(ctx context.Context) (*store.Stats, error)
}

// Live serves the low-latency snapshot state and the circuit breaker.
type Live interface {
	LatestSentiment(ctx context.Context) (json.RawMessage, error)
	LatestBuzz(ctx context.Context) (json.RawMessage, error)
	Tripped(ctx context.Context) (bool, error)
	Trip(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Overview is the /api/status payload.
type Overview struct {
	Adapters      map[string]string `json:"adapters"`
	QueueDepth    int               `json:"queue_depth"`
	QueueCapacity int               `json:"queue_capacity"`
	Workers       int               `json:"workers"`
}

// Server exposes the dashboard and operations API. Either backend may be nil
// when the deployment runs without it; the affected routes answer 503 and
// everything else keeps working.
type Server struct {
	records  Records
	live     Live
	overview func() Overview
	log      zerolog.Logger
}

func NewServer(records Records, live Live, overview func() Overview, log zerolog.Logger) *Server {
	return &Server{records: records, live: live, overview: overview, log: log}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	api := r.Group("/api")
	{
		api.GET("/status", s.status)
		api.GET("/sentiment", s.recentSentiment)
		api.GET("/signals", s.recentSignals)
		api.GET("/stats", s.stats)
		api.GET("/live/sentiment", s.liveSentiment)
		api.GET("/live/buzz", s.liveBuzz)
		api.GET("/live/circuit_breaker", s.breakerStatus)
		api.POST("/circuit_breaker", s.setBreaker)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	if s.overview == nil {
		c.JSON(http.StatusOK, Overview{Adapters: map[string]string{}})
		return
	}
	c.JSON(http.StatusOK, s.overview())
}

func (s *Server) recentSentiment(c *gin.Context) {
	if s.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	records, err := s.records.RecentSentiment(c.Request.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("sentiment history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) recentSignals(c *gin.Context) {
	if s.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	records, err := s.records.RecentSignals(c.Request.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("signal history query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) stats(c *gin.Context) {
	if s.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
		return
	}
	stats, err := s.records.AggregateStats(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) liveSentiment(c *gin.Context) {
	if s.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live state unavailable"})
		return
	}
	s.liveSnapshot(c, s.live.LatestSentiment)
}

func (s *Server) liveBuzz(c *gin.Context) {
	if s.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live state unavailable"})
		return
	}
	s.liveSnapshot(c, s.live.LatestBuzz)
}

// liveSnapshot relays the stored JSON as-is; no snapshot yet means an empty
// object, not an error.
func (s *Server) liveSnapshot(c *gin.Context, fetch func(context.Context) (json.RawMessage, error)) {
	raw, err := fetch(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("live snapshot read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if raw == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) breakerStatus(c *gin.Context) {
	if s.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live state unavailable"})
		return
	}
	tripped, err := s.live.Tripped(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("circuit breaker read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tripped": tripped})
}

func (s *Server) setBreaker(c *gin.Context) {
	if s.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live state unavailable"})
		return
	}
	var req struct {
		Tripped *bool `json:"tripped" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"tripped\": true|false}"})
		return
	}

	ctx := c.Request.Context()
	var err error
	if *req.Tripped {
		err = s.live.Trip(ctx)
	} else {
		err = s.live.Clear(ctx)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("circuit breaker update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.log.Info().Bool("tripped", *req.Tripped).Msg("circuit breaker updated")
	c.JSON(http.StatusOK, gin.H{"tripped": *req.Tripped})
}
