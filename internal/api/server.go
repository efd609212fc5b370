package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"linky-monitor/internal/collector"
	"linky-monitor/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the latest snapshot, stored history and process metrics
// over HTTP. It is read-only; the MQTT payload stays the primary output.
type Server struct {
	router    *gin.Engine
	server    *http.Server
	collector *collector.Collector
	db        *storage.Database
	port      int
	broker    interface{ IsConnected() bool }
}

type ServerConfig struct {
	Port      int
	Collector *collector.Collector
	Database  *storage.Database
	Broker    interface{ IsConnected() bool }
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		collector: cfg.Collector,
		db:        cfg.Database,
		port:      cfg.Port,
		broker:    cfg.Broker,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	{
		api.GET("/snapshot", s.snapshotHandler)
		api.GET("/history", s.historyHandler)
		api.GET("/tempo", s.tempoHandler)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	brokerConnected := false
	if s.broker != nil {
		brokerConnected = s.broker.IsConnected()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"collecting":       s.collector.IsCollecting(),
		"broker_connected": brokerConnected,
		"timestamp":        time.Now(),
	})
}

func (s *Server) snapshotHandler(c *gin.Context) {
	snap, at := s.collector.GetLatest()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No snapshot available yet",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"built_at": at,
		"snapshot": snap,
	})
}

func (s *Server) historyHandler(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	limitStr := c.DefaultQuery("limit", "100")

	var limit int
	fmt.Sscanf(limitStr, "%d", &limit)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date format"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date format"})
			return
		}

		records, err := s.db.GetSnapshotsByRange(from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}

	records, err := s.db.GetSnapshotsWithLimit(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) tempoHandler(c *gin.Context) {
	snap, _ := s.collector.GetLatest()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No snapshot available yet",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"days":   snap.DailyweekDays,
		"colors": snap.DailyweekTempo,
	})
}
