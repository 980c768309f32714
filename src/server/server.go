package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
	"stock-watchlist/src/watchlist"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

// APIServer is the shell around the watchlist core: a REST surface for user
// intents and a websocket hub pushing snapshots and notifications.
type APIServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Core   *watchlist.Core
	engine *gin.Engine
	http   *http.Server

	// WebSocket clients, owned by the hub loop
	clients    map[*Client]struct{}
	broadcast  chan *models.MServerMessage
	register   chan *Client
	unregister chan *Client
	resync     chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Last snapshot, replayed to new clients
	latest     *models.MServerMessage
	stateMutex sync.RWMutex
	connected  int
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, core *watchlist.Core, logger *logger.Logger) *APIServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	snap := core.Snapshot()
	s := &APIServer{
		Config:     cfg,
		Logger:     logger,
		Core:       core,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *models.MServerMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		resync:     make(chan *Client),
		done:       make(chan struct{}),
		latest:     &models.MServerMessage{Type: models.MessageSnapshot, Snapshot: &snap},
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	// CORS for a local UI
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	go s.runHub()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)

	api.GET("/watchlist", s.getWatchlist)
	api.POST("/watchlist", s.addEntry)
	api.DELETE("/watchlist/:symbol", s.removeEntry)
	api.POST("/watchlist/refresh", s.refreshAll)

	api.GET("/selected", s.getSelected)
	api.PUT("/selected", s.selectEntry)
	api.DELETE("/selected", s.clearSelection)

	api.GET("/stocks/search", s.search)
	api.GET("/stocks/:id/details", s.details)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, e.g. for httptest.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Shutdown stops accepting requests and closes every websocket client.
func (s *APIServer) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.stopOnce.Do(func() { close(s.done) })
	return err
}

// -----------------------------------------------------------------------------

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
