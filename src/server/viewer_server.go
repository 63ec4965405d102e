package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shop-sim-viewer/src/analysis"
	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
	"shop-sim-viewer/src/render"
	"shop-sim-viewer/src/session"

	"github.com/gin-gonic/gin"
	channerics "github.com/niceyeti/channerics/channels"
)

const shutdownTimeout = 5 * time.Second

var _ interfaces.IDataExchanger = (*ViewerServer)(nil)

// -----------------------------------------------------------------------------
// ViewerServer
// -----------------------------------------------------------------------------

type ViewerServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Sessions *session.Manager
	Catalog  interfaces.IBranchCatalog
	Renderer *render.MapRenderer
	Analysis *analysis.AnalysisFacade
	Errors   *helpers.ErrorHandler

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients, keyed by the session they watch. Owned by the hub loop.
	clients     map[string]map[*Client]struct{}
	frames      chan models.MSessionFrame // Buffered queue fed by OnFrame
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	connections atomic.Int64

	done     chan struct{}
	stopOnce sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewViewerServer wires routes and starts the frame pipeline. Frames published before Start are
// already delivered to websocket clients.
func NewViewerServer(
	cfg *models.MConfig,
	sessions *session.Manager,
	catalog interfaces.IBranchCatalog,
	renderer *render.MapRenderer,
	log *logger.Logger,
) *ViewerServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ViewerServer{
		Config:     cfg,
		Logger:     log,
		Sessions:   sessions,
		Catalog:    catalog,
		Renderer:   renderer,
		Analysis:   analysis.NewAnalysisFacade(log.Named("Analysis")),
		Errors:     helpers.NewErrorHandler(log.Named("ErrorHandler")),
		engine:     gin.New(),
		clients:    make(map[string]map[*Client]struct{}),
		frames:     make(chan models.MSessionFrame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		done:       make(chan struct{}),
	}
	s.engine.Use(gin.Recovery())
	if cfg.LogLevel == "DEBUG" {
		s.engine.Use(gin.Logger())
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.engine,
	}

	var frames <-chan models.MSessionFrame = s.frames
	batches := channerics.Convert(s.done, frames, s.frameConverter())
	go s.handleWebsockets(batches)
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ViewerServer) setupRoutes() {
	// Pages
	s.engine.GET("/", s.getIndex)
	s.engine.GET("/simulation/:branchId", s.getSimulationPage)

	// Sessions
	api := s.engine.Group("/api")
	api.POST("/sessions", s.createSession)
	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/:id", s.getSession)
	api.DELETE("/sessions/:id", s.deleteSession)
	api.GET("/sessions/:id/report", s.getSessionReport)
	api.POST("/sessions/:id/budget", s.submitBudget)
	api.POST("/sessions/:id/list", s.selectList)
	api.POST("/sessions/:id/resume", s.resume)

	// Branches
	api.GET("/branches", s.listBranches)
	api.GET("/branches/:id/map", s.getBranchMap)
	api.POST("/branches/:id/map", s.saveBranchMap)
	api.GET("/branches/:id/inventory", s.getInventory)
	api.GET("/branches/:id/invoices", s.getInvoices)
	api.GET("/branches/:id/report", s.getBranchReport)

	api.GET("/config", s.getConfig)
	api.GET("/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// Handler exposes the routes, mostly for tests.
func (s *ViewerServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ViewerServer) Start() error {
	s.Logger.Info("Starting viewer on http://%s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop closes the hub and every websocket, then shuts the HTTP server down.
func (s *ViewerServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
		s.Logger.Info("Viewer stopped")
	})
	return err
}
