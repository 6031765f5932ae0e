package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tturner/blecal/internal/batch"
	"github.com/tturner/blecal/internal/config"
	"github.com/tturner/blecal/internal/logging"
	"github.com/tturner/blecal/internal/metrics"
)

// Server exposes the codec over HTTP
type Server struct {
	cfg        config.ServerConfig
	logger     *logging.Logger
	sink       *metrics.Sink
	dispatcher *batch.Dispatcher
	router     *gin.Engine

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
	done     chan error
}

// NewServer builds the router. sink and recorder may be nil.
func NewServer(cfg config.ServerConfig, logger *logging.Logger, sink *metrics.Sink, recorder batch.FrameRecorder) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if sink == nil {
		sink = metrics.NewSink()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		sink:   sink,
		dispatcher: &batch.Dispatcher{
			Logger:   logger,
			Sink:     sink,
			Recorder: recorder,
			Source:   "http",
		},
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	s.registerRoutes(router)
	s.router = router
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/v1")
	{
		v1.GET("/commands", s.handleCommands)
		v1.GET("/metrics", s.handleMetrics)
		v1.POST("/dispatch", s.handleDispatch)
		v1.POST("/encode", s.handleEncode)
		v1.POST("/decode", s.handleDecode)
		v1.POST("/itemcontent", s.handleItemContent)
	}
}

// Handler returns the gin engine (used by tests)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http != nil {
		return fmt.Errorf("server already started")
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	s.listener = ln
	s.http = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.done = make(chan error, 1)

	if s.logger != nil {
		s.logger.Info("HTTP codec service listening on %s", ln.Addr())
	}
	go func(srv *http.Server, done chan<- error) {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}(s.http, s.done)
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.http, s.done
	s.http, s.listener = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("HTTP codec service stopping")
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-done
}

// Run serves until ctx is cancelled, then shuts down within the configured
// timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case err := <-done:
		// Serve returned on its own; put the result back for Stop.
		done <- err
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Sink returns the metrics sink shared by all handlers.
func (s *Server) Sink() *metrics.Sink {
	return s.sink
}
