// Package api exposes market views and backtest runs over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"pairs-backtest-lab/internal/observability"
	"pairs-backtest-lab/internal/query"
)

// Options configures a Server.
type Options struct {
	RateLimit float64 // requests per second across all clients, 0 disables
	RateBurst int
	Logger    logrus.FieldLogger
}

// Server serves the HTTP API.
type Server struct {
	svc      *query.Service
	logger   logrus.FieldLogger
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	router   *gin.Engine
}

// NewServer creates a Server with all routes registered.
func NewServer(svc *query.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	s := &Server{
		svc:    svc,
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.rateLimit())

	r.GET("/metrics", gin.WrapH(observability.Handler()))

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/config", s.handleConfig)

	api.GET("/markets", s.handleMarkets)
	m := api.Group("/markets/:market")
	{
		m.GET("/symbols", s.handleSymbols)
		m.GET("/timeseries/:symbol", s.handleSymbolTimeseries)
		m.GET("/index", s.handleIndex)

		m.GET("/trades", s.handleTrades)
		m.GET("/trades/performance", s.handlePerformance)
		m.GET("/trades/performance/timeseries", s.handlePerformanceTimeseries)
		m.GET("/trades/performance/stream", s.handleStream)
		m.GET("/trades/:symbol", s.handleSymbolTrades)
		m.GET("/trades/:symbol/performance", s.handleSymbolPerformance)

		m.GET("/pairs/windows", s.handleWindows)
		m.GET("/pairs/window/:window", s.handlePairsByWindow)
		m.GET("/pairs/:symbol1/:symbol2/performance", s.handlePairPerformance)

		m.POST("/compare", s.handleCompare)
		m.POST("/runs", s.handleCreateRun)
	}

	api.GET("/runs", s.handleRuns)
	api.GET("/runs/:id", s.handleRun)
	api.GET("/runs/:id/timeseries", s.handleRunTimeseries)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
