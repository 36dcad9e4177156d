package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pairs-backtest-lab/internal/observability"
)

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = "X-Request-ID"

const ctxRequestID = "request_id"

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		observability.RecordHTTPRequest(c.Request.Method, route, status, elapsed)

		entry := s.logger.WithFields(logrus.Fields{
			"request_id": c.GetString(ctxRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"elapsed":    elapsed,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
			return
		}
		entry.Debug("Request served")
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
