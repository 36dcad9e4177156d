package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/query"
	"pairs-backtest-lab/internal/storage"
)

// errBadRequest marks malformed request parameters.
var errBadRequest = errors.New("bad request")

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrMarketNotFound),
		errors.Is(err, query.ErrSymbolNotFound),
		errors.Is(err, query.ErrNoTrades),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, query.ErrPersistenceDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"detail": ...}. Internal errors are logged and not echoed.
func (s *Server) fail(c *gin.Context, err error) {
	code := statusFor(err)
	detail := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.WithField("request_id", c.GetString(ctxRequestID)).WithError(err).Error("Request error")
		detail = "internal error"
	}
	c.AbortWithStatusJSON(code, gin.H{"detail": detail})
}
