package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/observability"
)

// Stream message types
const (
	MessageSnapshot = "snapshot"
	MessageReport   = "report"
)

const (
	maxStreamInterval = 5 * time.Second
	writeWait         = 10 * time.Second
)

// StreamMessage is one frame of the performance stream.
type StreamMessage struct {
	Type     string                    `json:"type"`
	Date     string                    `json:"date,omitempty"`
	Snapshot *domain.DailySnapshot     `json:"snapshot,omitempty"`
	Report   *domain.PerformanceReport `json:"report,omitempty"`
}

// handleStream replays a simulation's day sequence over a WebSocket, one
// snapshot per frame, followed by the report. interval_ms paces the frames.
func (s *Server) handleStream(c *gin.Context) {
	interval, err := intervalFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	out, ok := s.performance(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.WithError(err).Warn("Stream upgrade failed")
		return
	}
	defer conn.Close()

	observability.StreamOpened()
	defer observability.StreamClosed()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go drain(conn, cancel)

	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	for i := range out.Result.Timeseries {
		day := out.Result.Timeseries[i]
		msg := StreamMessage{Type: MessageSnapshot, Date: day.DateKey(), Snapshot: &day}
		if err := writeJSON(conn, msg); err != nil {
			return
		}
		if ticker == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	if err := writeJSON(conn, StreamMessage{Type: MessageReport, Report: out.Report}); err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// drain reads until the client goes away so control frames are processed.
func drain(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func intervalFromQuery(c *gin.Context) (time.Duration, error) {
	raw := c.Query("interval_ms")
	if raw == "" {
		return 0, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("%w: interval_ms must be a non-negative integer", errBadRequest)
	}
	return min(time.Duration(ms)*time.Millisecond, maxStreamInterval), nil
}
