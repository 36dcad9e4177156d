package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/query"
)

type barResponse struct {
	Symbol string  `json:"symbol"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type runResponse struct {
	RunID     string          `json:"run_id"`
	Name      string          `json:"name"`
	Market    string          `json:"market"`
	Filter    string          `json:"filter"`
	Trades    int             `json:"trades"`
	Skipped   int             `json:"skipped"`
	Rejected  int             `json:"rejected"`
	CreatedAt time.Time       `json:"created_at"`
	Config    json.RawMessage `json:"config,omitempty"`
	Report    json.RawMessage `json:"report,omitempty"`
}

type variantResponse struct {
	Name   string                    `json:"name"`
	RunID  string                    `json:"run_id,omitempty"`
	Config config.Trading            `json:"config"`
	Report *domain.PerformanceReport `json:"report"`
}

func newRunResponse(r *domain.Run, full bool) runResponse {
	resp := runResponse{
		RunID:     r.RunID,
		Name:      r.Name,
		Market:    r.Market,
		Filter:    r.Filter,
		Trades:    r.Trades,
		Skipped:   r.Skipped,
		Rejected:  r.Rejected,
		CreatedAt: r.CreatedAt,
	}
	if full {
		resp.Config = r.Config
		resp.Report = r.Report
	}
	return resp
}

// timeseriesByDate keys a day sequence by ISO date.
func timeseriesByDate(days []domain.DailySnapshot) map[string]domain.DailySnapshot {
	out := make(map[string]domain.DailySnapshot, len(days))
	for _, d := range days {
		out[d.DateKey()] = d
	}
	return out
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"markets":   len(s.svc.Markets()),
	})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Defaults())
}

func (s *Server) handleMarkets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"markets": s.svc.Markets()})
}

func (s *Server) handleSymbols(c *gin.Context) {
	symbols, err := s.svc.Symbols(c.Request.Context(), c.Param("market"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}

func (s *Server) handleSymbolTimeseries(c *gin.Context) {
	bars, err := s.svc.SymbolTimeseries(c.Request.Context(), c.Param("market"), c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make(map[string]barResponse, len(bars))
	for _, b := range bars {
		out[b.Date.Format(domain.DateLayout)] = barResponse{
			Symbol: b.Symbol, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleIndex(c *gin.Context) {
	points, err := s.svc.MarketIndex(c.Request.Context(), c.Param("market"))
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make(map[string]domain.IndexPoint, len(points))
	for _, p := range points {
		out[p.Date.Format(domain.DateLayout)] = p
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleTrades(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	trades, err := s.svc.Trades(c.Request.Context(), c.Param("market"), f)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := query.Describe(trades)
	c.JSON(http.StatusOK, gin.H{"trades": out, "count": len(out)})
}

// performance runs the market-level simulation from query parameters.
func (s *Server) performance(c *gin.Context) (*query.Outcome, bool) {
	f, err := filterFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	o, err := overridesFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	out, err := s.svc.Performance(c.Request.Context(), c.Param("market"), f, o)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return out, true
}

func (s *Server) handlePerformance(c *gin.Context) {
	out, ok := s.performance(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out.Report)
}

func (s *Server) handlePerformanceTimeseries(c *gin.Context) {
	out, ok := s.performance(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeseries": timeseriesByDate(out.Result.Timeseries)})
}

func (s *Server) handleSymbolTrades(c *gin.Context) {
	trades, err := s.svc.SymbolTrades(c.Request.Context(), c.Param("market"), c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (s *Server) handleSymbolPerformance(c *gin.Context) {
	window, err := windowFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	o, err := overridesFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.SymbolPerformance(c.Request.Context(), c.Param("market"), c.Param("symbol"), window, o)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Report)
}

func (s *Server) handleWindows(c *gin.Context) {
	windows, err := s.svc.Windows(c.Request.Context(), c.Param("market"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

func (s *Server) handlePairsByWindow(c *gin.Context) {
	window, err := parseWindow(c.Param("window"))
	if err != nil {
		s.fail(c, err)
		return
	}
	pairs, err := s.svc.PairsByWindow(c.Request.Context(), c.Param("market"), window)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pairs)
}

func (s *Server) handlePairPerformance(c *gin.Context) {
	window, err := windowFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	o, err := overridesFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.PairPerformance(c.Request.Context(), c.Param("market"),
		c.Param("symbol1"), c.Param("symbol2"), window, o)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out.Report)
}

func (s *Server) handleCompare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	f, err := req.Filter.toFilter()
	if err != nil {
		s.fail(c, err)
		return
	}

	variants := make([]query.Variant, len(req.Variants))
	for i, v := range req.Variants {
		variants[i] = query.Variant{Name: v.Name, Overrides: v.Overrides}
	}

	ctx := c.Request.Context()
	results, err := s.svc.Compare(ctx, c.Param("market"), f, variants)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]variantResponse, len(results))
	for i, r := range results {
		out[i] = variantResponse{Name: r.Name, Config: r.Config, Report: r.Report}
		if !req.Save {
			continue
		}
		outcome := r.Outcome
		run, err := s.svc.SaveRun(ctx, r.Name, c.Param("market"), f, &outcome)
		if err != nil {
			s.fail(c, err)
			return
		}
		out[i].RunID = run.RunID
	}
	c.JSON(http.StatusOK, gin.H{"variants": out})
}

func (s *Server) handleCreateRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	f, err := req.Filter.toFilter()
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	out, err := s.svc.Performance(ctx, c.Param("market"), f, req.Overrides)
	if err != nil {
		s.fail(c, err)
		return
	}
	run, err := s.svc.SaveRun(ctx, req.Name, c.Param("market"), f, out)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRunResponse(run, true))
}

func (s *Server) handleRuns(c *gin.Context) {
	limit, err := limitFromQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	runs, err := s.svc.Runs(c.Request.Context(), c.Query("market"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]runResponse, len(runs))
	for i, r := range runs {
		out[i] = newRunResponse(r, false)
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) handleRun(c *gin.Context) {
	run, err := s.svc.Run(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run, true))
}

func (s *Server) handleRunTimeseries(c *gin.Context) {
	days, err := s.svc.RunTimeseries(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeseries": timeseriesByDate(days)})
}
