package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/loader"
	"pairs-backtest-lab/internal/query"
)

// overrideParams maps query parameter names to trading override fields.
var overrideParams = []struct {
	name string
	set  func(*config.TradingOverrides, *float64)
}{
	{"initial_capital", func(o *config.TradingOverrides, v *float64) { o.InitialCapital = v }},
	{"position_size_percent", func(o *config.TradingOverrides, v *float64) { o.PositionSizePercent = v }},
	{"fixed_commission", func(o *config.TradingOverrides, v *float64) { o.FixedCommission = v }},
	{"variable_fee", func(o *config.TradingOverrides, v *float64) { o.VariableFee = v }},
	{"bid_ask_spread", func(o *config.TradingOverrides, v *float64) { o.BidAskSpread = v }},
	{"risk_free_rate", func(o *config.TradingOverrides, v *float64) { o.RiskFreeRate = v }},
}

// overridesFromQuery reads trading overrides from query parameters.
func overridesFromQuery(c *gin.Context) (config.TradingOverrides, error) {
	var o config.TradingOverrides
	for _, p := range overrideParams {
		raw, ok := c.GetQuery(p.name)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return o, fmt.Errorf("%w: %s must be a number", errBadRequest, p.name)
		}
		p.set(&o, &v)
	}
	return o, nil
}

// windowFromQuery reads the optional window parameter.
func windowFromQuery(c *gin.Context) (*int, error) {
	raw, ok := c.GetQuery("window")
	if !ok || raw == "" {
		return nil, nil
	}
	return parseWindow(raw)
}

func parseWindow(raw string) (*int, error) {
	w, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: window must be an integer", errBadRequest)
	}
	return &w, nil
}

// filterRequest is the filter as sent in query parameters or JSON bodies.
type filterRequest struct {
	Symbol string   `json:"symbol" form:"symbol"`
	Pair   []string `json:"pair" form:"pair"` // two symbols, or one "A,B" entry in query form
	Window *int     `json:"window" form:"window"`
	From   string   `json:"from" form:"from"`
	To     string   `json:"to" form:"to"`
}

func (r filterRequest) toFilter() (query.Filter, error) {
	f := query.Filter{Symbol: r.Symbol, Window: r.Window}

	pair := r.Pair
	if len(pair) == 1 {
		pair = strings.Split(pair[0], ",")
	}
	switch len(pair) {
	case 0:
	case 2:
		f.Pair = [2]string{strings.TrimSpace(pair[0]), strings.TrimSpace(pair[1])}
	default:
		return f, fmt.Errorf("%w: pair must name two symbols", errBadRequest)
	}

	var err error
	if f.From, err = parseDate("from", r.From); err != nil {
		return f, err
	}
	if f.To, err = parseDate("to", r.To); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := loader.ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return t, nil
}

// filterFromQuery reads a filter from query parameters.
func filterFromQuery(c *gin.Context) (query.Filter, error) {
	var req filterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return query.Filter{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req.toFilter()
}

// variantRequest is one named configuration in a compare request.
type variantRequest struct {
	Name      string                  `json:"name" binding:"required"`
	Overrides config.TradingOverrides `json:"overrides"`
}

type compareRequest struct {
	Filter   filterRequest    `json:"filter"`
	Variants []variantRequest `json:"variants" binding:"required,min=1,dive"`
	Save     bool             `json:"save"`
}

type runRequest struct {
	Name      string                  `json:"name"`
	Filter    filterRequest           `json:"filter"`
	Overrides config.TradingOverrides `json:"overrides"`
}

// limitFromQuery reads the optional limit parameter, 0 meaning no limit.
func limitFromQuery(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest)
	}
	return n, nil
}
