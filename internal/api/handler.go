package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"TradeScout/internal/analyzer"
	"TradeScout/internal/collector"
	"TradeScout/internal/model"
	"TradeScout/internal/recorder"
)

// SeriesSource is the part of the collector the API needs.
type SeriesSource interface {
	Series(ctx context.Context, symbol, period, interval string) (*model.PriceSeries, error)
}

// Handler serves the API routes.
type Handler struct {
	Source   SeriesSource
	Analyzer *analyzer.Analyzer
	Book     *model.StrategyBook
	Recorder recorder.Recorder
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	g := e.Group("/api")
	g.GET("/strategies", h.strategies)
	g.GET("/analyze/:symbol", h.analyze)
	g.GET("/signals", h.signals)
}

func (h *Handler) health(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) strategies(c echo.Context) error {
	return respond(c, http.StatusOK, h.Book.Strategies())
}

type analyzeRequest struct {
	Symbol   string `param:"symbol" validate:"required,max=32"`
	Period   string `query:"period" default:"3mo" validate:"required"`
	Interval string `query:"interval" default:"1d" validate:"oneof=1m 2m 5m 15m 30m 60m 90m 1h 1d 5d 1wk 1mo 3mo"`
}

func (h *Handler) analyze(c echo.Context) error {
	var req analyzeRequest
	if errs := bindRequest(c, &req); errs != nil {
		return respond(c, http.StatusBadRequest, errs)
	}
	if err := collector.ValidSpan(req.Period, req.Interval); err != nil {
		return respond(c, http.StatusBadRequest, []ValidationError{{Code: "ERR_SPAN", Field: "period", Message: err.Error()}})
	}

	symbol := strings.ToUpper(req.Symbol)
	series, err := h.Source.Series(c.Request().Context(), symbol, req.Period, req.Interval)
	if err != nil {
		return respond(c, http.StatusBadGateway, err.Error())
	}
	res, err := h.Analyzer.Analyze(symbol, series)
	if errors.Is(err, model.ErrInsufficientData) {
		return respond(c, http.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return respond(c, http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, res)
}

type signalsRequest struct {
	Limit int `query:"limit" default:"20" validate:"gte=1,lte=500"`
}

func (h *Handler) signals(c echo.Context) error {
	var req signalsRequest
	if errs := bindRequest(c, &req); errs != nil {
		return respond(c, http.StatusBadRequest, errs)
	}
	rows, err := h.Recorder.RecentSignals(c.Request().Context(), req.Limit)
	if err != nil {
		return respond(c, http.StatusInternalServerError, err.Error())
	}
	if rows == nil {
		rows = []*model.AnalysisResult{}
	}
	return respond(c, http.StatusOK, rows)
}
