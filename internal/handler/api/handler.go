package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	models "BtcEdge/internal/domain/models"
	domrepo "BtcEdge/internal/domain/repository"
	domsvc "BtcEdge/internal/domain/service"
	icache "BtcEdge/internal/service/cache"
	"BtcEdge/internal/service/metrics"
	"BtcEdge/internal/service/ratelimit"
	"BtcEdge/internal/usecase"
	xhttp "BtcEdge/pkg/http"
	xlogger "BtcEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Handler implements Echo-based HTTP handlers following Clean Architecture.
type Handler struct {
	logger   *xlogger.Logger
	signals  *usecase.SignalUseCase
	candles  *usecase.CandlesUseCase
	runs     *usecase.BacktestRunsUseCase
	paper    *usecase.PaperTradingUseCase
	trades   domrepo.PaperTradeStore
	model    domsvc.Predictor
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	cacheTTL time.Duration
}

func NewHandler(
	logger *xlogger.Logger,
	signals *usecase.SignalUseCase,
	candles *usecase.CandlesUseCase,
	runs *usecase.BacktestRunsUseCase,
	paper *usecase.PaperTradingUseCase,
	trades domrepo.PaperTradeStore,
	model domsvc.Predictor,
) *Handler {
	metrics.Register()
	return &Handler{
		logger:   logger,
		signals:  signals,
		candles:  candles,
		runs:     runs,
		paper:    paper,
		trades:   trades,
		model:    model,
		rl:       ratelimit.New(),
		cacheTTL: 10 * time.Second,
	}
}

// SetCache injects a byte cache used for short-lived signal responses.
func (h *Handler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.GET("/candles", h.Candles)
	g.POST("/backtest", h.RunBacktest)
	g.GET("/backtest/:id", h.BacktestStatus)
	g.GET("/paper/stats", h.PaperStats)
	g.GET("/paper/trades", h.PaperTrades)
}

// Signal returns the live decision for the latest closed candle. Responses
// are cached for one candle-safe window since the inputs only change every
// five minutes.
func (h *Handler) Signal(c echo.Context) error {
	start := time.Now()
	endpoint := "signal"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":signal", 5, 2) {
		h.logger.Warn("api.signal rate_limited", xlogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	cacheKey := "signal:" + req.Symbol
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("api.signal cache_get_error", xlogger.Error(err))
		} else if ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	res, err := h.signals.GetSignal(c.Request().Context(), usecase.GetSignalParams{Symbol: req.Symbol, N: req.N})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("api.signal usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, h.cacheTTL); err != nil {
				h.logger.Warn("api.signal cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Candles(c echo.Context) error {
	start := time.Now()
	endpoint := "candles"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("api.candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// RunBacktest enqueues an asynchronous backtest and returns its run record.
func (h *Handler) RunBacktest(c echo.Context) error {
	start := time.Now()
	endpoint := "backtest"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":backtest", 2, 0.2) {
		h.logger.Warn("api.backtest rate_limited", xlogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	run, err := h.runs.Enqueue(c.Request().Context(), usecase.RunBacktestParams{
		Symbol:         req.Symbol,
		Limit:          req.Limit,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("api.backtest enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, run)
}

func (h *Handler) BacktestStatus(c echo.Context) error {
	req := &models.BacktestStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	run, ok, err := h.runs.Get(c.Request().Context(), req.ID)
	if err != nil {
		metrics.APIErrors.WithLabelValues("backtest_status").Inc()
		h.logger.Error("api.backtest status error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("backtest run %s not found", req.ID))
	}
	return xhttp.SuccessResponse(c, run)
}

// Health reports service liveness and the model service's reachability.
func (h *Handler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok", "model": "ok"}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.model.Health(ctx); err != nil {
		status["model"] = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) PaperStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.paper.Stats())
}

func (h *Handler) PaperTrades(c echo.Context) error {
	start := time.Now()
	endpoint := "paper_trades"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.PaperTradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	trades, err := h.trades.GetPaperTrades(c.Request().Context(), from, to, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("api.paper_trades store error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}

// parseRange parses optional RFC3339 bounds, defaulting to the last 24 hours.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if fromStr != "" {
		t, ok := xhttp.ParseTime(fromStr)
		if !ok {
			return time.Time{}, time.Time{}, xhttp.BadRequestErrorf("invalid from: %q", fromStr)
		}
		from = t
	}
	if toStr != "" {
		t, ok := xhttp.ParseTime(toStr)
		if !ok {
			return time.Time{}, time.Time{}, xhttp.BadRequestErrorf("invalid to: %q", toStr)
		}
		to = t
	}
	return from, to, nil
}
