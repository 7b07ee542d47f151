package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foresight/internal/catalog"
	"foresight/internal/config"
	"foresight/internal/dryrun"
	"foresight/internal/market"
	"foresight/internal/matcher"
	"foresight/internal/oracle"
	"foresight/internal/venue"
)

// Server exposes the pipeline over HTTP: catalog fetches, condition
// management, matching, forecasting, and dry runs.
type Server struct {
	e          *echo.Echo
	venues     *venue.Service
	matcher    *matcher.Matcher
	oracle     *oracle.Client
	runner     *dryrun.Runner
	conditions *catalog.Store
	markets    *catalog.MarketStore
	matches    *matcher.Store
	forecasts  *oracle.Store
	venCfg     config.VenuesConfig
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func New(venues *venue.Service, m *matcher.Matcher, oc *oracle.Client, runner *dryrun.Runner, database *sql.DB, venCfg config.VenuesConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(middleware.Recover())

	s := &Server{
		e:          e,
		venues:     venues,
		matcher:    m,
		oracle:     oc,
		runner:     runner,
		conditions: catalog.NewStore(database),
		markets:    catalog.NewMarketStore(database),
		matches:    matcher.NewStore(database),
		forecasts:  oracle.NewStore(database),
		venCfg:     venCfg,
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/markets", s.handleMarkets)
	e.GET("/match", s.handleMatch)
	e.POST("/conditions", s.handlePutCondition)
	e.POST("/forecast", s.handleForecast)
	e.POST("/forecast/batch", s.handleForecastBatch)
	e.POST("/dry-run", s.handleDryRun)

	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	slog.Info("http server starting", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type marketsRequest struct {
	Platform string `query:"platform" validate:"omitempty,oneof=kalshi polymarket both"`
	Limit    int    `query:"limit" validate:"gte=0,lte=1000"`
}

type marketsResponse struct {
	Markets     []market.Market `json:"markets"`
	VenueErrors []string        `json:"venueErrors,omitempty"`
}

func (s *Server) handleMarkets(c echo.Context) error {
	req := new(marketsRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = s.venCfg.FetchLimit
	}

	markets, errs := s.venues.FetchAll(c.Request().Context(), req.Platform, req.Limit)
	if err := s.markets.UpsertAll(markets); err != nil {
		slog.Error("failed to persist market snapshot", "error", err)
	}
	resp := marketsResponse{Markets: markets}
	for _, err := range errs {
		resp.VenueErrors = append(resp.VenueErrors, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMatch(c echo.Context) error {
	conditions, err := s.conditions.List()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	markets := s.venues.Cached()
	if len(markets) == 0 {
		markets, _ = s.venues.FetchAll(c.Request().Context(), "both", s.venCfg.FetchLimit)
	}

	results, err := s.matcher.MatchAll(c.Request().Context(), conditions, markets)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := s.matches.Save(results); err != nil {
		slog.Error("failed to persist match results", "error", err)
	}
	return c.JSON(http.StatusOK, results)
}

type conditionRequest struct {
	ID        string    `json:"id" validate:"required"`
	Question  string    `json:"question" validate:"required"`
	ShortName string    `json:"shortName"`
	EndTime   time.Time `json:"endTime" validate:"required"`
}

func (s *Server) handlePutCondition(c echo.Context) error {
	req := new(conditionRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	cond := catalog.Condition{
		ID:        req.ID,
		Question:  req.Question,
		ShortName: req.ShortName,
		EndTime:   req.EndTime,
	}
	if err := s.conditions.Put(cond); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, cond)
}

type subjectRequest struct {
	SubjectID string   `json:"subjectId" validate:"required"`
	Title     string   `json:"title" validate:"required"`
	Platform  string   `json:"platform" validate:"omitempty,oneof=kalshi polymarket"`
	YesPrice  float64  `json:"yesPrice" validate:"gte=0,lte=1"`
	NoPrice   float64  `json:"noPrice" validate:"gte=0,lte=1"`
	Volume    *float64 `json:"volume,omitempty" validate:"omitempty,gte=0"`
	Question  string   `json:"question"`
}

func (sr *subjectRequest) toSubject() oracle.Subject {
	return oracle.Subject{
		ID:       sr.SubjectID,
		Title:    sr.Title,
		Platform: market.Platform(sr.Platform),
		YesPrice: sr.YesPrice,
		NoPrice:  sr.NoPrice,
		Volume:   sr.Volume,
		Question: sr.Question,
	}
}

type forecastResponse struct {
	Forecast *oracle.Forecast `json:"forecast"`
}

func (s *Server) handleForecast(c echo.Context) error {
	req := new(subjectRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	f, err := s.oracle.Forecast(c.Request().Context(), req.toSubject())
	if err != nil {
		// Both transport failures and unparseable replies are upstream
		// faults.
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if err := s.forecasts.SaveAll([]oracle.Forecast{*f}); err != nil {
		slog.Error("failed to persist forecast", "error", err)
	}
	return c.JSON(http.StatusOK, forecastResponse{Forecast: f})
}

type forecastBatchRequest struct {
	Subjects []subjectRequest `json:"subjects" validate:"required,min=1,dive"`
}

type forecastBatchResponse struct {
	Forecasts []oracle.Forecast `json:"forecasts"`
	Errors    []string          `json:"errors,omitempty"`
}

func (s *Server) handleForecastBatch(c echo.Context) error {
	req := new(forecastBatchRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	subjects := make([]oracle.Subject, 0, len(req.Subjects))
	for _, sr := range req.Subjects {
		subjects = append(subjects, sr.toSubject())
	}

	forecasts, errs := s.oracle.ForecastBatch(c.Request().Context(), subjects)
	if err := s.forecasts.SaveAll(forecasts); err != nil {
		slog.Error("failed to persist forecasts", "error", err)
	}
	resp := forecastBatchResponse{Forecasts: forecasts}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, err.Error())
	}

	// Nothing parseable came back: the oracle is effectively down.
	if len(forecasts) == 0 && len(errs) > 0 {
		return c.JSON(http.StatusBadGateway, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

type dryRunRequest struct {
	MaxTrades int `json:"maxTrades" validate:"gte=0"`
}

func (s *Server) handleDryRun(c echo.Context) error {
	req := new(dryRunRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	result, err := s.runner.Run(c.Request().Context(), req.MaxTrades)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
