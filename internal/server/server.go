package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/deepresearch/config"
	"github.com/mohammad-safakhou/deepresearch/internal/agent"
	"github.com/mohammad-safakhou/deepresearch/internal/pipeline"
	"github.com/mohammad-safakhou/deepresearch/internal/telemetry"
)

// ResearchHandler serves the research endpoint over HTTP.
type ResearchHandler struct {
	Runner  pipeline.Runner
	Timeout time.Duration
}

// Register attaches the research routes to the given group.
func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("/research", h.research)
}

func (h *ResearchHandler) research(c echo.Context) error {
	var req pipeline.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	report, err := h.Runner.Research(ctx, req)
	if err != nil {
		if errors.Is(err, agent.ErrSchemaValidation) {
			return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("model output rejected: %v", err))
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

// New builds the echo instance: recovery, CORS, unified JSON error handler,
// health and metrics endpoints, and the research API.
func New(runner pipeline.Runner, timeout time.Duration) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h := &ResearchHandler{Runner: runner, Timeout: timeout}
	h.Register(e.Group("/api"))
	return e
}

// Run builds the pipeline from configuration and serves until the listener
// fails.
func Run(cfg *config.Config) error {
	tele := telemetry.NewTelemetry(cfg.Telemetry)
	runner, err := pipeline.FromConfig(cfg, tele)
	if err != nil {
		return err
	}
	defer tele.Summary()

	e := New(runner, cfg.General.DefaultTimeout)
	return e.Start(cfg.General.Listen)
}
