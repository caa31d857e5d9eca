package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/ventas/internal/config"
	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/internal/observability"
	"github.com/Additional-Code/ventas/internal/presentation/http/response"
	"github.com/Additional-Code/ventas/internal/presentation/http/validator"
	"github.com/Additional-Code/ventas/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// Params collects the router dependencies.
type Params struct {
	fx.In

	Config        config.Config
	Logger        *zap.Logger
	Observability *observability.Manager `optional:"true"`
	Database      *database.Connections  `optional:"true"`
}

// NewEcho configures the Echo router with middleware, liveness and
// readiness probes and the metrics endpoint.
func NewEcho(p Params) *echo.Echo {
	logger := p.Logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestID())
	if p.Observability != nil && p.Observability.TracingEnabled() {
		e.Use(otelecho.Middleware(p.Config.Observability.ServiceName))
	}
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "API funcionando")
	})
	e.GET("/health", health(p.Database))

	if p.Observability != nil && p.Observability.MetricsHandler() != nil {
		e.GET(p.Observability.PrometheusPath(), echo.WrapHandler(p.Observability.MetricsHandler()))
	}

	return e
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}

func health(conns *database.Connections) echo.HandlerFunc {
	return func(c echo.Context) error {
		if conns != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := conns.Ping(ctx); err != nil {
				c.Set(response.ErrorContextKey, errorbank.Unavailable("database unreachable", errorbank.WithCause(err)))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// errorHandler renders router level failures (unknown route, wrong method,
// panics turned into errors) with the same body as handler errors.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *errorbank.AppError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
		case errors.As(err, &httpErr):
			appErr = errorbank.New(errorbank.KindForStatus(httpErr.Code), http.StatusText(httpErr.Code), errorbank.WithCause(err))
		default:
			logger.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			appErr = errorbank.Internal("internal error", errorbank.WithCause(err))
		}

		if rerr := response.New(c).WithStatus(statusFor(err, appErr)).WithError(appErr).Build(); rerr != nil {
			logger.Error("write error response", zap.Error(rerr))
		}
	}
}

func statusFor(err error, appErr *errorbank.AppError) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return appErr.StatusCode()
}

// requestLogger writes one entry per request. Server errors are logged at
// error level with their cause, client errors at warn.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}

			cause := v.Error
			if appErr, ok := c.Get(response.ErrorContextKey).(*errorbank.AppError); ok {
				fields = append(fields, zap.String("error_kind", string(appErr.Kind())))
				cause = appErr
			}
			if cause != nil {
				fields = append(fields, zap.Error(cause))
			}

			level := zapcore.InfoLevel
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = zapcore.ErrorLevel
			case v.Status >= http.StatusBadRequest:
				level = zapcore.WarnLevel
			}
			logger.Log(level, "http request", fields...)
			return nil
		},
	})
}
