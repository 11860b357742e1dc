package cmd

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/carenest-platform/ms-go-refunds/app/controller"
	"github.com/carenest-platform/ms-go-refunds/app/gateway"
	"github.com/carenest-platform/ms-go-refunds/app/repository"
	"github.com/carenest-platform/ms-go-refunds/app/service"
	"github.com/carenest-platform/ms-go-refunds/app/types"
	"github.com/carenest-platform/ms-go-refunds/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the refunds service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, refundService, cleanup := mustCreateRefundService()
	defer cleanup()

	refundController := controller.NewRefundController(refundService)

	e := setupHTTPServer(refundController, cfg.App.APIKey)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(refundController *controller.RefundController, apiKey string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(requireRequestID())
	e.Use(requireAPIKey(apiKey))

	e.GET("/health", refundController.Health)

	refunds := e.Group("/refunds")
	refunds.POST("", refundController.CreateRefund)
	refunds.GET("", refundController.ListRefunds)
	refunds.GET("/statistics", refundController.GetStatistics)
	refunds.POST("/eligibility", refundController.CheckEligibility)
	refunds.GET("/:id", refundController.GetRefund)
	refunds.POST("/:id/process", refundController.ProcessRefund)
	refunds.POST("/:id/reject", refundController.RejectRefund)

	return e
}

func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-request-id header is required"})
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

// requireAPIKey gates every route except /health behind the shared internal
// key. An empty configured key disables the check for local development.
func requireAPIKey(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if apiKey == "" || ctx.Path() == "/health" {
				return next(ctx)
			}
			provided := ctx.Request().Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "invalid api key"})
			}
			return next(ctx)
		}
	}
}

func mustCreateRefundService() (*config.Config, *service.RefundService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	refundRepo := repository.NewRefundRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	escrowRepo := repository.NewEscrowRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)

	bkashGateway := gateway.NewBkashGateway(gateway.BkashConfig{
		BaseURL:     cfg.Bkash.BaseURL,
		Username:    cfg.Bkash.Username,
		Password:    cfg.Bkash.Password,
		AppKey:      cfg.Bkash.AppKey,
		HTTPTimeout: cfg.Bkash.HTTPTimeout,
	})
	nagadGateway := gateway.NewNagadGateway(gateway.NagadConfig{
		BaseURL:     cfg.Nagad.BaseURL,
		Username:    cfg.Nagad.Username,
		Password:    cfg.Nagad.Password,
		AppKey:      cfg.Nagad.AppKey,
		HTTPTimeout: cfg.Nagad.HTTPTimeout,
	})

	gatewayRegistry := gateway.NewRegistry(bkashGateway, nagadGateway)
	refundService := service.NewRefundService(
		refundRepo,
		paymentRepo,
		policyRepo,
		escrowRepo,
		settlementRepo,
		auditRepo,
		gatewayRegistry,
		cfg.Refunds,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, refundService, cleanup
}
