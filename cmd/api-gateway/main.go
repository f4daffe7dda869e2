package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/hiufpe/hub-api/api/swagger"
	"github.com/hiufpe/hub-api/internal/app"
	"github.com/hiufpe/hub-api/internal/handler"
	"github.com/hiufpe/hub-api/internal/middleware"
	"github.com/hiufpe/hub-api/pkg/config"
	"github.com/hiufpe/hub-api/pkg/logger"
	corsmiddleware "github.com/hiufpe/hub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hiufpe/hub-api/pkg/middleware/requestid"
)

// @title Academic Hub API
// @version 1.0.0
// @description Flexible academic evaluation engine
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer application.Close()
	if err := application.Start(ctx); err != nil {
		logr.Fatal("failed to start background workers", zap.Error(err))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(application.Metrics))

	metricsHandler := handler.NewMetricsHandler(application.Metrics, application.Reconcile)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), application.Tokens, handler.Handlers{
		Enrollments: handler.NewEnrollmentHandler(application.Enrollments),
		Evaluation:  handler.NewEvaluationHandler(application.Methods, application.Assessments, application.Projections),
		Attendance:  handler.NewAttendanceHandler(application.Absences),
		Courses:     handler.NewCourseHandler(application.Courses),
		Standing:    handler.NewStandingHandler(application.Standing, application.Schedule),
		Assistant:   handler.NewAssistantHandler(application.Assistant, application.Tools),
		Metrics:     metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
