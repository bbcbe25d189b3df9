package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/classroom-api/api/swagger"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/config"
	"github.com/noah-isme/classroom-api/pkg/database"
	"github.com/noah-isme/classroom-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classroom-api/pkg/middleware/requestid"
)

const (
	serverReadHeaderTimeout = 5 * time.Second
	serverIdleTimeout       = 60 * time.Second
	shutdownTimeout         = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "Port to listen on (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logr, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.NewMigrator(db.DB, logr).Up(ctx); err != nil {
			return err
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, db, logr),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       serverIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "api_prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

// newRouter wires repositories, services and handlers onto a gin engine.
func newRouter(cfg *config.Config, db *sqlx.DB, logr *zap.Logger) *gin.Engine {
	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	validate := dto.NewValidator()
	classroomSvc := service.NewClassroomService(
		repository.NewTeacherRepository(db, metrics),
		repository.NewStudentRepository(db, metrics),
		repository.NewRegistrationRepository(db, metrics),
		repository.NewTransactor(db),
		validate,
		logr,
		metrics,
	)
	classroomHandler := handler.NewClassroomHandler(classroomSvc, validate)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.NoRoute(handler.NotFound)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metrics != nil {
		r.GET(cfg.Metrics.Path, metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	api.POST("/register", classroomHandler.Register)
	api.GET("/commonstudents", classroomHandler.CommonStudents)
	api.POST("/suspend", classroomHandler.Suspend)
	api.POST("/retrievefornotifications", classroomHandler.RetrieveForNotifications)

	return r
}
