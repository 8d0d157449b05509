package server

import (
	"context"

	"github.com/grachmannico95/payments-engine/internal/config"
	"github.com/grachmannico95/payments-engine/internal/handler"
	"github.com/grachmannico95/payments-engine/internal/middleware"
	"github.com/grachmannico95/payments-engine/pkg/logger"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo          *echo.Echo
	cfg           *config.Config
	logger        *logger.Logger
	batchHandler  *handler.BatchHandler
	healthHandler *handler.HealthHandler
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	batchHandler *handler.BatchHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:          e,
		cfg:           cfg,
		logger:        log,
		batchHandler:  batchHandler,
		healthHandler: healthHandler,
	}
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) Start() error {
	addr := s.cfg.Address()
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler.Check)

	batches := s.echo.Group("/batches")
	batches.POST("", s.batchHandler.Upload)
	batches.GET("", s.batchHandler.List)
	batches.GET("/:id", s.batchHandler.GetBatch)
	batches.GET("/:id/accounts", s.batchHandler.GetAccounts)
}

func (s *Server) Handler() *echo.Echo {
	return s.echo
}
