// Package api exposes the analysis engine and the model store over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"goanalyst/internal"
	"goanalyst/internal/analysis"
	"goanalyst/internal/config"
	"goanalyst/internal/errors"
	"goanalyst/ports"

	"github.com/gin-gonic/gin"
)

// DefaultDatasetSlots is how many uploaded datasets the server keeps
const DefaultDatasetSlots = 32

// Dependencies are the collaborators a Server needs
type Dependencies struct {
	Analyzer *analysis.Analyzer
	Models   ports.ModelRepository
	Config   *config.Config
	Logger   *internal.Logger
}

// Server represents the HTTP API
type Server struct {
	router   *gin.Engine
	analyzer *analysis.Analyzer
	models   ports.ModelRepository
	datasets *DatasetRegistry
	metrics  *Metrics
	config   *config.Config
	logger   *internal.Logger
}

// NewServer wires the routes
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Analyzer == nil || deps.Models == nil || deps.Config == nil {
		return nil, errors.ConfigInvalid("api server needs an analyzer, a model repository and a config")
	}
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger.With("API")
	}
	datasets, err := NewDatasetRegistry(DefaultDatasetSlots)
	if err != nil {
		return nil, err
	}

	gin.SetMode(deps.Config.Server.GinMode)
	s := &Server{
		router:   gin.New(),
		analyzer: deps.Analyzer,
		models:   deps.Models,
		datasets: datasets,
		metrics:  NewMetrics(deps.Analyzer),
		config:   deps.Config,
		logger:   deps.Logger,
	}
	s.router.Use(gin.Logger(), gin.Recovery(), s.metrics.Middleware())
	s.router.MaxMultipartMemory = deps.Config.Server.MaxUploadMB << 20
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/v1")
	{
		v1.POST("/datasets", s.handleUploadDataset)
		v1.GET("/datasets/:id", s.handleDatasetSummary)

		v1.POST("/analyses/:kind", s.handleAnalysis)
		v1.POST("/insights", s.handleInsights)

		v1.POST("/problem-type", s.handleProblemType)
		v1.POST("/models", s.handleTrain)
		v1.POST("/models/import", s.handleImportModel)
		v1.GET("/models", s.handleListModels)
		v1.GET("/models/:id", s.handleGetModel)
		v1.DELETE("/models/:id", s.handleDeleteModel)
		v1.GET("/models/:id/export", s.handleExportModel)
		v1.POST("/models/:id/predict", s.handlePredict)
	}
}

// Handler returns the router for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cache":  s.analyzer.Stats(),
	})
}
