package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"goanalyst/domain/core"
	"goanalyst/internal/automl"
	"goanalyst/internal/errors"

	"github.com/gin-gonic/gin"
)

// TrainRequest selects the target and features of a training run
type TrainRequest struct {
	DatasetRef
	Target      string   `json:"target" binding:"required"`
	Features    []string `json:"features"`
	ProblemType string   `json:"problem_type" binding:"omitempty,oneof=classification regression"`
	Algorithms  []string `json:"algorithms"`
	Seed        *int64   `json:"seed"`
}

// PredictRequest holds one row of feature values
type PredictRequest struct {
	Values map[string]interface{} `json:"values" binding:"required"`
}

// ProblemTypeRequest asks which kind of model a target needs
type ProblemTypeRequest struct {
	DatasetRef
	Target string `json:"target" binding:"required"`
}

func (s *Server) handleProblemType(c *gin.Context) {
	var req ProblemTypeRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ds, err := s.resolveDataset(req.DatasetRef)
	if err != nil {
		s.respondError(c, err)
		return
	}
	problem, err := automl.DetermineProblemType(ds, req.Target)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"target": req.Target, "problem_type": problem})
}

// handleTrain trains, stores and returns a model
func (s *Server) handleTrain(c *gin.Context) {
	var req TrainRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ds, err := s.resolveDataset(req.DatasetRef)
	if err != nil {
		s.respondError(c, err)
		return
	}

	cfg := s.config.Engine.AutoML(s.logger.With("AutoML"))
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	for _, a := range req.Algorithms {
		cfg.Algorithms = append(cfg.Algorithms, automl.Algorithm(a))
	}

	started := time.Now()
	model, err := automl.Train(ds, req.Target, req.Features, automl.ProblemType(req.ProblemType), cfg)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.metrics.ObserveTraining(string(model.Algorithm), string(model.ProblemType), time.Since(started))

	if err := s.models.Save(c.Request.Context(), model, ds.Hash()); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model)
}

func (s *Server) handleListModels(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	records, err := s.models.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": records, "count": len(records)})
}

func (s *Server) loadModel(c *gin.Context) (*automl.TrainedModel, bool) {
	id, err := core.ParseModelID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return nil, false
	}
	model, err := s.models.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return model, true
}

func (s *Server) handleGetModel(c *gin.Context) {
	model, ok := s.loadModel(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, model)
}

func (s *Server) handleDeleteModel(c *gin.Context) {
	id, err := core.ParseModelID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	if err := s.models.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePredict(c *gin.Context) {
	var req PredictRequest
	if !s.bindJSON(c, &req) {
		return
	}
	model, ok := s.loadModel(c)
	if !ok {
		return
	}
	result, err := automl.Predict(model, req.Values)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.metrics.ObservePrediction(string(model.Algorithm))
	c.JSON(http.StatusOK, result)
}

// handleExportModel returns the model as JSON or, with ?format=yaml, YAML
func (s *Server) handleExportModel(c *gin.Context) {
	model, ok := s.loadModel(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", automl.FormatJSON)
	out, err := automl.Export(model, format)
	if err != nil {
		s.respondError(c, err)
		return
	}
	contentType := "application/json"
	if format != automl.FormatJSON {
		contentType = "application/yaml"
	}
	c.Data(http.StatusOK, contentType, []byte(out))
}

// handleImportModel stores a model previously exported in the given format
func (s *Server) handleImportModel(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.config.Server.MaxUploadMB<<20))
	if err != nil {
		s.respondError(c, errors.InvalidInputf("failed to read body: %v", err))
		return
	}
	model, err := automl.Import(string(body), c.DefaultQuery("format", automl.FormatJSON))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if model.ID == "" {
		model.ID = core.NewModelID()
	}
	if err := s.models.Save(c.Request.Context(), model, ""); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": model.ID, "algorithm": model.Algorithm, "target": model.Target})
}
