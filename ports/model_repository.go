package ports

import (
	"context"
	"time"

	"goanalyst/domain/core"
	"goanalyst/internal/automl"
)

// ModelRepository persists trained models so they can be reloaded for
// prediction after the process that trained them exits
type ModelRepository interface {
	Save(ctx context.Context, model *automl.TrainedModel, datasetHash core.DatasetHash) error
	Get(ctx context.Context, id core.ModelID) (*automl.TrainedModel, error)
	List(ctx context.Context, limit, offset int) ([]ModelRecord, error)
	Delete(ctx context.Context, id core.ModelID) error
}

// ModelRecord is the listing view of a stored model, without the artifact
type ModelRecord struct {
	ID              core.ModelID     `json:"id" db:"id"`
	Target          string           `json:"target" db:"target"`
	Algorithm       string           `json:"algorithm" db:"algorithm"`
	ProblemType     string           `json:"problem_type" db:"problem_type"`
	SelectionMetric string           `json:"selection_metric" db:"selection_metric"`
	Score           float64          `json:"score" db:"score"`
	DatasetHash     core.DatasetHash `json:"dataset_hash" db:"dataset_hash"`
	CreatedAt       time.Time        `json:"created_at" db:"-"`
}
