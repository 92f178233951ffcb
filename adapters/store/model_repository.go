package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"
	"time"

	"goanalyst/domain/core"
	"goanalyst/internal/automl"
	"goanalyst/internal/errors"
	"goanalyst/ports"

	"github.com/jmoiron/sqlx"
)

// modelRepository implements the ModelRepository interface
type modelRepository struct {
	db *sqlx.DB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *sqlx.DB) ports.ModelRepository {
	return &modelRepository{db: db}
}

type modelRow struct {
	ports.ModelRecord
	CreatedAt string `db:"created_at"`
}

func (r modelRow) record() ports.ModelRecord {
	rec := r.ModelRecord
	rec.CreatedAt = parseTime(r.CreatedAt)
	return rec
}

// Save stores the JSON export of a model. Saving an ID twice replaces the
// earlier artifact.
func (r *modelRepository) Save(ctx context.Context, model *automl.TrainedModel, datasetHash core.DatasetHash) error {
	if model == nil || model.ID == "" {
		return errors.InvalidInput("model must have an ID")
	}
	artifact, err := automl.Export(model, automl.FormatJSON)
	if err != nil {
		return err
	}
	createdAt := model.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM trained_models WHERE id = ?`), model.ID); err != nil {
		return errors.DatabaseError("failed to replace model", err)
	}
	query := r.db.Rebind(`INSERT INTO trained_models (
		id, target, algorithm, problem_type, selection_metric, score, dataset_hash, artifact, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, query,
		model.ID, model.Target, string(model.Algorithm), string(model.ProblemType), model.SelectionMetric,
		model.Metrics[model.SelectionMetric], datasetHash, artifact, formatTime(createdAt),
	)
	if err != nil {
		return errors.DatabaseError("failed to save model", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit model", err)
	}

	log.Printf("[ModelRepository] saved %s model %s for %q", model.Algorithm, model.ID, model.Target)
	return nil
}

// Get loads and decodes a stored model
func (r *modelRepository) Get(ctx context.Context, id core.ModelID) (*automl.TrainedModel, error) {
	var artifact string
	err := r.db.GetContext(ctx, &artifact, r.db.Rebind(`SELECT artifact FROM trained_models WHERE id = ?`), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ModelNotFound(id.String())
		}
		return nil, errors.DatabaseError("failed to get model", err)
	}
	return automl.Import(artifact, automl.FormatJSON)
}

// List returns stored models, newest first
func (r *modelRepository) List(ctx context.Context, limit, offset int) ([]ports.ModelRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := r.db.Rebind(`SELECT
		id, target, algorithm, problem_type, selection_metric, score, dataset_hash, created_at
	FROM trained_models ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)

	var rows []modelRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, errors.DatabaseError("failed to list models", err)
	}
	records := make([]ports.ModelRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

// Delete removes a stored model
func (r *modelRepository) Delete(ctx context.Context, id core.ModelID) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM trained_models WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError("failed to delete model", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to check deleted rows", err)
	}
	if affected == 0 {
		return errors.ModelNotFound(id.String())
	}
	return nil
}
