package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goanalyst/adapters/store"
	"goanalyst/domain/core"
	"goanalyst/internal/automl"
	"goanalyst/internal/migration"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <driver> <database_url> [model_export_dir]")
	}

	driver, databaseURL := os.Args[1], os.Args[2]
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := store.Open(ctx, driver, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}
	log.Printf("Schema %s applied", runner.Version())

	if len(os.Args) < 4 {
		return
	}

	modelDir := os.Args[3]
	files, err := findModelFiles(modelDir)
	if err != nil {
		log.Fatalf("Failed to find model files: %v", err)
	}
	log.Printf("Found %d model files to import from %s", len(files), modelDir)

	repo := store.NewModelRepository(db)
	imported, skipped := 0, 0
	for _, file := range files {
		model, err := loadModelFromFile(file)
		if err != nil {
			log.Printf("Failed to load model from %s: %v", file, err)
			skipped++
			continue
		}
		if err := repo.Save(ctx, model, ""); err != nil {
			log.Printf("Failed to save model %s: %v", model.ID, err)
			skipped++
			continue
		}
		imported++
		log.Printf("Imported model %s (%s on %s) from %s", model.ID, model.Algorithm, model.Target, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findModelFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// loadModelFromFile imports one export. Documents without an ID get one
// derived from their path, so importing the same directory twice replaces
// rather than duplicates.
func loadModelFromFile(path string) (*automl.TrainedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := automl.FormatJSON
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		format = automl.FormatYAML
	}
	model, err := automl.Import(string(data), format)
	if err != nil {
		return nil, err
	}
	if model.ID == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		model.ID = core.ModelID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(abs)).String())
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	return model, nil
}
