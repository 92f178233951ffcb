package api

import (
	"fmt"
	"log"
	"net/http"

	"goanalyst/adapters/excel"
	"goanalyst/domain/dataset"
	"goanalyst/internal/errors"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DatasetRegistry keeps recently uploaded datasets by content hash. The
// least recently used dataset is dropped when the registry is full.
type DatasetRegistry struct {
	cache *lru.Cache[string, *dataset.Dataset]
}

// NewDatasetRegistry creates a registry holding up to size datasets
func NewDatasetRegistry(size int) (*DatasetRegistry, error) {
	cache, err := lru.New[string, *dataset.Dataset](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create dataset registry")
	}
	return &DatasetRegistry{cache: cache}, nil
}

// Put stores ds and returns its ID
func (r *DatasetRegistry) Put(ds *dataset.Dataset) string {
	id := ds.Hash().String()
	r.cache.Add(id, ds)
	return id
}

// Get returns a stored dataset
func (r *DatasetRegistry) Get(id string) (*dataset.Dataset, error) {
	ds, ok := r.cache.Get(id)
	if !ok {
		return nil, errors.NotFound("dataset " + id)
	}
	return ds, nil
}

// DatasetRef names an uploaded dataset or carries rows inline
type DatasetRef struct {
	DatasetID string                   `json:"dataset_id"`
	Records   []map[string]interface{} `json:"records"`
	Roles     map[string]dataset.Role  `json:"roles"`
}

func (s *Server) resolveDataset(ref DatasetRef) (*dataset.Dataset, error) {
	if ref.DatasetID != "" {
		return s.datasets.Get(ref.DatasetID)
	}
	if len(ref.Records) == 0 {
		return nil, errors.Empty("request dataset")
	}
	return dataset.FromMaps(ref.Records, ref.Roles)
}

// handleUploadDataset reads a CSV or XLSX upload from the "dataset" form field
func (s *Server) handleUploadDataset(c *gin.Context) {
	file, header, err := c.Request.FormFile("dataset")
	if err != nil {
		log.Printf("[handleUploadDataset] FAILED - No file uploaded: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "code": errors.CodeInvalidInput})
		return
	}
	defer file.Close()

	maxBytes := s.config.Server.MaxUploadMB << 20
	if header.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("File size (%.1f MB) exceeds the %d MB limit", float64(header.Size)/(1024*1024), s.config.Server.MaxUploadMB),
			"code":  errors.CodeInvalidInput,
		})
		return
	}

	readerConfig := excel.DefaultExcelConfig()
	readerConfig.FilePath = header.Filename
	readerConfig.Sheet = c.PostForm("sheet")
	readerConfig.CoercionConfig = s.config.Coercion
	reader := excel.NewDataReader(readerConfig)

	data, err := reader.ReadStream(file, excel.FileTypeOf(header.Filename))
	if err != nil {
		s.respondError(c, err)
		return
	}
	ds, err := reader.ToDataset(data)
	if err != nil {
		s.respondError(c, err)
		return
	}
	summary, err := s.analyzer.Summary(ds)
	if err != nil {
		s.respondError(c, err)
		return
	}

	id := s.datasets.Put(ds)
	log.Printf("[handleUploadDataset] stored %s as %s (%d rows)", header.Filename, id, ds.Len())
	c.JSON(http.StatusCreated, gin.H{
		"dataset_id": id,
		"filename":   header.Filename,
		"columns":    ds.Columns(),
		"summary":    summary,
	})
}

func (s *Server) handleDatasetSummary(c *gin.Context) {
	ds, err := s.datasets.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	summary, err := s.analyzer.Summary(ds)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset_id": c.Param("id"),
		"columns":    ds.Columns(),
		"summary":    summary,
	})
}
