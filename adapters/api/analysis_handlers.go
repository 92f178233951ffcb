package api

import (
	"net/http"
	"strings"

	"goanalyst/internal/analysis"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// AnalysisRequest names the dataset and the parameters of one analysis
type AnalysisRequest struct {
	DatasetRef
	analysis.Params
}

// InsightsRequest asks for the narrative report of a dataset
type InsightsRequest struct {
	DatasetRef
	Target string `json:"target"`
	Title  string `json:"title"`
}

// handleAnalysis runs the analysis named by the :kind path segment
func (s *Server) handleAnalysis(c *gin.Context) {
	var req AnalysisRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ds, err := s.resolveDataset(req.DatasetRef)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.analyzer.Run(c.Request.Context(), analysis.Kind(c.Param("kind")), ds, req.Params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleInsights renders the comprehensive report as HTML, or as Markdown
// with ?format=markdown
func (s *Server) handleInsights(c *gin.Context) {
	var req InsightsRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ds, err := s.resolveDataset(req.DatasetRef)
	if err != nil {
		s.respondError(c, err)
		return
	}
	report, err := s.analyzer.Comprehensive(c.Request.Context(), ds, req.Target)
	if err != nil {
		s.respondError(c, err)
		return
	}

	title := req.Title
	if title == "" {
		title = "Data insights"
	}
	md := report.Markdown(title)
	if strings.EqualFold(c.Query("format"), "markdown") {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", RenderHTML(md))
}

// RenderHTML converts report Markdown to an HTML fragment
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML([]byte(md), p, renderer)
}
