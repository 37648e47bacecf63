package api

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/climate-vuln/internal/export"
	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/observability"
	"github.com/mr1hm/climate-vuln/internal/repository"
	"github.com/mr1hm/climate-vuln/internal/scoring"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

const (
	maxTableLimit = 5000
	previewRows   = 20
)

//go:embed static/map.html
var mapPage []byte

// Scorer is the part of scoring.Manager the handlers use.
type Scorer interface {
	Ensure(ctx context.Context, scenario string) (string, error)
	Scenarios() []scoring.ScenarioStatus
	DefaultScenario() string
	Ready(ctx context.Context) error
}

type Handler struct {
	repo    repository.ScoredAssetRepository
	scorer  Scorer
	metrics *observability.Metrics
}

func NewHandler(repo repository.ScoredAssetRepository, scorer Scorer, metrics *observability.Metrics) *Handler {
	return &Handler{
		repo:    repo,
		scorer:  scorer,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.mapPage)
	r.GET("/api/scenarios", h.getScenarios)
	r.GET("/api/assets", h.getAssets)
	r.GET("/api/map", h.getMap)
	r.GET("/api/export", h.getExport)
	r.GET("/api/export/preview", h.getExportPreview)
	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// tableRow is the JSON shape of one row in the table view.
type tableRow struct {
	AssetID            string             `json:"asset_id"`
	Type               string             `json:"type"`
	Latitude           float64            `json:"latitude"`
	Longitude          float64            `json:"longitude"`
	CapacityKVA        float64            `json:"capacity_kVA"`
	AgeYears           float64            `json:"age_years"`
	Criticality        float64            `json:"criticality"`
	Exposure           float64            `json:"exposure"`
	Sensitivity        float64            `json:"sensitivity"`
	CriticalityNorm    float64            `json:"criticality_norm"`
	VulnerabilityScore float64            `json:"vulnerability_score"`
	MultiHazardIndex   float64            `json:"multi_hazard_index"`
	Hazards            map[string]float64 `json:"hazards,omitempty"`
}

func toTableRow(a models.ScoredAsset, withHazards bool) tableRow {
	row := tableRow{
		AssetID:            a.AssetID,
		Type:               string(a.Type),
		Latitude:           a.Latitude,
		Longitude:          a.Longitude,
		CapacityKVA:        a.CapacityKVA,
		AgeYears:           a.AgeYears,
		Criticality:        a.Criticality,
		Exposure:           a.Exposure,
		Sensitivity:        a.Sensitivity,
		CriticalityNorm:    a.CriticalityNorm,
		VulnerabilityScore: a.VulnerabilityScore,
		MultiHazardIndex:   a.MultiHazardIndex,
	}
	if withHazards {
		row.Hazards = make(map[string]float64, len(a.Hazards))
		for hz, v := range a.Hazards {
			row.Hazards[string(hz)] = v
		}
	}
	return row
}

// fetch scores the requested scenario if needed and returns the filtered rows with
// the multi-hazard index applied.
func (h *Handler) fetch(c *gin.Context, q viewQuery, order repository.Order, limit int) ([]models.ScoredAsset, bool) {
	ctx := c.Request.Context()

	key, err := h.scorer.Ensure(ctx, q.scenario)
	if err != nil {
		slog.Error("scoring failed", "scenario", q.scenario, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to score scenario",
		})
		return nil, false
	}

	assets, err := h.repo.ListScored(ctx, q.filter(key, order, limit))
	if err != nil {
		slog.Error("listing scored assets failed", "scenario", q.scenario, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch assets",
		})
		return nil, false
	}

	for i := range assets {
		assets[i].Scenario = q.scenario
	}
	vulnerability.ApplyMultiHazard(assets, q.hazards)
	return assets, true
}

func (h *Handler) viewQueryOrAbort(c *gin.Context) (viewQuery, bool) {
	q, err := h.parseViewQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, false
	}
	return q, true
}

func (h *Handler) getScenarios(c *gin.Context) {
	type scenarioJSON struct {
		Label    string     `json:"label"`
		Known    bool       `json:"known"`
		Scored   bool       `json:"scored"`
		ScoredAt *time.Time `json:"scored_at,omitempty"`
		Assets   int        `json:"assets"`
	}

	statuses := h.scorer.Scenarios()
	out := make([]scenarioJSON, 0, len(statuses))
	for _, s := range statuses {
		sj := scenarioJSON{Label: s.Label, Known: s.Known, Scored: s.Scored, Assets: s.Assets}
		if s.Scored {
			at := s.ScoredAt
			sj.ScoredAt = &at
		}
		out = append(out, sj)
	}

	c.JSON(http.StatusOK, gin.H{
		"default":   h.scorer.DefaultScenario(),
		"scenarios": out,
	})
}

func (h *Handler) getAssets(c *gin.Context) {
	q, ok := h.viewQueryOrAbort(c)
	if !ok {
		return
	}

	assets, ok := h.fetch(c, q, repository.OrderByScoreDesc, 0)
	if !ok {
		return
	}

	// All filtered rows are returned unless the caller pages with limit
	total := len(assets)
	if limit := parseLimit(c, 0, maxTableLimit); limit > 0 && limit < total {
		assets = assets[:limit]
	}

	rows := make([]tableRow, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, toTableRow(a, false))
	}
	c.JSON(http.StatusOK, gin.H{
		"scenario": q.scenario,
		"count":    len(rows),
		"total":    total,
		"assets":   rows,
	})
}

func (h *Handler) getMap(c *gin.Context) {
	q, ok := h.viewQueryOrAbort(c)
	if !ok {
		return
	}

	assets, ok := h.fetch(c, q, repository.OrderByLoad, 0)
	if !ok {
		return
	}

	fc := toGeoJSON(assets, normalizeColorBy(c.Query("color_by")))
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

type exportSource string

const (
	sourceTable exportSource = "table"
	sourceMap   exportSource = "map"
)

var errUnsupportedFormat = errors.New("unsupported format: only csv is available")

func parseExportSource(c *gin.Context) (exportSource, []export.Column, repository.Order, error) {
	if f := c.Query("format"); f != "" && !strings.EqualFold(f, "csv") {
		return "", nil, 0, errUnsupportedFormat
	}
	switch src := exportSource(strings.ToLower(c.DefaultQuery("source", string(sourceTable)))); src {
	case sourceTable:
		return src, export.TableColumns, repository.OrderByScoreDesc, nil
	case sourceMap:
		return src, export.MapColumns, repository.OrderByLoad, nil
	default:
		return "", nil, 0, errors.New("invalid source: must be table or map")
	}
}

func (h *Handler) getExport(c *gin.Context) {
	q, ok := h.viewQueryOrAbort(c)
	if !ok {
		return
	}
	src, cols, order, err := parseExportSource(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assets, ok := h.fetch(c, q, order, 0)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, cols, assets); err != nil {
		slog.Error("csv export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to export data",
		})
		return
	}

	if h.metrics != nil {
		h.metrics.Exports.WithLabelValues(string(src)).Inc()
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) getExportPreview(c *gin.Context) {
	q, ok := h.viewQueryOrAbort(c)
	if !ok {
		return
	}
	src, cols, order, err := parseExportSource(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assets, ok := h.fetch(c, q, order, 0)
	if !ok {
		return
	}

	total := len(assets)
	if total > previewRows {
		assets = assets[:previewRows]
	}
	rows := make([]tableRow, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, toTableRow(a, src == sourceMap))
	}

	c.JSON(http.StatusOK, gin.H{
		"source":  src,
		"columns": export.ColumnNames(cols),
		"total":   total,
		"rows":    rows,
	})
}

func (h *Handler) mapPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", mapPage)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.scorer.Ready(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
