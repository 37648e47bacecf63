package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/repository"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

// viewQuery holds the filters shared by the table, map and export endpoints.
type viewQuery struct {
	scenario string
	typ      *models.AssetType
	minScore *float64
	hazards  []models.Hazard
}

func (h *Handler) parseViewQuery(c *gin.Context) (viewQuery, error) {
	q := viewQuery{
		scenario: strings.TrimSpace(c.Query("scenario")),
		hazards:  vulnerability.DefaultMultiHazardSelection,
	}
	if q.scenario == "" {
		q.scenario = h.scorer.DefaultScenario()
	}

	if t := strings.TrimSpace(c.Query("type")); t != "" && !strings.EqualFold(t, "all") {
		at, ok := models.ParseAssetType(t)
		if !ok {
			return q, fmt.Errorf("invalid type %q", t)
		}
		q.typ = &at
	}

	if m := c.Query("min_vuln"); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v < 0 || v > 100 {
			return q, fmt.Errorf("invalid min_vuln %q: must be a number between 0 and 100", m)
		}
		q.minScore = &v
	}

	if hz, ok := c.GetQuery("hazards"); ok {
		q.hazards = vulnerability.ParseHazards(hz)
	}

	return q, nil
}

func (q viewQuery) filter(key string, order repository.Order, limit int) repository.Filter {
	return repository.Filter{
		Scenario: key,
		Type:     q.typ,
		MinScore: q.minScore,
		Order:    order,
		Limit:    limit,
	}
}

func parseLimit(c *gin.Context, fallback, max int) int {
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= max {
			return lim
		}
	}
	return fallback
}
