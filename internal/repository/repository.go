package repository

import (
	"context"

	"github.com/mr1hm/climate-vuln/internal/models"
)

type Order int

const (
	// OrderByScoreDesc sorts by vulnerability score, highest first.
	OrderByScoreDesc Order = iota
	// OrderByLoad keeps the asset file order.
	OrderByLoad
)

type Filter struct {
	Scenario string
	Type     *models.AssetType
	MinScore *float64 // vulnerability_score >= MinScore
	Order    Order
	Limit    int // 0 means no limit
	Offset   int
}

type ScoredAssetRepository interface {
	ReplaceScenario(ctx context.Context, scenario string, rows []models.ScoredAsset) error
	HasScenario(ctx context.Context, scenario string) (bool, error)
	ListScored(ctx context.Context, opts Filter) ([]models.ScoredAsset, error)
	CountScored(ctx context.Context, scenario string) (int, error)
	Ping(ctx context.Context) error
}
