package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/climate-vuln/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// In-memory databases are per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scored_assets (
			scenario TEXT NOT NULL,
			seq INTEGER NOT NULL,
			asset_id TEXT NOT NULL,
			type TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			capacity_kva REAL NOT NULL,
			age_years REAL NOT NULL,
			criticality REAL NOT NULL,
			exposure REAL NOT NULL,
			sensitivity REAL NOT NULL,
			criticality_norm REAL NOT NULL,
			vulnerability_score REAL NOT NULL,
			heat_index REAL,
			flood_risk REAL,
			heavy_rain REAL,
			freeze_thaw REAL,
			wind_extreme REAL,
			PRIMARY KEY (scenario, asset_id)
		);

		CREATE INDEX IF NOT EXISTS idx_scored_scenario_score ON scored_assets(scenario, vulnerability_score);
		CREATE INDEX IF NOT EXISTS idx_scored_scenario_type ON scored_assets(scenario, type);
	`

	_, err := s.db.Exec(schema)
	return err
}

const scoredColumns = `asset_id, type, latitude, longitude, capacity_kva, age_years, criticality,
	exposure, sensitivity, criticality_norm, vulnerability_score,
	heat_index, flood_risk, heavy_rain, freeze_thaw, wind_extreme`

func (s *SQLiteDB) ReplaceScenario(ctx context.Context, scenario string, rows []models.ScoredAsset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM scored_assets WHERE scenario = ?`, scenario); err != nil {
		return fmt.Errorf("error clearing scenario %q: %w", scenario, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scored_assets (scenario, seq, `+scoredColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			scenario, i,
			r.AssetID, string(r.Type), r.Latitude, r.Longitude, r.CapacityKVA, r.AgeYears, r.Criticality,
			r.Exposure, r.Sensitivity, r.CriticalityNorm, r.VulnerabilityScore,
			hazardArg(r.Hazards, models.HazardHeatIndex),
			hazardArg(r.Hazards, models.HazardFloodRisk),
			hazardArg(r.Hazards, models.HazardHeavyRain),
			hazardArg(r.Hazards, models.HazardFreezeThaw),
			hazardArg(r.Hazards, models.HazardWindExtreme),
		)
		if err != nil {
			return fmt.Errorf("error inserting asset %q: %w", r.AssetID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteDB) HasScenario(ctx context.Context, scenario string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM scored_assets WHERE scenario = ?)`, scenario).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking scenario %q: %w", scenario, err)
	}
	return exists, nil
}

func (s *SQLiteDB) CountScored(ctx context.Context, scenario string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scored_assets WHERE scenario = ?`, scenario).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting scenario %q: %w", scenario, err)
	}
	return n, nil
}

func (s *SQLiteDB) ListScored(ctx context.Context, opts Filter) ([]models.ScoredAsset, error) {
	var (
		where = []string{"scenario = ?"}
		args  = []any{opts.Scenario}
	)
	if opts.Type != nil {
		where = append(where, "type = ?")
		args = append(args, string(*opts.Type))
	}
	if opts.MinScore != nil {
		where = append(where, "vulnerability_score >= ?")
		args = append(args, *opts.MinScore)
	}

	query := `SELECT ` + scoredColumns + ` FROM scored_assets WHERE ` + strings.Join(where, " AND ")
	switch opts.Order {
	case OrderByLoad:
		query += ` ORDER BY seq`
	default:
		query += ` ORDER BY vulnerability_score DESC, seq`
	}
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying scored assets: %w", err)
	}
	defer rows.Close()

	var out []models.ScoredAsset
	for rows.Next() {
		var (
			a                                   models.ScoredAsset
			typ                                 string
			heat, flood, rain, freeze, windExtr sql.NullFloat64
		)
		if err := rows.Scan(
			&a.AssetID, &typ, &a.Latitude, &a.Longitude, &a.CapacityKVA, &a.AgeYears, &a.Criticality,
			&a.Exposure, &a.Sensitivity, &a.CriticalityNorm, &a.VulnerabilityScore,
			&heat, &flood, &rain, &freeze, &windExtr,
		); err != nil {
			return nil, fmt.Errorf("error scanning scored asset: %w", err)
		}
		a.Type = models.AssetType(typ)
		a.Scenario = opts.Scenario
		a.Hazards = make(models.HazardIndices, 5)
		setHazard(a.Hazards, models.HazardHeatIndex, heat)
		setHazard(a.Hazards, models.HazardFloodRisk, flood)
		setHazard(a.Hazards, models.HazardHeavyRain, rain)
		setHazard(a.Hazards, models.HazardFreezeThaw, freeze)
		setHazard(a.Hazards, models.HazardWindExtreme, windExtr)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scored assets: %w", err)
	}

	return out, nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func hazardArg(h models.HazardIndices, hz models.Hazard) any {
	if v, ok := h.Get(hz); ok {
		return v
	}
	return nil
}

func setHazard(h models.HazardIndices, hz models.Hazard, v sql.NullFloat64) {
	if v.Valid {
		h[hz] = v.Float64
	}
}
