package loader

import (
	"fmt"
	"io"
	"math"

	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

const ColScenario = "scenario"

// LoadHazards reads the scenario hazard table at path. A missing file is an error
// wrapping ErrHazardFileNotFound; callers may treat it as an empty table.
func LoadHazards(path string) (models.HazardTable, error) {
	f, err := openFile(path, ErrHazardFileNotFound)
	if err != nil {
		return models.HazardTable{}, err
	}
	defer f.Close()

	table, err := ReadHazards(f)
	if err != nil {
		return models.HazardTable{}, fmt.Errorf("load hazards %s: %w", path, err)
	}
	return table, nil
}

// ReadHazards parses a hazard CSV. Only the scenario column is required; hazard
// columns that are absent stay absent from every scenario, and empty cells are
// left out of that scenario's indices.
func ReadHazards(r io.Reader) (models.HazardTable, error) {
	t, err := readTable(r)
	if err != nil {
		return models.HazardTable{}, err
	}
	if !t.has(ColScenario) {
		return models.HazardTable{}, &vulnerability.MissingColumnError{Column: ColScenario}
	}

	var columns []models.Hazard
	for _, h := range models.Hazards() {
		if t.has(string(h)) {
			columns = append(columns, h)
		}
	}

	scenarios := make(map[string]models.HazardIndices, len(t.records))
	for i, row := range t.records {
		line := lineOf(i)

		label := t.value(row, ColScenario)
		if label == "" {
			return models.HazardTable{}, &ParseError{Line: line, Column: ColScenario, Err: fmt.Errorf("empty scenario")}
		}
		if _, dup := scenarios[label]; dup {
			return models.HazardTable{}, &ParseError{Line: line, Column: ColScenario, Err: fmt.Errorf("duplicate scenario %q", label)}
		}

		indices := make(models.HazardIndices, len(columns))
		for _, h := range columns {
			raw := t.value(row, string(h))
			if raw == "" {
				continue
			}
			v, err := parseFloat(raw)
			if err != nil {
				return models.HazardTable{}, &ParseError{Line: line, Column: string(h), Err: err}
			}
			if math.IsNaN(v) || v < 0 || v > 1 {
				return models.HazardTable{}, &ParseError{Line: line, Column: string(h), Err: fmt.Errorf("value %v outside [0,1]", v)}
			}
			indices[h] = v
		}
		scenarios[label] = indices
	}

	return models.HazardTable{Columns: columns, Scenarios: scenarios}, nil
}
