package loader

import (
	"fmt"
	"io"
	"math"

	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/vulnerability"
)

const (
	ColAssetID     = "asset_id"
	ColType        = "type"
	ColLatitude    = "latitude"
	ColLongitude   = "longitude"
	ColCapacityKVA = "capacity_kVA"
	ColAgeYears    = "age_years"
	ColCriticality = "criticality"
)

// AssetColumns lists the required asset columns in canonical order.
var AssetColumns = []string{ColAssetID, ColType, ColLatitude, ColLongitude, ColCapacityKVA, ColAgeYears, ColCriticality}

// LoadAssets reads the asset inventory at path. A missing file is an error wrapping
// ErrAssetFileNotFound.
func LoadAssets(path string) ([]models.Asset, error) {
	f, err := openFile(path, ErrAssetFileNotFound)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	assets, err := ReadAssets(f)
	if err != nil {
		return nil, fmt.Errorf("load assets %s: %w", path, err)
	}
	return assets, nil
}

// ReadAssets parses an asset CSV. Columns may appear in any order; extra columns are ignored.
func ReadAssets(r io.Reader) ([]models.Asset, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	for _, col := range AssetColumns {
		if !t.has(col) {
			return nil, &vulnerability.MissingColumnError{Column: col}
		}
	}

	assets := make([]models.Asset, 0, len(t.records))
	seen := make(map[string]int, len(t.records))
	for i, row := range t.records {
		line := lineOf(i)

		id := t.value(row, ColAssetID)
		if id == "" {
			return nil, &ParseError{Line: line, Column: ColAssetID, Err: fmt.Errorf("empty asset id")}
		}
		if prev, dup := seen[id]; dup {
			return nil, &ParseError{Line: line, Column: ColAssetID, Err: fmt.Errorf("duplicate asset id %q (first on line %d)", id, prev)}
		}
		seen[id] = line

		typ, ok := models.ParseAssetType(t.value(row, ColType))
		if !ok {
			return nil, &ParseError{Line: line, Column: ColType, Err: fmt.Errorf("unknown asset type %q", t.value(row, ColType))}
		}

		a := models.Asset{AssetID: id, Type: typ}
		fields := []struct {
			col string
			dst *float64
		}{
			{ColLatitude, &a.Latitude},
			{ColLongitude, &a.Longitude},
			{ColCapacityKVA, &a.CapacityKVA},
			{ColAgeYears, &a.AgeYears},
			{ColCriticality, &a.Criticality},
		}
		for _, fld := range fields {
			v, err := parseFloat(t.value(row, fld.col))
			if err != nil {
				return nil, &ParseError{Line: line, Column: fld.col, Err: err}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ParseError{Line: line, Column: fld.col, Err: fmt.Errorf("non-finite value")}
			}
			*fld.dst = v
		}
		if a.Latitude < -90 || a.Latitude > 90 {
			return nil, &ParseError{Line: line, Column: ColLatitude, Err: fmt.Errorf("latitude %v out of range", a.Latitude)}
		}
		if a.Longitude < -180 || a.Longitude > 180 {
			return nil, &ParseError{Line: line, Column: ColLongitude, Err: fmt.Errorf("longitude %v out of range", a.Longitude)}
		}

		assets = append(assets, a)
	}

	return assets, nil
}
