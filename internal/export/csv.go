// Package export writes scored asset tables as CSV and reads them back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mr1hm/climate-vuln/internal/models"
)

// Filename is the attachment name used for downloads.
const Filename = "climate_infra_risk_data.csv"

type Column struct {
	Name  string
	value func(a *models.ScoredAsset) string
	set   func(a *models.ScoredAsset, raw string) error
}

func floatColumn(name string, field func(a *models.ScoredAsset) *float64) Column {
	return Column{
		Name:  name,
		value: func(a *models.ScoredAsset) string { return formatFloat(*field(a)) },
		set: func(a *models.ScoredAsset, raw string) error {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			*field(a) = v
			return nil
		},
	}
}

func hazardColumn(h models.Hazard) Column {
	return Column{
		Name: string(h),
		value: func(a *models.ScoredAsset) string {
			if v, ok := a.Hazards.Get(h); ok {
				return formatFloat(v)
			}
			return ""
		},
		set: func(a *models.ScoredAsset, raw string) error {
			if raw == "" {
				return nil
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			if a.Hazards == nil {
				a.Hazards = make(models.HazardIndices)
			}
			a.Hazards[h] = v
			return nil
		},
	}
}

var (
	colAssetID = Column{
		Name:  "asset_id",
		value: func(a *models.ScoredAsset) string { return a.AssetID },
		set:   func(a *models.ScoredAsset, raw string) error { a.AssetID = raw; return nil },
	}
	colType = Column{
		Name:  "type",
		value: func(a *models.ScoredAsset) string { return string(a.Type) },
		set: func(a *models.ScoredAsset, raw string) error {
			t, ok := models.ParseAssetType(raw)
			if !ok {
				return fmt.Errorf("unknown asset type %q", raw)
			}
			a.Type = t
			return nil
		},
	}
)

// TableColumns is the column set of the table view.
var TableColumns = []Column{
	colAssetID,
	colType,
	floatColumn("latitude", func(a *models.ScoredAsset) *float64 { return &a.Latitude }),
	floatColumn("longitude", func(a *models.ScoredAsset) *float64 { return &a.Longitude }),
	floatColumn("capacity_kVA", func(a *models.ScoredAsset) *float64 { return &a.CapacityKVA }),
	floatColumn("age_years", func(a *models.ScoredAsset) *float64 { return &a.AgeYears }),
	floatColumn("criticality", func(a *models.ScoredAsset) *float64 { return &a.Criticality }),
	floatColumn("exposure", func(a *models.ScoredAsset) *float64 { return &a.Exposure }),
	floatColumn("sensitivity", func(a *models.ScoredAsset) *float64 { return &a.Sensitivity }),
	floatColumn("criticality_norm", func(a *models.ScoredAsset) *float64 { return &a.CriticalityNorm }),
	floatColumn("vulnerability_score", func(a *models.ScoredAsset) *float64 { return &a.VulnerabilityScore }),
	floatColumn("multi_hazard_index", func(a *models.ScoredAsset) *float64 { return &a.MultiHazardIndex }),
}

// MapColumns adds the per-hazard indices to the table columns.
var MapColumns = func() []Column {
	cols := append([]Column{}, TableColumns...)
	for _, h := range models.Hazards() {
		cols = append(cols, hazardColumn(h))
	}
	return cols
}()

var columnsByName = func() map[string]Column {
	m := make(map[string]Column, len(MapColumns))
	for _, c := range MapColumns {
		m[c.Name] = c
	}
	return m
}()

// ColumnNames returns the header names of cols.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// WriteCSV writes a header and one row per asset. Floats use the shortest
// representation that parses back to the same value.
func WriteCSV(w io.Writer, cols []Column, rows []models.ScoredAsset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ColumnNames(cols)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(cols))
	for i := range rows {
		for j, c := range cols {
			record[j] = c.value(&rows[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses an export. Unknown columns are ignored.
func ReadCSV(r io.Reader) ([]models.ScoredAsset, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		if c, ok := columnsByName[strings.TrimSpace(name)]; ok {
			cols[i] = &c
		}
	}

	var out []models.ScoredAsset
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		var a models.ScoredAsset
		for i, raw := range record {
			if cols[i] == nil {
				continue
			}
			if err := cols[i].set(&a, raw); err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, cols[i].Name, err)
			}
		}
		out = append(out, a)
	}

	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
