package models

import "strings"

type AssetType string

const (
	AssetTypeTransformer AssetType = "transformer"
	AssetTypeSubstation  AssetType = "substation"
	AssetTypeBuilding    AssetType = "building"
)

var assetTypes = []AssetType{AssetTypeTransformer, AssetTypeSubstation, AssetTypeBuilding}

// AssetTypes returns the known asset types in display order.
func AssetTypes() []AssetType {
	out := make([]AssetType, len(assetTypes))
	copy(out, assetTypes)
	return out
}

// ParseAssetType matches s case-insensitively against the known asset types.
func ParseAssetType(s string) (AssetType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range assetTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type Asset struct {
	AssetID     string
	Type        AssetType
	Latitude    float64
	Longitude   float64
	CapacityKVA float64
	AgeYears    float64
	Criticality float64
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (a *Asset) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
	}
}
