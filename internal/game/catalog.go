package game

import (
	"sort"
	"strings"

	"github.com/user/climate-farm/internal/types"
)

// DefaultCatalog returns the reference crop table
func DefaultCatalog() map[types.CropType]CropCharacteristics {
	return map[types.CropType]CropCharacteristics{
		types.Wheat: {
			Name:                      "Wheat",
			EnvironmentalContribution: 5,
			Resistance:                Resistance{Arid: 0.4, Cold: 0.7, Heat: 0.4, Humidity: 0.5},
			GrowthSpeed:               3,
			BaseValue:                 150,
		},
		types.Corn: {
			Name:                      "Corn",
			EnvironmentalContribution: 6,
			Resistance:                Resistance{Arid: 0.3, Cold: 0.3, Heat: 0.6, Humidity: 0.5},
			GrowthSpeed:               2,
			BaseValue:                 200,
		},
		types.Soybean: {
			Name:                      "Soybean",
			EnvironmentalContribution: 7,
			Resistance:                Resistance{Arid: 0.4, Cold: 0.4, Heat: 0.5, Humidity: 0.5},
			GrowthSpeed:               2,
			BaseValue:                 180,
		},
		types.Rice: {
			Name:                      "Rice",
			EnvironmentalContribution: 6,
			Resistance:                Resistance{Arid: 0.1, Cold: 0.3, Heat: 0.6, Humidity: 0.9},
			GrowthSpeed:               2,
			BaseValue:                 220,
		},
		types.Tomato: {
			Name:                      "Tomato",
			EnvironmentalContribution: 4,
			Resistance:                Resistance{Arid: 0.3, Cold: 0.2, Heat: 0.5, Humidity: 0.4},
			GrowthSpeed:               3,
			BaseValue:                 250,
		},
		types.Potato: {
			Name:                      "Potato",
			EnvironmentalContribution: 5,
			Resistance:                Resistance{Arid: 0.3, Cold: 0.8, Heat: 0.3, Humidity: 0.5},
			GrowthSpeed:               2,
			BaseValue:                 170,
		},
		types.Cactus: {
			Name:                      "Cactus",
			EnvironmentalContribution: 8,
			Resistance:                Resistance{Arid: 0.95, Cold: 0.2, Heat: 0.95, Humidity: 0.1},
			GrowthSpeed:               1,
			BaseValue:                 300,
		},
		types.Palm: {
			Name:                      "Palm",
			EnvironmentalContribution: 9,
			Resistance:                Resistance{Arid: 0.6, Cold: 0.1, Heat: 0.8, Humidity: 0.9},
			GrowthSpeed:               1,
			BaseValue:                 400,
		},
		types.Bamboo: {
			Name:                      "Bamboo",
			EnvironmentalContribution: 10,
			Resistance:                Resistance{Arid: 0.3, Cold: 0.5, Heat: 0.6, Humidity: 0.8},
			GrowthSpeed:               3,
			BaseValue:                 350,
		},
	}
}

// Characteristics looks up a crop type. Types missing from the table
// (e.g. from an old save) get a zero entry so the engine stays total.
func (r Rules) Characteristics(t types.CropType) CropCharacteristics {
	if c, ok := r.Crops[t]; ok {
		return c
	}
	return CropCharacteristics{Name: string(t), GrowthSpeed: 1}
}

// ParseCropType validates a crop name coming from a client
func (r Rules) ParseCropType(name string) (types.CropType, bool) {
	t := types.CropType(strings.ToLower(strings.TrimSpace(name)))
	_, ok := r.Crops[t]
	return t, ok
}

// CatalogEntry is the public view of one crop
type CatalogEntry struct {
	Type types.CropType `json:"type"`
	CropCharacteristics
}

// Catalog lists the table in display order, extra types last
func (r Rules) Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(r.Crops))
	seen := make(map[types.CropType]bool, len(r.Crops))
	for _, t := range types.AllCropTypes {
		if c, ok := r.Crops[t]; ok {
			entries = append(entries, CatalogEntry{Type: t, CropCharacteristics: c})
			seen[t] = true
		}
	}
	extra := make([]types.CropType, 0)
	for t := range r.Crops {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, t := range extra {
		entries = append(entries, CatalogEntry{Type: t, CropCharacteristics: r.Crops[t]})
	}
	return entries
}
