// Package mockdata holds the sample catalogue the database is seeded with on
// first start, so the site has listings before any refresh has run.
package mockdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"propertyinsight/server/internal/models"
)

//go:embed seed.json
var seedJSON []byte

type Catalog struct {
	Properties  []models.Property   `json:"properties"`
	Suburbs     []models.Suburb     `json:"suburbs"`
	Amenities   []models.Amenity    `json:"amenities"`
	RiskFactors []models.RiskFactor `json:"risk_factors"`
}

var (
	catalog     *Catalog
	catalogErr  error
	catalogOnce sync.Once
)

// Load parses the embedded catalogue once and returns a fresh copy on every
// call, so callers may modify what they get back.
func Load() (*Catalog, error) {
	catalogOnce.Do(func() {
		var c Catalog
		if err := json.Unmarshal(seedJSON, &c); err != nil {
			catalogErr = fmt.Errorf("failed to parse seed catalog: %w", err)
			return
		}
		catalog = &c
	})
	if catalogErr != nil {
		return nil, catalogErr
	}
	return catalog.clone(), nil
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		Properties:  make([]models.Property, len(c.Properties)),
		Suburbs:     append([]models.Suburb(nil), c.Suburbs...),
		Amenities:   append([]models.Amenity(nil), c.Amenities...),
		RiskFactors: append([]models.RiskFactor(nil), c.RiskFactors...),
	}
	for i, p := range c.Properties {
		p.Images = append([]string(nil), p.Images...)
		p.Highlights = append([]string(nil), p.Highlights...)
		p.InteriorFeatures = append([]string(nil), p.InteriorFeatures...)
		p.ExteriorFeatures = append([]string(nil), p.ExteriorFeatures...)
		p.Utilities = append([]string(nil), p.Utilities...)
		if p.Latitude != nil {
			lat := *p.Latitude
			p.Latitude = &lat
		}
		if p.Longitude != nil {
			lon := *p.Longitude
			p.Longitude = &lon
		}
		out.Properties[i] = p
	}
	return out
}
