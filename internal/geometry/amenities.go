// Package geometry places a listing among the points of interest around it.
package geometry

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"propertyinsight/server/internal/models"
)

// ErrNoCoordinates is returned for listings that have not been geocoded yet.
var ErrNoCoordinates = errors.New("property has no coordinates")

// Average walking pace in metres per minute.
const walkingSpeed = 80.0

const propertyColor = "#1A1A1A"

var markerColors = map[string]string{
	"school":     "#4285F4",
	"park":       "#34A853",
	"shopping":   "#FBBC05",
	"transport":  "#EA4335",
	"restaurant": "#8E44AD",
	"hospital":   "#E74C3C",
}

// MarkerColor returns the map marker colour for an amenity type.
func MarkerColor(amenityType string) string {
	if c, ok := markerColors[strings.ToLower(amenityType)]; ok {
		return c
	}
	return "#7F8C8D"
}

type NearbyAmenity struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Rating         float64 `json:"rating"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DistanceMeters float64 `json:"distance_meters"`
	WalkingMinutes int     `json:"walking_minutes"`
	Color          string  `json:"color"`
}

type AmenityReport struct {
	PropertyID string          `json:"property_id"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Amenities  []NearbyAmenity `json:"amenities"`
	Counts     map[string]int  `json:"counts"`
}

// NearbyAmenities ranks the amenities by distance from the property, nearest
// first. Ties keep their input order.
func NearbyAmenities(p *models.Property, amenities []models.Amenity) (*AmenityReport, error) {
	if p == nil || !p.HasCoordinates() {
		return nil, ErrNoCoordinates
	}

	origin := orb.Point{*p.Longitude, *p.Latitude}
	report := &AmenityReport{
		PropertyID: p.ID,
		Latitude:   *p.Latitude,
		Longitude:  *p.Longitude,
		Amenities:  make([]NearbyAmenity, 0, len(amenities)),
		Counts:     make(map[string]int),
	}

	for _, a := range amenities {
		meters := math.Round(geo.Distance(origin, orb.Point{a.Longitude, a.Latitude}))
		report.Amenities = append(report.Amenities, NearbyAmenity{
			Name:           a.Name,
			Type:           a.Type,
			Rating:         a.Rating,
			Latitude:       a.Latitude,
			Longitude:      a.Longitude,
			DistanceMeters: meters,
			WalkingMinutes: int(math.Ceil(meters / walkingSpeed)),
			Color:          MarkerColor(a.Type),
		})
		report.Counts[strings.ToLower(a.Type)]++
	}

	sort.SliceStable(report.Amenities, func(i, j int) bool {
		return report.Amenities[i].DistanceMeters < report.Amenities[j].DistanceMeters
	})

	return report, nil
}

// Within returns the amenities no further than maxMeters away.
func (r *AmenityReport) Within(maxMeters float64) []NearbyAmenity {
	out := []NearbyAmenity{}
	for _, a := range r.Amenities {
		if a.DistanceMeters <= maxMeters {
			out = append(out, a)
		}
	}
	return out
}

// FeatureCollection renders the report for the map: the property marker
// first, then one point per amenity.
func (r *AmenityReport) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	home := geojson.NewFeature(orb.Point{r.Longitude, r.Latitude})
	home.Properties = geojson.Properties{
		"kind":        "property",
		"property_id": r.PropertyID,
		"color":       propertyColor,
	}
	fc.Append(home)

	for _, a := range r.Amenities {
		f := geojson.NewFeature(orb.Point{a.Longitude, a.Latitude})
		f.Properties = geojson.Properties{
			"kind":            "amenity",
			"name":            a.Name,
			"type":            a.Type,
			"rating":          a.Rating,
			"distance_meters": a.DistanceMeters,
			"walking_minutes": a.WalkingMinutes,
			"color":           a.Color,
		}
		fc.Append(f)
	}

	return fc
}
