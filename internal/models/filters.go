package models

import "strings"

// SearchFilters narrows a listing search. Nil pointers and empty strings mean
// "any".
type SearchFilters struct {
	Suburb       string   `form:"suburb" json:"suburb"`
	PropertyType string   `form:"property_type" json:"property_type"`
	MinPrice     *float64 `form:"min_price" json:"min_price"`
	MaxPrice     *float64 `form:"max_price" json:"max_price"`
	MinBedrooms  *int     `form:"min_bedrooms" json:"min_bedrooms"`
}

// Matches checks if a property matches the filter criteria
func (f *SearchFilters) Matches(property *Property) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if f.Suburb != "" && !strings.EqualFold(f.Suburb, property.Suburb) {
		return false
	}
	if f.PropertyType != "" && !strings.EqualFold(f.PropertyType, property.PropertyType) {
		return false
	}

	// Check price range
	if f.MinPrice != nil && property.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && property.Price > *f.MaxPrice {
		return false
	}

	if f.MinBedrooms != nil && property.Bedrooms < *f.MinBedrooms {
		return false
	}

	return true
}

// Filter returns the properties that match, preserving order
func (f *SearchFilters) Filter(properties []*Property) []*Property {
	matched := make([]*Property, 0, len(properties))
	for _, p := range properties {
		if f.Matches(p) {
			matched = append(matched, p)
		}
	}
	return matched
}
