package config

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Suburb represents a suburb the listing refresh and map views know about
type Suburb struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Postcode  string    `json:"postcode"`
	Center    []float64 `json:"center"`
	ZoomLevel int       `json:"zoom_level"`
}

// SupportedSuburbs is a list of suburbs supported by the application
var SupportedSuburbs = []Suburb{
	{
		Name:      "Parramatta",
		State:     "NSW",
		Postcode:  "2150",
		Center:    []float64{-33.8136, 151.0034},
		ZoomLevel: 14,
	},
	{
		Name:      "Chatswood",
		State:     "NSW",
		Postcode:  "2067",
		Center:    []float64{-33.7987, 151.1802},
		ZoomLevel: 14,
	},
	{
		Name:      "Blacktown",
		State:     "NSW",
		Postcode:  "2148",
		Center:    []float64{-33.7710, 150.9063},
		ZoomLevel: 13,
	},
	{
		Name:      "Liverpool",
		State:     "NSW",
		Postcode:  "2170",
		Center:    []float64{-33.9200, 150.9238},
		ZoomLevel: 13,
	},
}

// NormalizeSuburb trims whitespace and title-cases each word, so
// "north  PARRAMATTA " becomes "North Parramatta"
func NormalizeSuburb(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		w = strings.ToLower(w)
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// GetSuburbNames returns a list of supported suburb names
func GetSuburbNames() []string {
	names := make([]string, len(SupportedSuburbs))
	for i, suburb := range SupportedSuburbs {
		names[i] = suburb.Name
	}
	return names
}

// GetSuburbByName returns a suburb configuration by name, ignoring case
func GetSuburbByName(name string) *Suburb {
	normalized := NormalizeSuburb(name)
	for i := range SupportedSuburbs {
		if SupportedSuburbs[i].Name == normalized {
			suburb := SupportedSuburbs[i]
			return &suburb
		}
	}
	return nil
}
