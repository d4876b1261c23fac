package models

import (
	"time"

	"propertyinsight/server/internal/finance"
)

// Property is a residential listing with the details shown on its page.
// CouncilRates is quarterly; the Suburb* fields are the listing source's
// suburb statistics at the time of listing.
type Property struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	Source            string    `gorm:"index" json:"source"`
	Title             string    `json:"title"`
	ListingType       string    `json:"listing_type"`
	PropertyType      string    `gorm:"index" json:"property_type"`
	Price             float64   `json:"price"`
	Address           string    `json:"address"`
	Suburb            string    `gorm:"index" json:"suburb"`
	State             string    `json:"state"`
	Postcode          string    `json:"postcode"`
	Bedrooms          int       `json:"bedrooms"`
	Bathrooms         int       `json:"bathrooms"`
	CarSpaces         int       `json:"car_spaces"`
	LandSize          float64   `json:"land_size"`
	BuildingSize      float64   `json:"building_size"`
	YearBuilt         int       `json:"year_built"`
	Zoning            string    `json:"zoning"`
	CouncilRates      float64   `json:"council_rates"`
	Description       string    `json:"description"`
	Images            []string  `gorm:"serializer:json" json:"images"`
	Highlights        []string  `gorm:"serializer:json" json:"highlights"`
	InteriorFeatures  []string  `gorm:"serializer:json" json:"interior_features"`
	ExteriorFeatures  []string  `gorm:"serializer:json" json:"exterior_features"`
	Utilities         []string  `gorm:"serializer:json" json:"utilities"`
	AgentName         string    `json:"agent_name"`
	AgentPhone        string    `json:"agent_phone"`
	AgentEmail        string    `json:"agent_email"`
	RentalYield       float64   `json:"rental_yield"`
	GrowthPotential   float64   `json:"growth_potential"`
	SuburbMedianPrice float64   `json:"suburb_median_price"`
	SuburbGrowthRate  float64   `json:"suburb_growth_rate"`
	SuburbMedianRent  float64   `json:"suburb_median_rent"`
	SuburbRentalYield float64   `json:"suburb_rental_yield"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	Featured          bool      `gorm:"index" json:"featured"`
	GeocodeAttempted  bool      `json:"-"`
	ListedAt          time.Time `json:"listed_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Financials projects the listing onto the investment model's input.
func (p *Property) Financials() finance.PropertyFinancials {
	return finance.PropertyFinancials{
		Price:                  p.Price,
		RentalYieldPercent:     p.RentalYield,
		GrowthPotentialPercent: p.GrowthPotential,
		CouncilRatesPerQuarter: p.CouncilRates,
		LandSizeSquareMeters:   p.LandSize,
		SuburbMedianPrice:      p.SuburbMedianPrice,
	}
}

// HasCoordinates reports whether the listing can be placed on a map.
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Demographics of a suburb's residents. Occupancy figures are percentages.
type Demographics struct {
	MedianAge      float64 `json:"median_age"`
	HouseholdSize  float64 `json:"household_size"`
	OwnerOccupied  float64 `json:"owner_occupied"`
	RenterOccupied float64 `json:"renter_occupied"`
}

// AmenityCounts summarises the facilities in a suburb.
type AmenityCounts struct {
	Schools   int `json:"schools"`
	Parks     int `json:"parks"`
	Shops     int `json:"shops"`
	Transport int `json:"transport"`
	Hospitals int `json:"hospitals"`
}

type Suburb struct {
	ID              uint          `gorm:"primaryKey" json:"-"`
	Name            string        `gorm:"uniqueIndex" json:"name"`
	State           string        `json:"state"`
	Postcode        string        `gorm:"index" json:"postcode"`
	MedianPrice     float64       `json:"median_price"`
	GrowthRate      float64       `json:"growth_rate"`
	MedianRent      float64       `json:"median_rent"`
	RentalYield     float64       `json:"rental_yield"`
	Population      int           `json:"population"`
	Demographics    Demographics  `gorm:"embedded;embeddedPrefix:demo_" json:"demographics"`
	Amenities       AmenityCounts `gorm:"embedded;embeddedPrefix:amenity_" json:"amenities"`
	CrimeRate       float64       `json:"crime_rate"`
	LivabilityScore float64       `json:"livability_score"`
}

// LocationSuggestion is one entry of the search box autocomplete.
type LocationSuggestion struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Suburb      string `json:"suburb"`
}

// Amenity is a point of interest near listings in a suburb.
type Amenity struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	Suburb    string  `gorm:"index" json:"suburb"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Rating    float64 `json:"rating"`
}

// Risk levels used by RiskFactor.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// RiskFactor is one environmental or social hazard scored 0-100.
type RiskFactor struct {
	ID             uint   `gorm:"primaryKey" json:"-"`
	Suburb         string `gorm:"index" json:"suburb"`
	Type           string `json:"type"`
	Level          string `json:"level"`
	Score          int    `json:"score"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}
