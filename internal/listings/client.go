// Package listings pulls residential sale listings from the Domain listing
// API so the catalogue stays current.
package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"propertyinsight/server/config"
	"propertyinsight/server/internal/models"
)

// ErrNotConfigured is returned when no API key has been set.
var ErrNotConfigured = errors.New("listing API is not configured")

// Source tags listings ingested through this client.
const Source = "domain"

type Options struct {
	BaseURL  string
	APIKey   string
	State    string
	PageSize int
}

type Client struct {
	logger *logrus.Logger
	http   *retryablehttp.Client
	opts   Options
}

func NewClient(logger *logrus.Logger, httpClient *retryablehttp.Client, opts Options) *Client {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{logger: logger, http: httpClient, opts: opts}
}

func (c *Client) Configured() bool {
	return c.opts.APIKey != ""
}

type searchLocation struct {
	State                     string `json:"state"`
	Suburb                    string `json:"suburb"`
	PostCode                  string `json:"postCode,omitempty"`
	IncludeSurroundingSuburbs bool   `json:"includeSurroundingSuburbs"`
}

type priceRange struct {
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
}

type searchRequest struct {
	ListingType   string           `json:"listingType"`
	PropertyTypes []string         `json:"propertyTypes,omitempty"`
	MinBedrooms   *int             `json:"minBedrooms,omitempty"`
	Locations     []searchLocation `json:"locations"`
	PriceRange    *priceRange      `json:"price,omitempty"`
	PageSize      int              `json:"pageSize"`
	Sort          struct {
		SortKey   string `json:"sortKey"`
		Direction string `json:"direction"`
	} `json:"sort"`
}

type searchResult struct {
	Type    string   `json:"type"`
	Listing *listing `json:"listing"`
}

type listing struct {
	ID           int64  `json:"id"`
	ListingType  string `json:"listingType"`
	Headline     string `json:"headline"`
	Description  string `json:"summaryDescription"`
	DateListed   string `json:"dateListed"`
	PriceDetails struct {
		Price        float64 `json:"price"`
		DisplayPrice string  `json:"displayPrice"`
	} `json:"priceDetails"`
	PropertyDetails struct {
		State              string   `json:"state"`
		PropertyType       string   `json:"propertyType"`
		Features           []string `json:"features"`
		Bathrooms          float64  `json:"bathrooms"`
		Bedrooms           float64  `json:"bedrooms"`
		CarSpaces          int      `json:"carspaces"`
		DisplayableAddress string   `json:"displayableAddress"`
		Suburb             string   `json:"suburb"`
		Postcode           string   `json:"postcode"`
		Latitude           float64  `json:"latitude"`
		Longitude          float64  `json:"longitude"`
		LandArea           float64  `json:"landArea"`
		BuildingArea       float64  `json:"buildingArea"`
	} `json:"propertyDetails"`
	Media []struct {
		Category string `json:"category"`
		URL      string `json:"url"`
	} `json:"media"`
	Advertiser struct {
		Name     string `json:"name"`
		Contacts []struct {
			Name string `json:"name"`
		} `json:"contacts"`
	} `json:"advertiser"`
}

// Search fetches sale listings for one suburb. Listings without a usable
// price are dropped, and filters are applied to the mapped result as well
// because the API treats some of them as hints.
func (c *Client) Search(ctx context.Context, suburb string, filters *models.SearchFilters) ([]*models.Property, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	location := searchLocation{State: c.opts.State, Suburb: suburb}
	if known := config.GetSuburbByName(suburb); known != nil {
		location.State = known.State
		location.PostCode = known.Postcode
	}

	body := searchRequest{
		ListingType: "Sale",
		Locations:   []searchLocation{location},
		PageSize:    c.opts.PageSize,
	}
	body.Sort.SortKey = "DateListed"
	body.Sort.Direction = "Descending"
	if filters != nil {
		if filters.PropertyType != "" {
			body.PropertyTypes = []string{filters.PropertyType}
		}
		if filters.MinPrice != nil || filters.MaxPrice != nil {
			body.PriceRange = &priceRange{Minimum: filters.MinPrice, Maximum: filters.MaxPrice}
		}
		body.MinBedrooms = filters.MinBedrooms
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/listings/residential/_search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.opts.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing search failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read listing response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("listing API error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var results []searchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse listing response: %w", err)
	}

	properties := make([]*models.Property, 0, len(results))
	skipped := 0
	for _, r := range results {
		if r.Listing == nil {
			continue
		}
		p := r.Listing.toProperty()
		if p.Price <= 0 {
			skipped++
			continue
		}
		properties = append(properties, p)
	}

	properties = filters.Filter(properties)

	c.logger.WithFields(logrus.Fields{
		"suburb":   suburb,
		"results":  len(results),
		"mapped":   len(properties),
		"no_price": skipped,
	}).Info("Fetched listings")

	return properties, nil
}

var propertyTypes = map[string]string{
	"house":             "House",
	"townhouse":         "Townhouse",
	"villa":             "Villa",
	"semidetached":      "House",
	"terrace":           "House",
	"duplex":            "House",
	"apartmentunitflat": "Apartment",
	"apartment":         "Apartment",
	"unit":              "Apartment",
	"studio":            "Apartment",
	"penthouse":         "Apartment",
	"vacantland":        "Land",
}

func normalizePropertyType(t string) string {
	if mapped, ok := propertyTypes[strings.ToLower(t)]; ok {
		return mapped
	}
	return t
}

// parseDisplayPrice pulls the first dollar figure out of strings such as
// "$850,000" or "Offers above $1.2m".
func parseDisplayPrice(s string) float64 {
	i := strings.IndexByte(s, '$')
	if i < 0 {
		return 0
	}
	s = s[i+1:]

	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == ',' || s[end] == '.') {
		end++
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", ""), 64)
	if err != nil {
		return 0
	}

	switch rest := strings.ToLower(strings.TrimSpace(s[end:])); {
	case strings.HasPrefix(rest, "m"):
		v *= 1e6
	case strings.HasPrefix(rest, "k"):
		v *= 1e3
	}
	return v
}

func (l *listing) toProperty() *models.Property {
	d := l.PropertyDetails
	p := &models.Property{
		ID:               Source + "-" + strconv.FormatInt(l.ID, 10),
		Source:           Source,
		Title:            l.Headline,
		ListingType:      l.ListingType,
		PropertyType:     normalizePropertyType(d.PropertyType),
		Price:            l.PriceDetails.Price,
		Address:          d.DisplayableAddress,
		Suburb:           d.Suburb,
		State:            d.State,
		Postcode:         d.Postcode,
		Bedrooms:         int(d.Bedrooms),
		Bathrooms:        int(d.Bathrooms),
		CarSpaces:        d.CarSpaces,
		LandSize:         d.LandArea,
		BuildingSize:     d.BuildingArea,
		Description:      l.Description,
		Images:           []string{},
		Highlights:       []string{},
		InteriorFeatures: []string{},
		ExteriorFeatures: d.Features,
		Utilities:        []string{},
	}
	if p.Price == 0 {
		p.Price = parseDisplayPrice(l.PriceDetails.DisplayPrice)
	}
	if p.ExteriorFeatures == nil {
		p.ExteriorFeatures = []string{}
	}
	if p.Title == "" {
		p.Title = d.DisplayableAddress
	}
	for _, m := range l.Media {
		if m.Category == "" || strings.EqualFold(m.Category, "image") {
			p.Images = append(p.Images, m.URL)
		}
	}
	if len(l.Advertiser.Contacts) > 0 {
		p.AgentName = l.Advertiser.Contacts[0].Name
	} else {
		p.AgentName = l.Advertiser.Name
	}
	if d.Latitude != 0 || d.Longitude != 0 {
		lat, lon := d.Latitude, d.Longitude
		p.Latitude, p.Longitude = &lat, &lon
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, l.DateListed); err == nil {
			p.ListedAt = t
			break
		}
	}
	return p
}
