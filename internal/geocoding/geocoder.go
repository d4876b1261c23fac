package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"propertyinsight/server/internal/cache"
)

// ErrNoResults is returned when Nominatim knows no location for an address.
var ErrNoResults = errors.New("no geocoding results")

type Options struct {
	BaseURL   string
	UserAgent string
	Country   string
	CacheTTL  time.Duration
	// Nominatim's usage policy allows one request per second
	RequestsPerSecond float64
}

type Geocoder struct {
	logger  *logrus.Logger
	cache   cache.Store
	client  *retryablehttp.Client
	limiter *rate.Limiter
	opts    Options
}

func NewGeocoder(logger *logrus.Logger, store cache.Store, client *retryablehttp.Client, opts Options) *Geocoder {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Geocoder{
		logger:  logger,
		cache:   store,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		opts:    opts,
	}
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func cacheKey(address string) string {
	return "geocode:" + strings.ToLower(address)
}

func formatAddress(street, suburb, state, postcode string) string {
	parts := []string{}
	if street = strings.TrimSpace(street); street != "" {
		parts = append(parts, street)
	}
	locality := strings.TrimSpace(strings.Join([]string{suburb, state, postcode}, " "))
	if locality != "" {
		parts = append(parts, strings.Join(strings.Fields(locality), " "))
	}
	parts = append(parts, "Australia")
	return strings.Join(parts, ", ")
}

// GeocodeAddress resolves an Australian street address. Results are cached.
func (g *Geocoder) GeocodeAddress(ctx context.Context, street, suburb, state, postcode string) (float64, float64, error) {
	fullAddress := formatAddress(street, suburb, state, postcode)
	key := cacheKey(fullAddress)

	if cached, ok, err := g.cache.Get(ctx, key); err != nil {
		g.logger.WithError(err).Warn("Geocode cache lookup failed")
	} else if ok {
		lat, lon, err := parseCoordinates(cached)
		if err == nil {
			g.logger.WithFields(logrus.Fields{
				"address":   fullAddress,
				"latitude":  lat,
				"longitude": lon,
				"source":    "cache",
			}).Debug("Found coordinates in cache")
			return lat, lon, nil
		}
		g.logger.WithError(err).WithField("address", fullAddress).Warn("Ignoring invalid cached coordinates")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}

	g.logger.WithField("address", fullAddress).Info("Geocoding address with Nominatim")

	params := url.Values{
		"q":      []string{fullAddress},
		"format": []string{"json"},
		"limit":  []string{"1"},
	}
	if g.opts.Country != "" {
		params.Set("countrycodes", g.opts.Country)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.opts.UserAgent)
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).WithField("address", fullAddress).Error("Geocoding request failed")
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read response: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		g.logger.WithError(err).WithField("address", fullAddress).Error("Failed to parse response")
		return 0, 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		g.logger.WithField("address", fullAddress).Warn("No results found")
		return 0, 0, fmt.Errorf("%w for address: %s", ErrNoResults, fullAddress)
	}

	lat, lon, err := parseCoordinates(result[0].Lat + "," + result[0].Lon)
	if err != nil {
		return 0, 0, err
	}

	g.logger.WithFields(logrus.Fields{
		"address":   fullAddress,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")

	if err := g.cache.Set(ctx, key, formatCoordinates(lat, lon), g.opts.CacheTTL); err != nil {
		g.logger.WithError(err).Warn("Failed to cache coordinates")
	}

	return lat, lon, nil
}

func formatCoordinates(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func parseCoordinates(s string) (float64, float64, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("malformed coordinates %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed latitude %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed longitude %q: %w", lonStr, err)
	}
	return lat, lon, nil
}
