package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propertyinsight/server/config"
	"propertyinsight/server/internal/database"
	"propertyinsight/server/internal/finance"
	"propertyinsight/server/internal/geometry"
	"propertyinsight/server/internal/models"
	"propertyinsight/server/internal/riskprofile"
	"propertyinsight/server/internal/scheduler"
	"propertyinsight/server/internal/suburbs"
)

const (
	defaultFeaturedLimit   = 6
	defaultSuggestionLimit = 10
)

// Refresher runs an on-demand listing refresh
type Refresher interface {
	RunNow(ctx context.Context) (*scheduler.RefreshResult, error)
}

type Handler struct {
	db        *database.Database
	logger    *logrus.Logger
	model     finance.Model
	suburbs   *suburbs.Service
	geocoder  database.Geocoder
	refresher Refresher
	now       func() time.Time
}

// AnalysisRequest is the body of an ad-hoc analysis. Mortgage overrides the
// configured loan terms when present.
type AnalysisRequest struct {
	Property finance.PropertyFinancials   `json:"property"`
	Mortgage *finance.MortgageAssumptions `json:"mortgage"`
}

type PropertyAnalysis struct {
	PropertyID string                     `json:"property_id,omitempty"`
	Financials finance.PropertyFinancials `json:"financials"`
	Summary    *finance.FinancialSummary  `json:"summary"`
}

func NewHandler(db *database.Database, model finance.Model, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:      db,
		logger:  logger,
		model:   model,
		suburbs: suburbs.NewService(db),
		now:     time.Now,
	}
}

// SetGeocoder enables coordinate backfill through the API
func (h *Handler) SetGeocoder(g database.Geocoder) {
	h.geocoder = g
}

// SetRefresher enables manual listing refreshes through the API
func (h *Handler) SetRefresher(r Refresher) {
	h.refresher = r
}

// respondError maps domain errors onto status codes. Unexpected errors are
// logged and reported with msg only.
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, finance.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, geometry.ErrNoCoordinates):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.db.GetDB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) SearchProperties(c *gin.Context) {
	var filters models.SearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search filters"})
		return
	}

	properties, err := h.db.SearchProperties(c.Request.Context(), &filters)
	if err != nil {
		h.respondError(c, err, "Failed to search properties")
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetFeaturedProperties(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultFeaturedLimit)
	if !ok || limit <= 0 {
		limit = defaultFeaturedLimit
	}

	properties, err := h.db.GetFeaturedProperties(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, "Failed to get featured properties")
		return
	}

	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.db.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	c.JSON(http.StatusOK, property)
}

// mortgageOverrides applies the deposit_ratio, interest_rate and term_years
// query parameters on top of the configured loan terms.
func (h *Handler) mortgageOverrides(c *gin.Context) (finance.MortgageAssumptions, bool) {
	m := h.model.Mortgage

	deposit, ok := queryFloat(c, "deposit_ratio")
	if !ok {
		return m, false
	}
	if deposit != nil {
		m.DepositRatio = *deposit
	}

	rate, ok := queryFloat(c, "interest_rate")
	if !ok {
		return m, false
	}
	if rate != nil {
		m.AnnualRatePercent = *rate
	}

	term, ok := queryInt(c, "term_years", m.TermYears)
	if !ok {
		return m, false
	}
	m.TermYears = term

	return m, true
}

func (h *Handler) GetPropertyAnalysis(c *gin.Context) {
	mortgage, ok := h.mortgageOverrides(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mortgage parameters"})
		return
	}
	if err := mortgage.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.db.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	financials := property.Financials()
	summary, err := h.model.WithMortgage(mortgage).Summarize(financials)
	if errors.Is(err, finance.ErrInvalidArgument) {
		// the request was fine, the stored listing cannot be analysed
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.respondError(c, err, "Failed to analyse property")
		return
	}

	c.JSON(http.StatusOK, PropertyAnalysis{
		PropertyID: property.ID,
		Financials: financials,
		Summary:    summary,
	})
}

func (h *Handler) AnalyzeProperty(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Debug("Invalid analysis request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	model := h.model
	if req.Mortgage != nil {
		model = model.WithMortgage(*req.Mortgage)
	}

	summary, err := model.Summarize(req.Property)
	if err != nil {
		h.respondError(c, err, "Failed to analyse property")
		return
	}

	c.JSON(http.StatusOK, PropertyAnalysis{
		Financials: req.Property,
		Summary:    summary,
	})
}

func (h *Handler) GetPropertyAmenities(c *gin.Context) {
	ctx := c.Request.Context()
	property, err := h.db.GetProperty(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	amenities, err := h.db.GetAmenities(ctx, property.Suburb)
	if err != nil {
		h.respondError(c, err, "Failed to get amenities")
		return
	}

	radius, ok := queryFloat(c, "radius")
	if !ok || (radius != nil && *radius <= 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a positive number of metres"})
		return
	}

	report, err := geometry.NearbyAmenities(property, amenities)
	if err != nil {
		h.respondError(c, err, "Failed to locate amenities")
		return
	}
	if radius != nil {
		report.Amenities = report.Within(*radius)
	}

	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, report.FeatureCollection())
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetPropertyRisk(c *gin.Context) {
	ctx := c.Request.Context()
	property, err := h.db.GetProperty(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	factors, err := h.db.GetRiskFactors(ctx, property.Suburb)
	if err != nil {
		h.respondError(c, err, "Failed to get risk factors")
		return
	}

	c.JSON(http.StatusOK, riskprofile.Assess(property.Suburb, factors))
}

func (h *Handler) ListSuburbs(c *gin.Context) {
	ctx := c.Request.Context()
	limit, ok := queryInt(c, "limit", 0)
	if !ok || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	var (
		result []models.Suburb
		err    error
	)
	switch c.Query("sort") {
	case "":
		result, err = h.suburbs.List(ctx)
	case "growth":
		result, err = h.suburbs.TopGrowth(ctx, limit)
	case "yield":
		result, err = h.suburbs.TopRentalYield(ctx, limit)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be growth or yield"})
		return
	}
	if err != nil {
		h.respondError(c, err, "Failed to list suburbs")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetSuburb(c *gin.Context) {
	suburb, err := h.suburbs.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err, "Failed to get suburb")
		return
	}

	c.JSON(http.StatusOK, suburb)
}

func (h *Handler) GetSuburbPriceHistory(c *gin.Context) {
	years, ok := queryInt(c, "years", suburbs.DefaultHistoryYears)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid years"})
		return
	}

	history, err := h.suburbs.PriceHistory(c.Request.Context(), c.Param("name"), years, h.now())
	if err != nil {
		h.respondError(c, err, "Failed to get price history")
		return
	}

	c.JSON(http.StatusOK, history)
}

// ListLocations returns the suburbs the map can centre on.
func (h *Handler) ListLocations(c *gin.Context) {
	c.JSON(http.StatusOK, config.SupportedSuburbs)
}

func (h *Handler) SuggestLocations(c *gin.Context) {
	suggestions, err := h.db.SuggestLocations(c.Request.Context(), c.Query("q"), defaultSuggestionLimit)
	if err != nil {
		h.respondError(c, err, "Failed to suggest locations")
		return
	}

	c.JSON(http.StatusOK, suggestions)
}

func (h *Handler) RefreshListings(c *gin.Context) {
	if h.refresher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Listing refresh is not configured"})
		return
	}

	result, err := h.refresher.RunNow(c.Request.Context())
	if errors.Is(err, scheduler.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.respondError(c, err, "Failed to refresh listings")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdateCoordinates(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is disabled"})
		return
	}

	stats, err := h.db.UpdateMissingCoordinates(c.Request.Context(), h.geocoder)
	if err != nil {
		h.respondError(c, err, "Failed to update coordinates")
		return
	}

	c.JSON(http.StatusOK, stats)
}
