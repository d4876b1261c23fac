package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"propertyinsight/server/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

type Database struct {
	db *gorm.DB
}

// NewDatabase opens (and creates if needed) the sqlite file at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{db: db}, nil
}

// NewTestDB opens a private in-memory database. Each call gets its own schema.
func NewTestDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// A single connection keeps the shared-cache database alive and avoids
	// table lock errors between pooled connections.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Wrap exposes an existing gorm handle through the Database API.
func Wrap(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) SearchProperties(ctx context.Context, filters *models.SearchFilters) ([]models.Property, error) {
	query := d.db.WithContext(ctx).Model(&models.Property{})
	if filters != nil {
		if filters.Suburb != "" {
			query = query.Where("LOWER(suburb) = LOWER(?)", filters.Suburb)
		}
		if filters.PropertyType != "" {
			query = query.Where("LOWER(property_type) = LOWER(?)", filters.PropertyType)
		}
		if filters.MinPrice != nil {
			query = query.Where("price >= ?", *filters.MinPrice)
		}
		if filters.MaxPrice != nil {
			query = query.Where("price <= ?", *filters.MaxPrice)
		}
		if filters.MinBedrooms != nil {
			query = query.Where("bedrooms >= ?", *filters.MinBedrooms)
		}
	}

	var properties []models.Property
	if err := query.Order("featured DESC").Order("id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	return properties, nil
}

func (d *Database) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	err := d.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property %s: %w", id, err)
	}
	return &p, nil
}

func (d *Database) GetFeaturedProperties(ctx context.Context, limit int) ([]models.Property, error) {
	var properties []models.Property
	err := d.db.WithContext(ctx).
		Where("featured = ?", true).
		Order("id").
		Limit(limit).
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get featured properties: %w", err)
	}
	return properties, nil
}

// listingColumns are the columns a listing source owns. Featured, created_at
// and the geocoding state belong to this server and survive a refresh.
var listingColumns = []string{
	"source", "title", "listing_type", "property_type", "price",
	"address", "suburb", "state", "postcode",
	"bedrooms", "bathrooms", "car_spaces", "land_size", "building_size",
	"year_built", "zoning", "council_rates", "description",
	"images", "highlights", "interior_features", "exterior_features", "utilities",
	"agent_name", "agent_phone", "agent_email",
	"rental_yield", "growth_potential",
	"suburb_median_price", "suburb_growth_rate", "suburb_median_rent", "suburb_rental_yield",
	"listed_at", "updated_at",
}

// UpsertProperties inserts the batch and refreshes the listing columns of
// rows that already exist. Stored coordinates are only replaced by incoming
// ones. It is meant to run inside a transaction.
func UpsertProperties(tx *gorm.DB, batch []*models.Property) error {
	if len(batch) == 0 {
		return nil
	}

	updates := clause.AssignmentColumns(listingColumns)
	updates = append(updates, clause.Assignments(map[string]interface{}{
		"latitude":  gorm.Expr("COALESCE(excluded.latitude, properties.latitude)"),
		"longitude": gorm.Expr("COALESCE(excluded.longitude, properties.longitude)"),
	})...)

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: updates,
	}).Create(batch).Error
}

// EnrichProperties fills the suburb statistics a listing source did not
// supply from the stored suburb record. Listings without a yield or growth
// estimate inherit the suburb's.
func EnrichProperties(tx *gorm.DB, batch []*models.Property) error {
	suburbs := make(map[string]*models.Suburb)
	for _, p := range batch {
		key := strings.ToLower(p.Suburb)
		suburb, seen := suburbs[key]
		if !seen {
			var s models.Suburb
			err := tx.Where("LOWER(name) = ?", key).First(&s).Error
			switch {
			case err == nil:
				suburb = &s
			case errors.Is(err, gorm.ErrRecordNotFound):
				suburb = nil
			default:
				return fmt.Errorf("failed to load suburb %s: %w", p.Suburb, err)
			}
			suburbs[key] = suburb
		}
		if suburb == nil {
			continue
		}

		if p.SuburbMedianPrice == 0 {
			p.SuburbMedianPrice = suburb.MedianPrice
		}
		if p.SuburbGrowthRate == 0 {
			p.SuburbGrowthRate = suburb.GrowthRate
		}
		if p.SuburbMedianRent == 0 {
			p.SuburbMedianRent = suburb.MedianRent
		}
		if p.SuburbRentalYield == 0 {
			p.SuburbRentalYield = suburb.RentalYield
		}
		if p.RentalYield == 0 {
			p.RentalYield = suburb.RentalYield
		}
		if p.GrowthPotential == 0 {
			p.GrowthPotential = suburb.GrowthRate
		}
	}
	return nil
}

func (d *Database) GetSuburb(ctx context.Context, name string) (*models.Suburb, error) {
	var s models.Suburb
	err := d.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("suburb %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suburb %s: %w", name, err)
	}
	return &s, nil
}

// SuburbOrder selects how ListSuburbs ranks its result.
type SuburbOrder string

const (
	OrderByName        SuburbOrder = "name"
	OrderByGrowth      SuburbOrder = "growth"
	OrderByRentalYield SuburbOrder = "yield"
)

func (o SuburbOrder) clause() (string, error) {
	switch o {
	case OrderByName, "":
		return "name ASC", nil
	case OrderByGrowth:
		return "growth_rate DESC, name ASC", nil
	case OrderByRentalYield:
		return "rental_yield DESC, name ASC", nil
	default:
		return "", fmt.Errorf("unknown suburb order %q", string(o))
	}
}

// ListSuburbs returns suburbs in the given order. A limit <= 0 returns all.
func (d *Database) ListSuburbs(ctx context.Context, order SuburbOrder, limit int) ([]models.Suburb, error) {
	orderBy, err := order.clause()
	if err != nil {
		return nil, err
	}

	query := d.db.WithContext(ctx).Order(orderBy)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var suburbs []models.Suburb
	if err := query.Find(&suburbs).Error; err != nil {
		return nil, fmt.Errorf("failed to list suburbs: %w", err)
	}
	return suburbs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SuggestLocations matches suburbs whose name contains the query or whose
// postcode starts with it.
func (d *Database) SuggestLocations(ctx context.Context, query string, limit int) ([]models.LocationSuggestion, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.LocationSuggestion{}, nil
	}

	pattern := likeEscaper.Replace(query)

	var suburbs []models.Suburb
	err := d.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR postcode LIKE ? ESCAPE '\'`, "%"+pattern+"%", pattern+"%").
		Order("name").
		Limit(limit).
		Find(&suburbs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest locations: %w", err)
	}

	suggestions := make([]models.LocationSuggestion, 0, len(suburbs))
	for _, s := range suburbs {
		suggestions = append(suggestions, models.LocationSuggestion{
			ID:          strconv.FormatUint(uint64(s.ID), 10),
			DisplayName: fmt.Sprintf("%s, %s %s", s.Name, s.State, s.Postcode),
			State:       s.State,
			Postcode:    s.Postcode,
			Suburb:      s.Name,
		})
	}
	return suggestions, nil
}

func (d *Database) GetAmenities(ctx context.Context, suburb string) ([]models.Amenity, error) {
	var amenities []models.Amenity
	err := d.db.WithContext(ctx).
		Where("LOWER(suburb) = LOWER(?)", suburb).
		Order("id").
		Find(&amenities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get amenities for %s: %w", suburb, err)
	}
	return amenities, nil
}

func (d *Database) GetRiskFactors(ctx context.Context, suburb string) ([]models.RiskFactor, error) {
	var factors []models.RiskFactor
	err := d.db.WithContext(ctx).
		Where("LOWER(suburb) = LOWER(?)", suburb).
		Order("id").
		Find(&factors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get risk factors for %s: %w", suburb, err)
	}
	return factors, nil
}
