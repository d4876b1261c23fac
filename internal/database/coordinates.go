package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"propertyinsight/server/internal/models"
)

const geocodeBatchSize = 10

// Geocoder resolves a street address to WGS84 coordinates.
type Geocoder interface {
	GeocodeAddress(ctx context.Context, street, suburb, state, postcode string) (lat, lon float64, err error)
}

// GeocodeStats reports the outcome of an UpdateMissingCoordinates run.
type GeocodeStats struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

func pendingGeocodes(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Property{}).
		Where("(latitude IS NULL OR longitude IS NULL)").
		Where("geocode_attempted = ?", false).
		Where("address <> '' AND suburb <> ''")
}

// PropertiesMissingCoordinates lists listings that cannot be shown on a map.
func (d *Database) PropertiesMissingCoordinates(ctx context.Context) ([]models.Property, error) {
	var properties []models.Property
	err := d.db.WithContext(ctx).
		Where("latitude IS NULL OR longitude IS NULL").
		Order("id").
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query properties without coordinates: %w", err)
	}
	return properties, nil
}

// UpdateMissingCoordinates geocodes every listing that has an address but no
// coordinates. Each listing is attempted once; failures are counted and the
// listing is not retried on later runs.
func (d *Database) UpdateMissingCoordinates(ctx context.Context, geocoder Geocoder) (GeocodeStats, error) {
	var stats GeocodeStats

	var total int64
	if err := pendingGeocodes(d.db.WithContext(ctx)).Count(&total).Error; err != nil {
		return stats, fmt.Errorf("failed to count properties: %w", err)
	}
	stats.Total = int(total)

	for stats.Updated+stats.Failed < stats.Total {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var batch []models.Property
		if err := pendingGeocodes(d.db.WithContext(ctx)).Order("id").Limit(geocodeBatchSize).Find(&batch).Error; err != nil {
			return stats, fmt.Errorf("failed to query properties: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, p := range batch {
				updates := map[string]interface{}{"geocode_attempted": true}

				lat, lon, err := geocoder.GeocodeAddress(ctx, p.Address, p.Suburb, p.State, p.Postcode)
				if err != nil {
					stats.Failed++
				} else {
					updates["latitude"] = lat
					updates["longitude"] = lon
					stats.Updated++
				}

				if err := tx.Model(&models.Property{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update coordinates for %s: %w", p.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return stats, err
		}
	}

	return stats, nil
}
