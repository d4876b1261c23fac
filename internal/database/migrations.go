package database

import (
	"fmt"

	"gorm.io/gorm"

	"propertyinsight/server/internal/mockdata"
	"propertyinsight/server/internal/models"
)

// MigrateSchema creates or updates every table the server uses.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Property{},
		&models.Suburb{},
		&models.Amenity{},
		&models.RiskFactor{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Composite index for the map view
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude)
	`).Error
}

// RunMigrations migrates the schema and loads the sample catalogue into an
// empty database.
func (d *Database) RunMigrations() error {
	if err := MigrateSchema(d.db); err != nil {
		return err
	}

	catalog, err := mockdata.Load()
	if err != nil {
		return err
	}
	return Seed(d.db, catalog)
}

// Seed inserts the catalogue unless the database already holds suburbs.
func Seed(db *gorm.DB, catalog *mockdata.Catalog) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Suburb{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count suburbs: %w", err)
		}
		if count > 0 {
			return nil
		}

		if len(catalog.Suburbs) > 0 {
			if err := tx.Create(&catalog.Suburbs).Error; err != nil {
				return fmt.Errorf("failed to seed suburbs: %w", err)
			}
		}
		if len(catalog.Amenities) > 0 {
			if err := tx.Create(&catalog.Amenities).Error; err != nil {
				return fmt.Errorf("failed to seed amenities: %w", err)
			}
		}
		if len(catalog.RiskFactors) > 0 {
			if err := tx.Create(&catalog.RiskFactors).Error; err != nil {
				return fmt.Errorf("failed to seed risk factors: %w", err)
			}
		}

		batch := make([]*models.Property, len(catalog.Properties))
		for i := range catalog.Properties {
			batch[i] = &catalog.Properties[i]
		}
		if err := UpsertProperties(tx, batch); err != nil {
			return fmt.Errorf("failed to seed properties: %w", err)
		}
		return nil
	})
}
