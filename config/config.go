package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"propertyinsight/server/internal/finance"
)

type Config struct {
	Server struct {
		Port           string   `env:"PORT" envDefault:"5250"`
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/propertyinsight.db"`
	}

	// Mortgage defaults applied to every analysis unless overridden per request
	Mortgage struct {
		DepositRatio      float64 `env:"MORTGAGE_DEPOSIT_RATIO" envDefault:"0.2"`
		AnnualRatePercent float64 `env:"MORTGAGE_INTEREST_RATE" envDefault:"5.5"`
		TermYears         int     `env:"MORTGAGE_TERM_YEARS" envDefault:"30"`
	}

	// Expenses holds the placeholder operating-cost estimates
	Expenses struct {
		WaterRatesAnnual      float64 `env:"EXPENSE_WATER_RATES" envDefault:"800"`
		InsuranceAnnual       float64 `env:"EXPENSE_INSURANCE" envDefault:"1200"`
		ManagementFeeRate     float64 `env:"EXPENSE_MANAGEMENT_FEE_RATE" envDefault:"0.07"`
		MaintenanceRate       float64 `env:"EXPENSE_MAINTENANCE_RATE" envDefault:"0.01"`
		LandTaxPerSquareMeter float64 `env:"EXPENSE_LAND_TAX_PER_SQM" envDefault:"2.5"`
	}

	// Listings configures the external residential listing API
	Listings struct {
		BaseURL         string        `env:"LISTINGS_API_URL" envDefault:"https://api.domain.com.au/v1"`
		APIKey          string        `env:"LISTINGS_API_KEY"`
		Suburbs         []string      `env:"LISTINGS_SUBURBS" envSeparator:"," envDefault:"Parramatta,Chatswood"`
		State           string        `env:"LISTINGS_STATE" envDefault:"NSW"`
		PageSize        int           `env:"LISTINGS_PAGE_SIZE" envDefault:"20"`
		RefreshInterval time.Duration `env:"LISTINGS_REFRESH_INTERVAL" envDefault:"1h"`
		Timeout         time.Duration `env:"LISTINGS_TIMEOUT" envDefault:"10s"`
		// Retries of a failed outbound request, shared with the geocoder
		RetryMax     int           `env:"LISTINGS_RETRY_MAX" envDefault:"3"`
		RetryWaitMin time.Duration `env:"LISTINGS_RETRY_WAIT_MIN" envDefault:"500ms"`
		RetryWaitMax time.Duration `env:"LISTINGS_RETRY_WAIT_MAX" envDefault:"5s"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of listings to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Buffered batches the queue holds before rejecting new ones
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"16"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	Geocoding struct {
		Enabled   bool   `env:"GEOCODING_ENABLED" envDefault:"true"`
		BaseURL   string `env:"GEOCODING_URL" envDefault:"https://nominatim.openstreetmap.org"`
		UserAgent string `env:"GEOCODING_USER_AGENT" envDefault:"PropertyInsight Investment Analyzer/1.0"`
		Country   string `env:"GEOCODING_COUNTRY" envDefault:"au"`
	}

	// Cache uses redis when an address is set and an in-process map otherwise
	Cache struct {
		RedisAddr     string        `env:"REDIS_ADDR"`
		RedisPassword string        `env:"REDIS_PASSWORD"`
		RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
		TTL           time.Duration `env:"CACHE_TTL" envDefault:"720h"`
	}
}

// LoadConfig reads an optional .env file, parses the environment and checks
// the finance defaults.
func LoadConfig() (*Config, error) {
	// A missing .env file is normal outside development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.MortgageAssumptions().Validate(); err != nil {
		return nil, fmt.Errorf("invalid mortgage defaults: %w", err)
	}
	if err := cfg.ExpenseAssumptions().Validate(); err != nil {
		return nil, fmt.Errorf("invalid expense defaults: %w", err)
	}
	return cfg, nil
}

func (c *Config) MortgageAssumptions() finance.MortgageAssumptions {
	return finance.MortgageAssumptions{
		DepositRatio:      c.Mortgage.DepositRatio,
		AnnualRatePercent: c.Mortgage.AnnualRatePercent,
		TermYears:         c.Mortgage.TermYears,
	}
}

func (c *Config) ExpenseAssumptions() finance.ExpenseAssumptions {
	return finance.ExpenseAssumptions{
		WaterRatesAnnual:      c.Expenses.WaterRatesAnnual,
		InsuranceAnnual:       c.Expenses.InsuranceAnnual,
		ManagementFeeRate:     c.Expenses.ManagementFeeRate,
		MaintenanceRate:       c.Expenses.MaintenanceRate,
		LandTaxPerSquareMeter: c.Expenses.LandTaxPerSquareMeter,
	}
}

// FinanceModel builds the analysis model from the configured defaults.
func (c *Config) FinanceModel() finance.Model {
	return finance.Model{
		Mortgage: c.MortgageAssumptions(),
		Expenses: c.ExpenseAssumptions(),
	}
}

// ListingsEnabled reports whether the listing refresh pipeline can run.
func (c *Config) ListingsEnabled() bool {
	return c.Listings.APIKey != ""
}
