package finance

// Default mortgage and operating-cost assumptions applied when a caller does
// not override them.
const (
	DefaultDepositRatio      = 0.20
	DefaultAnnualRatePercent = 5.5
	DefaultTermYears         = 30

	DefaultWaterRatesAnnual      = 800
	DefaultInsuranceAnnual       = 1200
	DefaultManagementFeeRate     = 0.07
	DefaultMaintenanceRate       = 0.01
	DefaultLandTaxPerSquareMeter = 2.5

	// Risk delta parameters.
	RateShockPercent  = 1.0
	DownturnDropRatio = 0.10
	CashBufferMonths  = 3

	ProjectionShortYears = 5
	ProjectionLongYears  = 10

	weeksPerYear  = 52
	monthsPerYear = 12
)

// MortgageAssumptions describes the loan used to finance a purchase.
type MortgageAssumptions struct {
	DepositRatio      float64 `json:"deposit_ratio"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TermYears         int     `json:"term_years"`
}

// DefaultMortgageAssumptions returns an 80% LVR, 5.5%, 30 year loan.
func DefaultMortgageAssumptions() MortgageAssumptions {
	return MortgageAssumptions{
		DepositRatio:      DefaultDepositRatio,
		AnnualRatePercent: DefaultAnnualRatePercent,
		TermYears:         DefaultTermYears,
	}
}

// Validate checks the loan contract without computing anything.
func (m MortgageAssumptions) Validate() error {
	if !finite(m.DepositRatio) || m.DepositRatio < 0 || m.DepositRatio >= 1 {
		return invalid("deposit ratio must be in [0, 1), got %v", m.DepositRatio)
	}
	if err := requireNonNegative("annual interest rate", m.AnnualRatePercent); err != nil {
		return err
	}
	if m.TermYears <= 0 {
		return invalid("loan term must be positive, got %d years", m.TermYears)
	}
	return nil
}

// ExpenseAssumptions holds the placeholder operating-cost estimates. Water,
// insurance and land tax are flat proxies, not derived or statutory figures.
type ExpenseAssumptions struct {
	WaterRatesAnnual      float64 `json:"water_rates_annual"`
	InsuranceAnnual       float64 `json:"insurance_annual"`
	ManagementFeeRate     float64 `json:"management_fee_rate"`
	MaintenanceRate       float64 `json:"maintenance_rate"`
	LandTaxPerSquareMeter float64 `json:"land_tax_per_square_meter"`
}

func DefaultExpenseAssumptions() ExpenseAssumptions {
	return ExpenseAssumptions{
		WaterRatesAnnual:      DefaultWaterRatesAnnual,
		InsuranceAnnual:       DefaultInsuranceAnnual,
		ManagementFeeRate:     DefaultManagementFeeRate,
		MaintenanceRate:       DefaultMaintenanceRate,
		LandTaxPerSquareMeter: DefaultLandTaxPerSquareMeter,
	}
}

func (e ExpenseAssumptions) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"water rates", e.WaterRatesAnnual},
		{"insurance", e.InsuranceAnnual},
		{"management fee rate", e.ManagementFeeRate},
		{"maintenance rate", e.MaintenanceRate},
		{"land tax per square meter", e.LandTaxPerSquareMeter},
	}
	for _, c := range checks {
		if err := requireNonNegative(c.name, c.value); err != nil {
			return err
		}
	}
	return nil
}
