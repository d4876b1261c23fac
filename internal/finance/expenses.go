package finance

// AnnualExpenses itemises the yearly operating costs of holding a property.
type AnnualExpenses struct {
	CouncilRates   float64 `json:"council_rates"`
	WaterRates     float64 `json:"water_rates"`
	Insurance      float64 `json:"insurance"`
	ManagementFees float64 `json:"management_fees"`
	Maintenance    float64 `json:"maintenance"`
	LandTax        float64 `json:"land_tax"`
}

// Total sums all six expense items.
func (e AnnualExpenses) Total() float64 {
	return e.CouncilRates + e.WaterRates + e.Insurance + e.ManagementFees + e.Maintenance + e.LandTax
}

// WeeklyRent estimates the weekly rent from the gross rental yield.
func WeeklyRent(price, rentalYieldPercent float64) (float64, error) {
	if err := requirePositive("price", price); err != nil {
		return 0, err
	}
	if err := requireNonNegative("rental yield", rentalYieldPercent); err != nil {
		return 0, err
	}
	return round(price * rentalYieldPercent / 100 / weeksPerYear), nil
}

// ComputeAnnualExpenses builds the expense breakdown. weeklyRent drives the
// management fee; land tax is a flat per-square-meter proxy and is zero for
// properties without land.
func ComputeAnnualExpenses(p PropertyFinancials, weeklyRent float64, a ExpenseAssumptions) (AnnualExpenses, error) {
	if err := requirePositive("price", p.Price); err != nil {
		return AnnualExpenses{}, err
	}
	if err := requireNonNegative("council rates", p.CouncilRatesPerQuarter); err != nil {
		return AnnualExpenses{}, err
	}
	if err := requireNonNegative("land size", p.LandSizeSquareMeters); err != nil {
		return AnnualExpenses{}, err
	}
	if err := requireNonNegative("weekly rent", weeklyRent); err != nil {
		return AnnualExpenses{}, err
	}
	if err := a.Validate(); err != nil {
		return AnnualExpenses{}, err
	}

	e := AnnualExpenses{
		CouncilRates:   p.CouncilRatesPerQuarter * 4,
		WaterRates:     a.WaterRatesAnnual,
		Insurance:      a.InsuranceAnnual,
		ManagementFees: weeklyRent * weeksPerYear * a.ManagementFeeRate,
		Maintenance:    p.Price * a.MaintenanceRate,
	}
	if p.LandSizeSquareMeters > 0 {
		e.LandTax = p.LandSizeSquareMeters * a.LandTaxPerSquareMeter
	}
	return e, nil
}

// WeeklyExpenses spreads an annual total over 52 weeks.
func WeeklyExpenses(annualTotal float64) float64 {
	return round(annualTotal / weeksPerYear)
}

// WeeklyCashFlow is rent less repayment less expenses. Negative values mean
// the owner tops up the property each week.
func WeeklyCashFlow(weeklyRent, weeklyRepayment, weeklyExpenses float64) float64 {
	return weeklyRent - weeklyRepayment - weeklyExpenses
}
