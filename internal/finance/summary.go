// Package finance implements the investment model behind a property's
// analysis tab: mortgage repayments, rent and operating costs, cash flow,
// growth projections and simple risk sensitivities.
//
// Every function is pure. A FinancialSummary is recomputed from its inputs
// whenever it is needed and never stored.
package finance

// PropertyFinancials is the listing data the model needs.
type PropertyFinancials struct {
	Price                  float64 `json:"price"`
	RentalYieldPercent     float64 `json:"rental_yield_percent"`
	GrowthPotentialPercent float64 `json:"growth_potential_percent"`
	CouncilRatesPerQuarter float64 `json:"council_rates_per_quarter"`
	LandSizeSquareMeters   float64 `json:"land_size_square_meters"`
	SuburbMedianPrice      float64 `json:"suburb_median_price"`
}

// Validate checks every field before any arithmetic runs.
func (p PropertyFinancials) Validate() error {
	if err := requirePositive("price", p.Price); err != nil {
		return err
	}
	if err := requireNonNegative("rental yield", p.RentalYieldPercent); err != nil {
		return err
	}
	if !finite(p.GrowthPotentialPercent) || p.GrowthPotentialPercent < -100 {
		return invalid("growth rate must be at least -100%%, got %v", p.GrowthPotentialPercent)
	}
	if err := requireNonNegative("council rates", p.CouncilRatesPerQuarter); err != nil {
		return err
	}
	if err := requireNonNegative("land size", p.LandSizeSquareMeters); err != nil {
		return err
	}
	return requirePositive("suburb median price", p.SuburbMedianPrice)
}

// FinancialSummary is everything the analysis panel displays.
type FinancialSummary struct {
	Mortgage            MortgageAssumptions `json:"mortgage"`
	Repayments          Repayments          `json:"repayments"`
	WeeklyRent          float64             `json:"weekly_rent"`
	AnnualRentalIncome  float64             `json:"annual_rental_income"`
	AnnualExpenses      AnnualExpenses      `json:"annual_expenses"`
	TotalAnnualExpenses float64             `json:"total_annual_expenses"`
	WeeklyExpenses      float64             `json:"weekly_expenses"`
	WeeklyCashFlow      float64             `json:"weekly_cash_flow"`
	Projections         Projections         `json:"projections"`
	Risk                RiskDeltas          `json:"risk"`
}

// Model bundles the assumption sets. The zero value is not useful; start from
// NewModel and override fields as needed.
type Model struct {
	Mortgage MortgageAssumptions
	Expenses ExpenseAssumptions
}

// NewModel returns a model with the default assumptions.
func NewModel() Model {
	return Model{
		Mortgage: DefaultMortgageAssumptions(),
		Expenses: DefaultExpenseAssumptions(),
	}
}

// WithMortgage returns a copy of the model using m for the loan.
func (md Model) WithMortgage(m MortgageAssumptions) Model {
	md.Mortgage = m
	return md
}

// Summarize computes the full analysis. On error no partial summary is returned.
func (md Model) Summarize(p PropertyFinancials) (*FinancialSummary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := md.Mortgage.Validate(); err != nil {
		return nil, err
	}
	if err := md.Expenses.Validate(); err != nil {
		return nil, err
	}

	repayments, err := ComputeRepayments(p.Price, md.Mortgage)
	if err != nil {
		return nil, err
	}
	rent, err := WeeklyRent(p.Price, p.RentalYieldPercent)
	if err != nil {
		return nil, err
	}
	expenses, err := ComputeAnnualExpenses(p, rent, md.Expenses)
	if err != nil {
		return nil, err
	}
	projections, err := ComputeProjections(p)
	if err != nil {
		return nil, err
	}

	total := expenses.Total()
	weeklyExpenses := WeeklyExpenses(total)
	return &FinancialSummary{
		Mortgage:            md.Mortgage,
		Repayments:          repayments,
		WeeklyRent:          rent,
		AnnualRentalIncome:  rent * weeksPerYear,
		AnnualExpenses:      expenses,
		TotalAnnualExpenses: total,
		WeeklyExpenses:      weeklyExpenses,
		WeeklyCashFlow:      WeeklyCashFlow(rent, repayments.Weekly, weeklyExpenses),
		Projections:         projections,
		Risk:                ComputeRiskDeltas(p.Price, repayments.LoanAmount, rent, repayments.Monthly),
	}, nil
}

// Summarize runs the model with explicit assumptions.
func Summarize(p PropertyFinancials, m MortgageAssumptions, e ExpenseAssumptions) (*FinancialSummary, error) {
	return Model{Mortgage: m, Expenses: e}.Summarize(p)
}
