package finance

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskDeltas(t *testing.T) {
	r := ComputeRiskDeltas(850000, 680000, 654, 3861)

	assert.Equal(t, 567.0, r.RateRiseMonthlyIncrease)
	assert.Equal(t, 654.0, r.VacancyCostPerWeek)
	assert.InDelta(t, 85000.0, r.DownturnEquityLoss, 1e-6)
	assert.Equal(t, 11583.0, r.CashBuffer)
}

func TestModel_Summarize(t *testing.T) {
	s, err := NewModel().Summarize(parramattaHouse())
	require.NoError(t, err)

	assert.Equal(t, DefaultMortgageAssumptions(), s.Mortgage)
	assert.Equal(t, 680000.0, s.Repayments.LoanAmount)
	assert.Equal(t, 3861.0, s.Repayments.Monthly)
	assert.Equal(t, 891.0, s.Repayments.Weekly)
	assert.Equal(t, 654.0, s.WeeklyRent)
	assert.Equal(t, 654.0*52, s.AnnualRentalIncome)
	assert.InDelta(t, 16305.56, s.TotalAnnualExpenses, 1e-6)
	assert.Equal(t, 314.0, s.WeeklyExpenses)
	assert.Equal(t, -551.0, s.WeeklyCashFlow)
	assert.Equal(t, 1095211.0, s.Projections.FiveYearValue)
	assert.Equal(t, 89.0, s.Projections.PriceToMedianRatio)
	assert.Equal(t, 567.0, s.Risk.RateRiseMonthlyIncrease)
	assert.Equal(t, 654.0, s.Risk.VacancyCostPerWeek)
}

func TestModel_SummarizeStrataApartment(t *testing.T) {
	p := PropertyFinancials{
		Price:                  1200000,
		RentalYieldPercent:     3.7,
		GrowthPotentialPercent: 4.8,
		CouncilRatesPerQuarter: 380,
		LandSizeSquareMeters:   0,
		SuburbMedianPrice:      1300000,
	}
	s, err := NewModel().Summarize(p)
	require.NoError(t, err)

	assert.Equal(t, 854.0, s.WeeklyRent)
	assert.Equal(t, 1258.0, s.Repayments.Weekly)
	assert.Zero(t, s.AnnualExpenses.LandTax)
	assert.Equal(t, 358.0, s.WeeklyExpenses)
	assert.Equal(t, -762.0, s.WeeklyCashFlow)
	assert.Equal(t, 92.0, s.Projections.PriceToMedianRatio)
}

func TestModel_WithMortgage(t *testing.T) {
	base := NewModel()
	cash := base.WithMortgage(MortgageAssumptions{DepositRatio: 0.5, AnnualRatePercent: 0, TermYears: 10})

	s, err := cash.Summarize(parramattaHouse())
	require.NoError(t, err)
	assert.Equal(t, 425000.0, s.Repayments.LoanAmount)
	assert.Equal(t, 3542.0, s.Repayments.Monthly)
	assert.Equal(t, 3542.0*120-425000, s.Repayments.TotalInterest)

	// the base model is untouched
	assert.Equal(t, DefaultMortgageAssumptions(), base.Mortgage)
}

func TestModel_SummarizeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PropertyFinancials, *Model)
	}{
		{name: "zero price", mutate: func(p *PropertyFinancials, _ *Model) { p.Price = 0 }},
		{name: "zero suburb median", mutate: func(p *PropertyFinancials, _ *Model) { p.SuburbMedianPrice = 0 }},
		{name: "negative yield", mutate: func(p *PropertyFinancials, _ *Model) { p.RentalYieldPercent = -2 }},
		{name: "deposit ratio of one", mutate: func(_ *PropertyFinancials, m *Model) { m.Mortgage.DepositRatio = 1 }},
		{name: "zero term", mutate: func(_ *PropertyFinancials, m *Model) { m.Mortgage.TermYears = 0 }},
		{name: "negative maintenance rate", mutate: func(_ *PropertyFinancials, m *Model) { m.Expenses.MaintenanceRate = -0.01 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parramattaHouse()
			m := NewModel()
			tt.mutate(&p, &m)

			s, err := m.Summarize(p)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, s)
		})
	}
}

func TestModel_SummarizeAcceptsZeroRate(t *testing.T) {
	s, err := Summarize(parramattaHouse(), MortgageAssumptions{DepositRatio: 0.2, TermYears: 30}, DefaultExpenseAssumptions())
	require.NoError(t, err)
	assert.Equal(t, 1889.0, s.Repayments.Monthly)
	assert.Equal(t, 567.0, s.Risk.RateRiseMonthlyIncrease)
}

func TestModel_SummarizeIsDeterministicUnderConcurrency(t *testing.T) {
	m := NewModel()
	want, err := m.Summarize(parramattaHouse())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*FinancialSummary, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.Summarize(parramattaHouse())
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
