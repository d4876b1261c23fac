package finance

// RiskDeltas are the headline sensitivities shown next to the analysis.
type RiskDeltas struct {
	// Extra monthly cost of a one point rate rise. Linear, not re-amortised.
	RateRiseMonthlyIncrease float64 `json:"rate_rise_monthly_increase"`
	VacancyCostPerWeek      float64 `json:"vacancy_cost_per_week"`
	DownturnEquityLoss      float64 `json:"downturn_equity_loss"`
	CashBuffer              float64 `json:"cash_buffer"`
}

// RateRiseIncrease approximates the monthly cost of a one point rate rise.
func RateRiseIncrease(loanAmount float64) float64 {
	return round(loanAmount * RateShockPercent / 100 / monthsPerYear)
}

// DownturnEquityImpact is the equity lost if the property value drops 10%.
func DownturnEquityImpact(price float64) float64 {
	return price * DownturnDropRatio
}

// ComputeRiskDeltas derives the sensitivities from values already validated
// upstream.
func ComputeRiskDeltas(price, loanAmount, weeklyRent, monthlyRepayment float64) RiskDeltas {
	return RiskDeltas{
		RateRiseMonthlyIncrease: RateRiseIncrease(loanAmount),
		VacancyCostPerWeek:      weeklyRent,
		DownturnEquityLoss:      DownturnEquityImpact(price),
		CashBuffer:              monthlyRepayment * CashBufferMonths,
	}
}
