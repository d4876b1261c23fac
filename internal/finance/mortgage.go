package finance

import "math"

// LoanAmount returns the principal borrowed after the deposit.
func LoanAmount(price, depositRatio float64) (float64, error) {
	if err := requirePositive("price", price); err != nil {
		return 0, err
	}
	if !finite(depositRatio) || depositRatio < 0 || depositRatio >= 1 {
		return 0, invalid("deposit ratio must be in [0, 1), got %v", depositRatio)
	}
	return price * (1 - depositRatio), nil
}

// MonthlyRepayment returns the fixed monthly payment that retires the loan over
// termYears, rounded to a whole unit. A zero rate repays the principal in equal
// instalments.
func MonthlyRepayment(price, depositRatio, annualRatePercent float64, termYears int) (float64, error) {
	m := MortgageAssumptions{
		DepositRatio:      depositRatio,
		AnnualRatePercent: annualRatePercent,
		TermYears:         termYears,
	}
	if err := requirePositive("price", price); err != nil {
		return 0, err
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}

	principal := price * (1 - depositRatio)
	n := float64(termYears * monthsPerYear)
	if annualRatePercent == 0 {
		return round(principal / n), nil
	}

	r := annualRatePercent / 100 / monthsPerYear
	growth := math.Pow(1+r, n)
	return round(principal * r * growth / (growth - 1)), nil
}

// WeeklyRepayment converts a monthly repayment to its weekly equivalent.
func WeeklyRepayment(monthly float64) float64 {
	return round(monthly * monthsPerYear / weeksPerYear)
}

// Repayments is the loan section of a FinancialSummary.
type Repayments struct {
	Deposit         float64 `json:"deposit"`
	LoanAmount      float64 `json:"loan_amount"`
	LVRPercent      float64 `json:"lvr_percent"`
	Monthly         float64 `json:"monthly"`
	Weekly          float64 `json:"weekly"`
	TotalRepayments float64 `json:"total_repayments"`
	TotalInterest   float64 `json:"total_interest"`
}

// ComputeRepayments derives the full loan breakdown for a purchase.
func ComputeRepayments(price float64, m MortgageAssumptions) (Repayments, error) {
	monthly, err := MonthlyRepayment(price, m.DepositRatio, m.AnnualRatePercent, m.TermYears)
	if err != nil {
		return Repayments{}, err
	}

	loan := price * (1 - m.DepositRatio)
	total := monthly * monthsPerYear * float64(m.TermYears)
	return Repayments{
		Deposit:         price * m.DepositRatio,
		LoanAmount:      loan,
		LVRPercent:      (1 - m.DepositRatio) * 100,
		Monthly:         monthly,
		Weekly:          WeeklyRepayment(monthly),
		TotalRepayments: total,
		TotalInterest:   total - loan,
	}, nil
}
