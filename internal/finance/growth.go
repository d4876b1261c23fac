package finance

import "math"

// ProjectValue compounds price at annualGrowthPercent for the given number of
// years. Negative growth depreciates the value.
func ProjectValue(price, annualGrowthPercent float64, years int) (float64, error) {
	if err := requirePositive("price", price); err != nil {
		return 0, err
	}
	if !finite(annualGrowthPercent) || annualGrowthPercent < -100 {
		return 0, invalid("growth rate must be at least -100%%, got %v", annualGrowthPercent)
	}
	if years < 0 {
		return 0, invalid("projection horizon must not be negative, got %d", years)
	}
	return round(price * math.Pow(1+annualGrowthPercent/100, float64(years))), nil
}

// PriceToMedianRatio expresses price as a whole percentage of the suburb median.
func PriceToMedianRatio(price, suburbMedianPrice float64) (float64, error) {
	if err := requirePositive("price", price); err != nil {
		return 0, err
	}
	if err := requirePositive("suburb median price", suburbMedianPrice); err != nil {
		return 0, err
	}
	return round(price / suburbMedianPrice * 100), nil
}

// Projections is the growth section of a FinancialSummary.
type Projections struct {
	GrowthPercent      float64 `json:"growth_percent"`
	FiveYearValue      float64 `json:"five_year_value"`
	TenYearValue       float64 `json:"ten_year_value"`
	SuburbMedianPrice  float64 `json:"suburb_median_price"`
	PriceToMedianRatio float64 `json:"price_to_median_ratio"`
	BelowSuburbMedian  bool    `json:"below_suburb_median"`
}

func ComputeProjections(p PropertyFinancials) (Projections, error) {
	five, err := ProjectValue(p.Price, p.GrowthPotentialPercent, ProjectionShortYears)
	if err != nil {
		return Projections{}, err
	}
	ten, err := ProjectValue(p.Price, p.GrowthPotentialPercent, ProjectionLongYears)
	if err != nil {
		return Projections{}, err
	}
	ratio, err := PriceToMedianRatio(p.Price, p.SuburbMedianPrice)
	if err != nil {
		return Projections{}, err
	}
	return Projections{
		GrowthPercent:      p.GrowthPotentialPercent,
		FiveYearValue:      five,
		TenYearValue:       ten,
		SuburbMedianPrice:  p.SuburbMedianPrice,
		PriceToMedianRatio: ratio,
		BelowSuburbMedian:  p.Price < p.SuburbMedianPrice,
	}, nil
}
