package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectValue(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		growth   float64
		years    int
		expected float64
	}{
		{name: "five years at 5.2%", price: 850000, growth: 5.2, years: 5, expected: 1095211},
		{name: "ten years at 5.2%", price: 850000, growth: 5.2, years: 10, expected: 1411160},
		{name: "one year of 10% depreciation", price: 850000, growth: -10, years: 1, expected: 765000},
		{name: "three years of 5% depreciation", price: 850000, growth: -5, years: 3, expected: 728769},
		{name: "total loss", price: 850000, growth: -100, years: 2, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ProjectValue(tt.price, tt.growth, tt.years)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestProjectValue_FixedPoints(t *testing.T) {
	for _, years := range []int{0, 1, 5, 10, 30} {
		got, err := ProjectValue(850000, 0, years)
		require.NoError(t, err)
		assert.Equal(t, 850000.0, got, "zero growth over %d years", years)
	}
	for _, growth := range []float64{-50, -3.5, 0, 5.2, 40} {
		got, err := ProjectValue(850000, growth, 0)
		require.NoError(t, err)
		assert.Equal(t, 850000.0, got, "zero horizon at %v%%", growth)
	}
}

func TestProjectValue_InvalidArguments(t *testing.T) {
	_, err := ProjectValue(0, 5, 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ProjectValue(850000, -101, 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ProjectValue(850000, math.NaN(), 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = ProjectValue(850000, 5, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPriceToMedianRatio(t *testing.T) {
	got, err := PriceToMedianRatio(850000, 950000)
	require.NoError(t, err)
	assert.Equal(t, 89.0, got)

	got, err = PriceToMedianRatio(1200000, 1300000)
	require.NoError(t, err)
	assert.Equal(t, 92.0, got)

	_, err = PriceToMedianRatio(850000, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = PriceToMedianRatio(850000, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestComputeProjections(t *testing.T) {
	p, err := ComputeProjections(parramattaHouse())
	require.NoError(t, err)

	assert.Equal(t, 5.2, p.GrowthPercent)
	assert.Equal(t, 1095211.0, p.FiveYearValue)
	assert.Equal(t, 1411160.0, p.TenYearValue)
	assert.Equal(t, 89.0, p.PriceToMedianRatio)
	assert.True(t, p.BelowSuburbMedian)
}
