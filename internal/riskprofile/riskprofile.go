// Package riskprofile condenses a suburb's hazard scores into one rating.
package riskprofile

import (
	"fmt"
	"math"
	"strings"

	"propertyinsight/server/internal/models"
)

const (
	highThreshold   = 60
	mediumThreshold = 30
)

type Assessment struct {
	Suburb      string              `json:"suburb"`
	Score       int                 `json:"score"`
	Level       string              `json:"level"`
	Factors     []models.RiskFactor `json:"factors"`
	Significant []models.RiskFactor `json:"significant"`
	Summary     string              `json:"summary"`
}

// LevelFor maps a 0-100 score to a risk level.
func LevelFor(score int) string {
	switch {
	case score > highThreshold:
		return models.RiskHigh
	case score > mediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Assess averages the factor scores. A factor is significant when its own
// level is above Low.
func Assess(suburb string, factors []models.RiskFactor) *Assessment {
	a := &Assessment{
		Suburb:      suburb,
		Level:       models.RiskLow,
		Factors:     factors,
		Significant: []models.RiskFactor{},
	}
	if a.Factors == nil {
		a.Factors = []models.RiskFactor{}
	}

	if len(factors) > 0 {
		total := 0
		for _, f := range factors {
			total += f.Score
			if f.Level != "" && f.Level != models.RiskLow {
				a.Significant = append(a.Significant, f)
			}
		}
		a.Score = int(math.Floor(float64(total)/float64(len(factors)) + 0.5))
		a.Level = LevelFor(a.Score)
	}

	a.Summary = summarize(a)
	return a
}

func summarize(a *Assessment) string {
	if len(a.Factors) == 0 {
		return fmt.Sprintf("No risk data is available for %s.", a.Suburb)
	}
	if len(a.Significant) == 0 {
		return fmt.Sprintf("%s has an overall %s risk rating (%d/100) with no significant hazards.", a.Suburb, strings.ToLower(a.Level), a.Score)
	}

	names := make([]string, len(a.Significant))
	for i, f := range a.Significant {
		names[i] = strings.ToLower(f.Type)
	}
	return fmt.Sprintf("%s has an overall %s risk rating (%d/100). Watch for: %s.", a.Suburb, strings.ToLower(a.Level), a.Score, strings.Join(names, ", "))
}
