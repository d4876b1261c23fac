package suburbs

import (
	"context"
	"errors"
	"math"
	"time"

	"propertyinsight/server/internal/database"
	"propertyinsight/server/internal/models"
)

const (
	DefaultTopLimit     = 5
	DefaultHistoryYears = 10
	MaxHistoryYears     = 30
)

type Store interface {
	GetSuburb(ctx context.Context, name string) (*models.Suburb, error)
	ListSuburbs(ctx context.Context, order database.SuburbOrder, limit int) ([]models.Suburb, error)
}

// PricePoint is the estimated median price of a suburb in one year.
type PricePoint struct {
	Year  int     `json:"year"`
	Price float64 `json:"price"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, name string) (*models.Suburb, error) {
	return s.store.GetSuburb(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]models.Suburb, error) {
	return s.store.ListSuburbs(ctx, database.OrderByName, 0)
}

// TopGrowth returns the fastest growing suburbs. A limit <= 0 means DefaultTopLimit.
func (s *Service) TopGrowth(ctx context.Context, limit int) ([]models.Suburb, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	return s.store.ListSuburbs(ctx, database.OrderByGrowth, limit)
}

// TopRentalYield returns the highest yielding suburbs. A limit <= 0 means DefaultTopLimit.
func (s *Service) TopRentalYield(ctx context.Context, limit int) ([]models.Suburb, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	return s.store.ListSuburbs(ctx, database.OrderByRentalYield, limit)
}

// PriceHistory estimates the suburb median for each of the last years years,
// oldest first, by discounting today's median at the suburb growth rate. The
// last point is the current year. An unknown suburb has no history.
func (s *Service) PriceHistory(ctx context.Context, name string, years int, now time.Time) ([]PricePoint, error) {
	if years <= 0 {
		years = DefaultHistoryYears
	}
	if years > MaxHistoryYears {
		years = MaxHistoryYears
	}

	suburb, err := s.store.GetSuburb(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return []PricePoint{}, nil
	}
	if err != nil {
		return nil, err
	}

	factor := 1 + suburb.GrowthRate/100
	history := make([]PricePoint, 0, years)
	for i := years - 1; i >= 0; i-- {
		price := suburb.MedianPrice
		if factor > 0 {
			price = suburb.MedianPrice / math.Pow(factor, float64(i))
		}
		history = append(history, PricePoint{
			Year:  now.Year() - i,
			Price: math.Floor(price + 0.5),
		})
	}
	return history, nil
}
