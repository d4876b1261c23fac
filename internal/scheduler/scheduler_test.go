package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propertyinsight/server/config"
	"propertyinsight/server/internal/database"
	"propertyinsight/server/internal/models"
	"propertyinsight/server/internal/processor"
	"propertyinsight/server/internal/queue"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Search(ctx context.Context, suburb string, filters *models.SearchFilters) ([]*models.Property, error) {
	args := m.Called(suburb)
	props, _ := args.Get(0).([]*models.Property)
	return props, args.Error(1)
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]*models.Property
	flushes int
	err     error
}

func (p *recordingPublisher) Push(batch []*models.Property) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, batch)
	return nil
}

func (p *recordingPublisher) Flush(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes++
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

type stubCoords struct {
	mu    sync.Mutex
	calls int
}

func (c *stubCoords) UpdateMissingCoordinates(_ context.Context, _ database.Geocoder) (database.GeocodeStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return database.GeocodeStats{Total: 2, Updated: 1, Failed: 1}, nil
}

type noopGeocoder struct{}

func (noopGeocoder) GeocodeAddress(context.Context, string, string, string, string) (float64, float64, error) {
	return 0, 0, nil
}

func TestJobTypeString(t *testing.T) {
	assert.Equal(t, "startup", JobTypeStartup.String())
	assert.Equal(t, "scheduled", JobTypeScheduled.String())
	assert.Equal(t, "manual", JobTypeManual.String())
	assert.Equal(t, "unknown", JobType(42).String())
}

func TestScheduler_RunNow(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fetcher := new(mockFetcher)
	fetcher.On("Search", "Parramatta").Return([]*models.Property{{ID: "a"}, {ID: "b"}}, nil)
	fetcher.On("Search", "Chatswood").Return(nil, errors.New("rate limited"))
	publisher := &recordingPublisher{}
	coords := &stubCoords{}

	s := NewScheduler(fetcher, publisher, coords, noopGeocoder{}, logger, []string{" parramatta", "CHATSWOOD", "  "}, time.Hour)
	result, err := s.RunNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "manual", result.Job)
	assert.Equal(t, 2, result.Suburbs)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Queued)
	assert.Equal(t, []string{"Chatswood"}, result.Failed)
	require.NotNil(t, result.Geocode)
	assert.Equal(t, 1, result.Geocode.Updated)

	assert.Equal(t, 1, publisher.count())
	assert.Equal(t, 1, publisher.flushes)
	assert.Equal(t, 1, coords.calls)
	fetcher.AssertExpectations(t)
}

func TestScheduler_RunNowWithoutGeocoder(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fetcher := new(mockFetcher)
	fetcher.On("Search", "Parramatta").Return([]*models.Property{}, nil)
	coords := &stubCoords{}

	s := NewScheduler(fetcher, &recordingPublisher{}, coords, nil, logger, []string{"Parramatta"}, time.Hour)
	result, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Geocode)
	assert.Zero(t, coords.calls)
}

func TestScheduler_QueueFull(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fetcher := new(mockFetcher)
	fetcher.On("Search", "Parramatta").Return([]*models.Property{{ID: "a"}}, nil)

	s := NewScheduler(fetcher, &recordingPublisher{err: queue.ErrQueueFull}, nil, nil, logger, []string{"Parramatta"}, time.Hour)
	result, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Zero(t, result.Queued)
	assert.Equal(t, []string{"Parramatta"}, result.Failed)
}

func TestScheduler_RunNowRejectsOverlap(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewScheduler(new(mockFetcher), &recordingPublisher{}, nil, nil, logger, nil, time.Hour)

	s.jobMutex.Lock()
	_, err := s.RunNow(context.Background())
	s.jobMutex.Unlock()
	assert.ErrorIs(t, err, ErrRefreshInProgress)
}

func TestScheduler_StartRunsStartupAndTicks(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fetcher := new(mockFetcher)
	fetcher.On("Search", "Parramatta").Return([]*models.Property{{ID: "a"}}, nil)
	publisher := &recordingPublisher{}

	s := NewScheduler(fetcher, publisher, nil, nil, logger, []string{"Parramatta"}, 20*time.Millisecond)
	s.Start()

	assert.Eventually(t, func() bool { return publisher.count() >= 3 }, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.isStartupRun.Load())
}

type countingGeocoder struct {
	mu    sync.Mutex
	calls int
}

func (g *countingGeocoder) GeocodeAddress(context.Context, string, string, string, string) (float64, float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return -33.8151, 151.0011, nil
}

func TestScheduler_RefreshStoresThenGeocodes(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))
	store := database.Wrap(db)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.BatchProcessing.MaxBatchSize = 10

	q := queue.NewListingQueue(4, logger)
	p := processor.NewBatchProcessor(db, q, cfg, logger)
	p.Start()
	q.Start(ctx)
	t.Cleanup(func() {
		q.Close()
		p.Stop()
	})

	fetcher := new(mockFetcher)
	fetcher.On("Search", "Parramatta").Return([]*models.Property{{
		ID: "domain-1", Source: "domain", Address: "8 Macquarie Street",
		Suburb: "Parramatta", State: "NSW", Postcode: "2150", Price: 910000,
	}}, nil)
	geocoder := &countingGeocoder{}

	s := NewScheduler(fetcher, q, store, geocoder, logger, []string{"Parramatta"}, time.Hour)
	result, err := s.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Queued)
	require.NotNil(t, result.Geocode)
	assert.Equal(t, database.GeocodeStats{Total: 1, Updated: 1}, *result.Geocode)
	assert.Equal(t, 1, geocoder.calls)

	stored, err := store.GetProperty(ctx, "domain-1")
	require.NoError(t, err)
	require.True(t, stored.HasCoordinates())
	assert.Equal(t, -33.8151, *stored.Latitude)

	// the next refresh brings the listing back without coordinates
	result, err = s.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, database.GeocodeStats{}, *result.Geocode)
	assert.Equal(t, 1, geocoder.calls)

	stored, err = store.GetProperty(ctx, "domain-1")
	require.NoError(t, err)
	require.True(t, stored.HasCoordinates())
	assert.Equal(t, processor.Stats{Batches: 2, Stored: 2}, p.Stats())
}
