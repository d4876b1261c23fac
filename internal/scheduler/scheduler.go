package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"propertyinsight/server/config"
	"propertyinsight/server/internal/database"
	"propertyinsight/server/internal/models"
)

// ErrRefreshInProgress is returned when a manual refresh overlaps another run.
var ErrRefreshInProgress = errors.New("a listing refresh is already running")

// JobType represents what triggered a refresh
type JobType int

const (
	JobTypeStartup JobType = iota
	JobTypeScheduled
	JobTypeManual
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeStartup:
		return "startup"
	case JobTypeScheduled:
		return "scheduled"
	case JobTypeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Fetcher pulls current listings for a suburb
type Fetcher interface {
	Search(ctx context.Context, suburb string, filters *models.SearchFilters) ([]*models.Property, error)
}

// Publisher hands fetched listings to the storage pipeline. Flush returns
// once every pushed batch has been stored.
type Publisher interface {
	Push(batch []*models.Property) error
	Flush(ctx context.Context) error
}

// CoordinateUpdater backfills coordinates of stored listings
type CoordinateUpdater interface {
	UpdateMissingCoordinates(ctx context.Context, geocoder database.Geocoder) (database.GeocodeStats, error)
}

// RefreshResult summarises one refresh run
type RefreshResult struct {
	Job     string                 `json:"job"`
	Suburbs int                    `json:"suburbs"`
	Fetched int                    `json:"fetched"`
	Queued  int                    `json:"queued"`
	Failed  []string               `json:"failed"`
	Geocode *database.GeocodeStats `json:"geocode,omitempty"`
}

// Scheduler refreshes listings at startup and then on every interval
type Scheduler struct {
	fetcher      Fetcher
	publisher    Publisher
	coords       CoordinateUpdater
	geocoder     database.Geocoder
	logger       *logrus.Logger
	suburbs      []string
	interval     time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	jobMutex     sync.Mutex  // Ensures sequential job execution
	isStartupRun atomic.Bool // Tracks whether we're in startup run
}

// NewScheduler creates a new scheduler. geocoder may be nil, in which case
// coordinates are not backfilled.
func NewScheduler(fetcher Fetcher, publisher Publisher, coords CoordinateUpdater, geocoder database.Geocoder, logger *logrus.Logger, suburbs []string, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if interval <= 0 {
		interval = time.Hour
	}

	return &Scheduler{
		fetcher:   fetcher,
		publisher: publisher,
		coords:    coords,
		geocoder:  geocoder,
		logger:    logger,
		suburbs:   suburbs,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.isStartupRun.Store(true)
	s.wg.Add(1)
	go s.runScheduler()
}

// runScheduler handles all scheduled tasks
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stopChan
		cancel()
	}()

	// Run the startup refresh in a separate goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.jobMutex.Lock()
		defer s.jobMutex.Unlock()
		s.logger.Info("Running startup listing refresh")
		s.refresh(ctx, JobTypeStartup)
		s.isStartupRun.Store(false)
		s.logger.Info("Startup listing refresh completed")
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.executeScheduledJob(ctx)
		}
	}
}

// executeScheduledJob runs a refresh unless another one is still going
func (s *Scheduler) executeScheduledJob(ctx context.Context) {
	// Skip if we're still running startup jobs
	if s.isStartupRun.Load() {
		s.logger.Debug("Skipping scheduled refresh while startup is in progress")
		return
	}
	if !s.jobMutex.TryLock() {
		s.logger.Debug("Skipping scheduled refresh while another refresh is running")
		return
	}
	defer s.jobMutex.Unlock()

	s.refresh(ctx, JobTypeScheduled)
}

// RunNow performs a refresh immediately and waits for it to finish.
func (s *Scheduler) RunNow(ctx context.Context) (*RefreshResult, error) {
	if !s.jobMutex.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer s.jobMutex.Unlock()

	return s.refresh(ctx, JobTypeManual), nil
}

// refresh fetches every configured suburb sequentially, queues the listings,
// waits for them to be stored and then geocodes stored listings that still
// lack coordinates.
func (s *Scheduler) refresh(ctx context.Context, job JobType) *RefreshResult {
	result := &RefreshResult{Job: job.String(), Failed: []string{}}

	for _, suburb := range s.suburbs {
		if ctx.Err() != nil {
			break
		}
		normalized := config.NormalizeSuburb(suburb)
		if normalized == "" {
			continue
		}
		result.Suburbs++

		fields := logrus.Fields{
			"suburb":   normalized,
			"job_type": job.String(),
		}
		s.logger.WithFields(fields).Info("Starting listing fetch")

		listings, err := s.fetcher.Search(ctx, normalized, nil)
		if err != nil {
			s.logger.WithError(err).WithFields(fields).Error("Listing fetch failed")
			result.Failed = append(result.Failed, normalized)
			continue
		}
		result.Fetched += len(listings)

		if err := s.publisher.Push(listings); err != nil {
			s.logger.WithError(err).WithFields(fields).Error("Failed to queue listings")
			result.Failed = append(result.Failed, normalized)
			continue
		}
		result.Queued += len(listings)

		s.logger.WithFields(fields).WithField("listings", len(listings)).Info("Listing fetch completed successfully")
	}

	// listings are stored asynchronously; geocode only once they are in
	if result.Queued > 0 {
		if err := s.publisher.Flush(ctx); err != nil {
			s.logger.WithError(err).WithField("job_type", job.String()).Error("Failed waiting for queued listings to be stored")
		}
	}

	if s.geocoder != nil && s.coords != nil && ctx.Err() == nil {
		stats, err := s.coords.UpdateMissingCoordinates(ctx, s.geocoder)
		if err != nil {
			s.logger.WithError(err).Error("Failed to update missing coordinates")
		} else {
			s.logger.WithFields(logrus.Fields{
				"total":   stats.Total,
				"updated": stats.Updated,
				"failed":  stats.Failed,
			}).Info("Coordinate backfill completed")
		}
		result.Geocode = &stats
	}

	return result
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}
