package processor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"propertyinsight/server/config"
	"propertyinsight/server/internal/database"
	"propertyinsight/server/internal/models"
	"propertyinsight/server/internal/queue"
)

// Transactor is the part of *gorm.DB the processor needs
type Transactor interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// Stats counts what the processor has done since it was created
type Stats struct {
	Batches  int `json:"batches"`
	Stored   int `json:"stored"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// BatchProcessor stores listing batches taken from the queue
type BatchProcessor struct {
	db     Transactor
	logger *logrus.Logger
	config *config.Config
	queue  *queue.ListingQueue
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	stats Stats
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.ListingQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to its queue
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.handle)
}

// Stop aborts pending retries. Batches still queued are rejected quickly.
func (p *BatchProcessor) Stop() {
	p.cancel()
}

func (p *BatchProcessor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *BatchProcessor) handle(ctx context.Context, batch []*models.Property) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	return p.ProcessBatch(ctx, batch)
}

// ProcessBatch validates the listings, splits them into chunks of at most
// MaxBatchSize and stores each chunk in its own transaction.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, batch []*models.Property) error {
	valid := p.validate(batch)

	size := p.config.BatchProcessing.MaxBatchSize
	if size <= 0 {
		size = len(valid)
	}

	for start := 0; start < len(valid); start += size {
		end := start + size
		if end > len(valid) {
			end = len(valid)
		}
		if err := p.processChunk(ctx, valid[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// validate drops listings the analysis cannot use and keeps the last copy
// of any listing that appears twice.
func (p *BatchProcessor) validate(batch []*models.Property) []*models.Property {
	index := make(map[string]int, len(batch))
	valid := make([]*models.Property, 0, len(batch))
	rejected := 0

	for _, prop := range batch {
		if prop == nil || prop.ID == "" || prop.Suburb == "" || prop.Price <= 0 {
			rejected++
			continue
		}
		if i, ok := index[prop.ID]; ok {
			valid[i] = prop
			continue
		}
		index[prop.ID] = len(valid)
		valid = append(valid, prop)
	}

	if rejected > 0 {
		p.logger.WithField("rejected", rejected).Warn("Dropped listings without id, suburb or price")
		p.mu.Lock()
		p.stats.Rejected += rejected
		p.mu.Unlock()
	}
	return valid
}

// processChunk handles a single chunk of listings with transaction and retry logic
func (p *BatchProcessor) processChunk(ctx context.Context, chunk []*models.Property) error {
	maxRetries := p.config.BatchProcessing.MaxRetries
	delay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, maxRetries)
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			if ctx.Err() != nil {
				err = fmt.Errorf("%w: %w", ctx.Err(), err)
				break
			}
		}

		attempts++
		err = p.db.Transaction(func(tx *gorm.DB) error {
			tx = tx.WithContext(ctx)
			if err := database.EnrichProperties(tx, chunk); err != nil {
				return err
			}
			if err := database.UpsertProperties(tx, chunk); err != nil {
				return fmt.Errorf("failed to upsert properties batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d properties", len(chunk))
			p.mu.Lock()
			p.stats.Batches++
			p.stats.Stored += len(chunk)
			p.mu.Unlock()
			return nil
		}

		p.logger.WithError(err).Error("Batch processing failed")
	}

	p.mu.Lock()
	p.stats.Failed += len(chunk)
	p.mu.Unlock()
	return fmt.Errorf("failed to process batch after %d attempts: %w", attempts, err)
}
