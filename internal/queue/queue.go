package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"propertyinsight/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler consumes one batch of listings.
type Handler func(ctx context.Context, batch []*models.Property) error

// ListingQueue is a bounded in-memory queue of listing batches. Batches are
// delivered in order to every subscribed handler by a single worker.
type ListingQueue struct {
	items    chan []*models.Property
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *logrus.Logger
	handlers []Handler

	// pending counts pushed batches whose handlers have not finished
	pendingMu sync.Mutex
	pending   int
	idle      *sync.Cond
}

// NewListingQueue creates a queue holding at most bufferSize batches
func NewListingQueue(bufferSize int, logger *logrus.Logger) *ListingQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	q := &ListingQueue{
		items:    make(chan []*models.Property, bufferSize),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]Handler, 0),
	}
	q.idle = sync.NewCond(&q.pendingMu)
	return q
}

func (q *ListingQueue) addPending(delta int) {
	q.pendingMu.Lock()
	q.pending += delta
	if q.pending == 0 {
		q.idle.Broadcast()
	}
	q.pendingMu.Unlock()
}

// Push adds a batch without blocking. Empty batches are ignored.
func (q *ListingQueue) Push(batch []*models.Property) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if len(batch) == 0 {
		return nil
	}

	q.addPending(1)
	select {
	case q.items <- batch:
		q.logger.WithField("batch_size", len(batch)).Debug("Pushed batch to queue")
		return nil
	default:
		q.addPending(-1)
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *ListingQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start launches the worker. Handlers receive ctx; calling Start twice is a no-op.
func (q *ListingQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true

	q.wg.Add(1)
	go q.process(ctx)
}

func (q *ListingQueue) process(ctx context.Context) {
	defer q.wg.Done()
	for batch := range q.items {
		q.processBatch(ctx, batch)
		q.addPending(-1)
	}
}

// Flush blocks until every batch pushed so far has been through all
// handlers, or ctx is done. The queue must have been started.
func (q *ListingQueue) Flush(ctx context.Context) error {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		q.pendingMu.Lock()
		q.idle.Broadcast()
		q.pendingMu.Unlock()
	})
	defer stop()

	for q.pending > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.idle.Wait()
	}
	return nil
}

// processBatch sends the batch to all subscribed handlers
func (q *ListingQueue) processBatch(ctx context.Context, batch []*models.Property) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close rejects new batches and waits until the worker has handled the ones
// already queued.
func (q *ListingQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

// Len returns the current number of batches in the queue
func (q *ListingQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ListingQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
