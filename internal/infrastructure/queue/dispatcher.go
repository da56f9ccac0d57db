package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/labdesk/identity/internal/api/metrics"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// AuditDispatcher routes audit events to a fixed set of workers using
// consistent hashing on the admin id, preserving per-admin event ordering.
// It implements ports.AuditSink.
type AuditDispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewAuditDispatcher creates an AuditDispatcher with numWorkers sharded
// workers. If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and
// stop when ctx is cancelled; Wait blocks until they have.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *AuditDispatcher) Wait() {
	d.wg.Wait()
}

// Record enqueues event on the worker responsible for its admin. It never
// blocks: when the channel is full the event is dropped and logged.
func (d *AuditDispatcher) Record(event domain.AuditEvent) {
	idx := d.shardIndex(event.AdminUserID)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().
			Str("action", string(event.Action)).
			Str("session_id", event.SessionID).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps an admin id deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(adminID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(adminID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, label, ch)
			return
		case event := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Dec()
			d.write(ctx, id, event)
		}
	}
}

// drain flushes what is already queued once the dispatcher is stopping.
func (d *AuditDispatcher) drain(id int, label string, ch <-chan domain.AuditEvent) {
	for {
		select {
		case event := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Dec()
			d.write(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *AuditDispatcher) write(ctx context.Context, id int, event domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := d.repo.Insert(ctx, &event); err != nil {
		d.log.Error().Err(err).
			Str("action", string(event.Action)).
			Str("session_id", event.SessionID).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
