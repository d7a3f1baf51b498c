// Package clicklog records attribution events asynchronously relative to
// the redirect response. A bounded queue feeds a worker pool; the redirect
// path only ever pays for a channel send.
package clicklog

import (
	"context"
	"sync"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/config"
	"github.com/Alirezastar2/utmkit-sub001/metrics"
	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Recorder persists clicks off the request path. Writes are retried with
// exponential backoff on transient store failures; under a sustained outage
// the event is dropped with a logged diagnostic. Click loss is acceptable, a
// blocked redirect is not.
type Recorder struct {
	store   store.Store
	cfg     config.RecorderConfig
	metrics *metrics.Metrics

	queue     chan model.ClickMeta
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts the worker pool and returns a ready recorder.
func New(st store.Store, cfg config.RecorderConfig, m *metrics.Metrics) *Recorder {
	r := &Recorder{
		store:   st,
		cfg:     cfg,
		metrics: m,
		queue:   make(chan model.ClickMeta, cfg.QueueSize),
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	log.Info().
		Int("workers", workers).
		Int("queue_size", cfg.QueueSize).
		Msg("Click recorder started")
	return r
}

// Record enqueues an attribution event without blocking. When the queue is
// full the event is dropped and counted; the caller's redirect is already
// in flight and must not wait.
func (r *Recorder) Record(meta model.ClickMeta) {
	select {
	case r.queue <- meta:
	default:
		r.metrics.CountClickDropped()
		log.Warn().Str("link_id", meta.LinkID).Msg("Click queue full, dropping event")
	}
}

func (r *Recorder) worker(id int) {
	defer r.wg.Done()
	for meta := range r.queue {
		r.persist(id, meta)
	}
}

func (r *Recorder) persist(workerID int, meta model.ClickMeta) {
	device, os, browser := classifyUserAgent(meta.UserAgent)

	// CreatedAt is recording time; a single clock per recorder keeps
	// per-link timestamps non-decreasing under normal operation.
	click := model.Click{
		ID:         uuid.New().String(),
		LinkID:     meta.LinkID,
		CreatedAt:  time.Now().UTC(),
		Referrer:   meta.Referrer,
		UserAgent:  meta.UserAgent,
		IP:         meta.IP,
		DeviceType: device,
		OS:         os,
		Browser:    browser,
		Country:    meta.Country,
		City:       meta.City,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(r.cfg.RetryBaseMs) * time.Millisecond

	err := backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return r.store.AppendClick(ctx, click)
	}, backoff.WithMaxRetries(policy, uint64(r.cfg.MaxRetries)))

	if err != nil {
		r.metrics.CountClickDropped()
		log.Error().
			Err(err).
			Int("worker", workerID).
			Str("link_id", click.LinkID).
			Msg("Dropping click after exhausting retries")
		return
	}

	r.metrics.CountClickRecorded()
	log.Debug().
		Int("worker", workerID).
		Str("link_id", click.LinkID).
		Str("click_id", click.ID).
		Msg("Click recorded")
}

// Close stops accepting events and waits for the queue to drain, bounded by
// the configured drain timeout.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)

		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()

		timeout := time.Duration(r.cfg.DrainTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		select {
		case <-done:
			log.Info().Msg("Click recorder drained")
		case <-time.After(timeout):
			log.Warn().Msg("Click recorder drain timed out, remaining events lost")
		}
	})
}
