// Package scheduler runs the recurring push pipeline: on every tick (or
// manual trigger) it reloads configuration, selects one note per enabled
// plugin, compresses the field payload, and posts it to the plugin's
// webhook. Plugins run independently; one failing webhook never blocks the
// others.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cardbeam/cardbeam/internal/codec"
	"github.com/cardbeam/cardbeam/internal/events"
	"github.com/cardbeam/cardbeam/internal/notestore"
	"github.com/cardbeam/cardbeam/internal/payload"
	"github.com/cardbeam/cardbeam/internal/pusher"
	"github.com/cardbeam/cardbeam/internal/selector"
)

// Plugin is one push target inside a Snapshot.
type Plugin struct {
	Enabled       bool
	SearchQuery   string
	VisibleFields []string
	Webhook       string
}

// Snapshot is an immutable view of the configuration, loaded fresh at the
// start of every cycle. It is read-only once a cycle holds it.
type Snapshot struct {
	Interval time.Duration
	Plugins  []Plugin
}

// Loader re-reads configuration from persisted storage. It is called on
// every cycle so config edits take effect without a restart.
type Loader func() (*Snapshot, error)

// Plugin result statuses.
const (
	StatusPushed   = "pushed"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// PluginResult records the outcome of one plugin in one cycle.
type PluginResult struct {
	Index     int    `json:"index"`
	Query     string `json:"query"`
	Status    string `json:"status"`
	Fields    int    `json:"fields,omitempty"`
	BlobBytes int    `json:"blob_bytes,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Report summarizes one cycle.
type Report struct {
	At          time.Time      `json:"at"`
	ConfigError string         `json:"config_error,omitempty"`
	Plugins     []PluginResult `json:"plugins"`
}

// LatestBlob is the most recent blob pushed for a plugin, retained so the
// local HTTP API can serve it back to a display for dev loops.
type LatestBlob struct {
	Blob string
	At   time.Time
}

// Scheduler owns the polling loop.
type Scheduler struct {
	loader Loader
	store  notestore.Store
	pusher *pusher.Pusher
	broker *events.Broker
	logger *slog.Logger

	// running guards against overlapping cycles: a manual trigger while a
	// cycle is in progress is dropped, never run concurrently.
	running   atomic.Bool
	triggerCh chan struct{}

	mu         sync.Mutex
	lastReport *Report
	latest     map[int]LatestBlob
}

// New creates a Scheduler. broker may be nil when no SSE clients exist
// (one-shot CLI runs).
func New(loader Loader, store notestore.Store, push *pusher.Pusher, broker *events.Broker, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		loader:    loader,
		store:     store,
		pusher:    push,
		broker:    broker,
		logger:    logger,
		triggerCh: make(chan struct{}, 1),
		latest:    make(map[int]LatestBlob),
	}
}

// Trigger requests an immediate out-of-band cycle ("refresh now"). It
// never blocks; if a trigger is already pending it is coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Run is the long-lived polling loop. It fires a cycle every effective
// refresh interval and on every manual trigger, until ctx is cancelled.
// The interval is re-read from configuration each cycle, so edits take
// effect on the next timer reset.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.initialInterval()
	s.logger.Info("scheduler: started", slog.Duration("interval", interval))

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: stopped")
			return nil

		case <-timer.C:
		case <-s.triggerCh:
			// Drain the expired timer before reuse.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		if next := s.RunOnce(ctx); next > 0 && next != interval {
			s.logger.Info("scheduler: interval changed",
				slog.Duration("old", interval), slog.Duration("new", next))
			interval = next
		}
		timer.Reset(interval)
	}
}

// RunOnce executes a single cycle and returns the snapshot's interval, or
// 0 when the cycle was skipped or configuration failed to load (keeping
// the previous interval in effect).
func (s *Scheduler) RunOnce(ctx context.Context) time.Duration {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("scheduler: cycle already in progress, trigger dropped")
		return 0
	}
	defer s.running.Store(false)

	report := &Report{At: time.Now().UTC()}

	snap, err := s.loader()
	if err != nil {
		// A broken config halts only this run; the loop keeps going on
		// the previous interval.
		report.ConfigError = err.Error()
		s.setReport(report)
		s.logger.Error("scheduler: config reload failed", slog.String("error", err.Error()))
		s.publish(events.Event{Type: events.TypeRunFinished, Data: report})
		return 0
	}

	report.Plugins = make([]PluginResult, len(snap.Plugins))

	g := new(errgroup.Group)
	for i, pl := range snap.Plugins {
		if !pl.Enabled {
			report.Plugins[i] = PluginResult{Index: i, Query: pl.SearchQuery, Status: StatusDisabled}
			continue
		}
		g.Go(func() error {
			// Each plugin is an independent stream; errors are recorded
			// in its slot, never returned, so siblings always run.
			report.Plugins[i] = s.runPlugin(ctx, i, pl)
			return nil
		})
	}
	_ = g.Wait()

	s.setReport(report)
	for _, res := range report.Plugins {
		switch res.Status {
		case StatusPushed:
			s.publish(events.Event{Type: events.TypePushOK, Data: res})
		case StatusError:
			s.publish(events.Event{Type: events.TypePushError, Data: res})
		}
	}
	s.publish(events.Event{Type: events.TypeRunFinished, Data: report})

	return snap.Interval
}

// runPlugin executes select -> build -> compress -> push for one plugin.
func (s *Scheduler) runPlugin(ctx context.Context, idx int, pl Plugin) PluginResult {
	res := PluginResult{Index: idx, Query: pl.SearchQuery}

	note, err := selector.Select(s.store, pl.SearchQuery, pl.VisibleFields)
	if err != nil {
		res.Status = StatusError
		res.Detail = err.Error()
		s.logger.Warn("scheduler: query failed",
			slog.Int("plugin", idx), slog.String("error", err.Error()))
		return res
	}
	if note == nil {
		// Zero matches is not an error; the plugin sits this cycle out.
		res.Status = StatusSkipped
		res.Detail = "no matching notes"
		s.logger.Info("scheduler: no matching notes",
			slog.Int("plugin", idx), slog.String("query", pl.SearchQuery))
		return res
	}

	p := payload.Build(note, pl.VisibleFields)
	res.Fields = len(p)

	blob, err := codec.Compress(p)
	if err != nil {
		res.Status = StatusError
		res.Detail = err.Error()
		return res
	}
	res.BlobBytes = len(blob)

	if err := s.pusher.Push(ctx, pl.Webhook, blob); err != nil {
		res.Status = StatusError
		res.Detail = err.Error()
		s.logger.Warn("scheduler: push failed",
			slog.Int("plugin", idx), slog.String("error", err.Error()))
		return res
	}

	s.setLatest(idx, blob)
	res.Status = StatusPushed
	s.logger.Info("scheduler: pushed",
		slog.Int("plugin", idx),
		slog.Int64("note_id", note.ID),
		slog.Int("fields", res.Fields),
		slog.Int("blob_bytes", res.BlobBytes))
	return res
}

// LastReport returns the most recent cycle report, or nil before the
// first cycle.
func (s *Scheduler) LastReport() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

// Latest returns the most recent blob pushed for the given plugin index.
func (s *Scheduler) Latest(idx int) (LatestBlob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb, ok := s.latest[idx]
	return lb, ok
}

func (s *Scheduler) setReport(r *Report) {
	s.mu.Lock()
	s.lastReport = r
	s.mu.Unlock()
}

func (s *Scheduler) setLatest(idx int, blob string) {
	s.mu.Lock()
	s.latest[idx] = LatestBlob{Blob: blob, At: time.Now().UTC()}
	s.mu.Unlock()
}

func (s *Scheduler) publish(ev events.Event) {
	if s.broker != nil {
		s.broker.Publish(ev)
	}
}

// initialInterval loads the config once to size the first timer. When the
// config is broken at startup the default interval keeps the loop alive
// until the file is fixed.
func (s *Scheduler) initialInterval() time.Duration {
	snap, err := s.loader()
	if err != nil {
		s.logger.Error("scheduler: initial config load failed",
			slog.String("error", fmt.Sprintf("%v", err)))
		return 600 * time.Second
	}
	return snap.Interval
}
