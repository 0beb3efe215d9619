// Package scheduler periodically rebuilds the function registry.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-fn/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-fn/pkg/registry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Refresher rebuilds and publishes a snapshot.
type Refresher interface {
	Refresh() (*registry.Snapshot, error)
}

// Scheduler runs one refresh at Start and then one per interval. Refreshes
// never overlap; ticks that arrive while one is running are dropped.
type Scheduler struct {
	reg      Refresher
	interval time.Duration
	log      *zap.Logger

	trigger chan struct{}
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(reg Refresher, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		reg:      reg,
		interval: interval,
		log:      log,
		trigger:  make(chan struct{}, 1),
	}
}

// Start performs the initial refresh synchronously, then starts the loop.
func (s *Scheduler) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil
	}

	s.run("startup")

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	return nil
}

// Stop ends the loop and waits for an in-progress refresh, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger asks for a refresh outside the schedule. Pending triggers coalesce.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.run("interval")
		case <-s.trigger:
			s.run("trigger")
		}
	}
}

func (s *Scheduler) run(reason string) {
	start := time.Now()
	snap, err := s.reg.Refresh()
	failed := len(registry.Failures(err))
	metrics.ObserveRefresh(time.Since(start), snap.Len(), failed)
	s.log.Debug("refresh finished",
		zap.String("reason", reason),
		zap.Duration("took", time.Since(start)),
		zap.Int("failed", failed),
	)
}

// Register ties the scheduler to the fx lifecycle. Invoke it before the HTTP
// server hook so the first refresh finishes before the listener opens.
func Register(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
}
