// Package scheduler runs the background housekeeping loops: expiry sweeps
// for duels and raids, ranking snapshots, and activity log pruning.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is a scheduled unit of work. Tasks take no arguments; anything
// they need is closed over at registration time.
type TaskFn func()

// Scheduler owns a set of named periodic and one-shot tasks. Names are
// unique per scheduler; registering a name again replaces the old task.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*loop
	timers  map[string]*time.Timer
	logger  *zap.Logger
	stopCh  chan struct{}
}

type loop struct {
	ticker *time.Ticker
	stopCh chan struct{}
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tickers: make(map[string]*loop),
		timers:  make(map[string]*time.Timer),
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
}

// AddTicker runs fn every interval until the task is removed or the
// scheduler stops. A panicking run is logged and the loop keeps ticking,
// so one bad sweep does not stop all future sweeps.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		close(old.stopCh)
		delete(s.tickers, name)
	}

	l := &loop{
		ticker: time.NewTicker(interval),
		stopCh: make(chan struct{}),
	}
	s.tickers[name] = l

	go func() {
		for {
			select {
			case <-l.ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							s.logger.Error("sweep task panicked",
								zap.String("task", name),
								zap.Any("recover", r))
						}
					}()
					fn()
				}()
			case <-l.stopCh:
				l.ticker.Stop()
				return
			case <-s.stopCh:
				l.ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("background task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after delay, then forgets the name.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.Stop()
	}
	s.timers[name] = time.AfterFunc(delay, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("delayed task panicked",
					zap.String("task", name), zap.Any("recover", r))
			}
			s.mu.Lock()
			delete(s.timers, name)
			s.mu.Unlock()
		}()
		fn()
	})
}

// Remove stops the named task, whether periodic or delayed.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.tickers[name]; ok {
		close(l.stopCh)
		delete(s.tickers, name)
	}
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

// Stop shuts down every ticker loop. Safe to call more than once.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// ListTickers names the live periodic tasks, for the admin status endpoint.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	return names
}
