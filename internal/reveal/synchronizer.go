// Package reveal paces a draw's reveal sequence for one viewer. The wire always
// carries the complete sequence; when each entry appears is decided here.
package reveal

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"savingscircle/internal/domain"
)

const DefaultInterval = 1500 * time.Millisecond

// Step is one revealed entry. Index counts from 1.
type Step struct {
	Identity string
	Index    int
	Total    int
	Entry    domain.RevealEntry
}

// Ticker is the clock driving the reveal.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

type Config struct {
	Interval time.Duration
	// OnStep is called for every revealed entry, in position order.
	OnStep func(Step)
	// OnComplete is called once per identity after its last entry.
	OnComplete func(identity string)
	NewTicker  func(time.Duration) Ticker
}

// Synchronizer reveals at most one sequence at a time. Callbacks run while the
// synchronizer's lock is held and must not call back into it.
type Synchronizer struct {
	cfg Config

	mu        sync.Mutex
	completed map[string]bool
	current   string
	stop      chan struct{}
	wg        sync.WaitGroup
}

func New(cfg Config) *Synchronizer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = newRealTicker
	}
	if cfg.OnStep == nil {
		cfg.OnStep = func(Step) {}
	}
	if cfg.OnComplete == nil {
		cfg.OnComplete = func(string) {}
	}
	return &Synchronizer{cfg: cfg, completed: make(map[string]bool)}
}

// Accept starts revealing seq from its lowest position, whatever order the entries arrived in. A sequence whose identity is
// already being revealed or has completed is ignored and Accept reports false.
// A different identity replaces the reveal in progress.
func (s *Synchronizer) Accept(seq domain.RevealSequence) bool {
	id := seq.Identity()
	s.mu.Lock()
	if s.completed[id] || s.current == id {
		s.mu.Unlock()
		return false
	}
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.current = id
	s.stop = stop
	s.wg.Add(1)
	s.mu.Unlock()

	entries := slices.Clone(seq.Entries)
	slices.SortStableFunc(entries, func(a, b domain.RevealEntry) int { return cmp.Compare(a.Position, b.Position) })
	go s.run(id, entries, stop)
	return true
}

// HandleEvent accepts the reveal sequence carried by ev, if any.
func (s *Synchronizer) HandleEvent(ev domain.Event) bool {
	seq, ok := ev.RevealSequence()
	if !ok {
		return false
	}
	return s.Accept(seq)
}

func (s *Synchronizer) run(id string, entries []domain.RevealEntry, stop chan struct{}) {
	defer s.wg.Done()
	if len(entries) > 0 {
		ticker := s.cfg.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for i, e := range entries {
			select {
			case <-stop:
				return
			case <-ticker.C():
			}
			if !s.emit(id, stop, func() {
				s.cfg.OnStep(Step{Identity: id, Index: i + 1, Total: len(entries), Entry: e})
			}) {
				return
			}
		}
	}
	s.emit(id, stop, func() {
		s.completed[id] = true
		s.current = ""
		s.stop = nil
		s.cfg.OnComplete(id)
	})
}

// emit runs fn under the lock if the reveal identified by stop is still current.
func (s *Synchronizer) emit(id string, stop chan struct{}, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != id || s.stop != stop {
		return false
	}
	select {
	case <-stop:
		return false
	default:
	}
	fn()
	return true
}

// Completed reports whether the sequence with identity id finished revealing.
func (s *Synchronizer) Completed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[id]
}

// Stop abandons any reveal in progress and forgets every identity seen, so the
// next Accept replays from the first entry.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	s.stop = nil
	s.current = ""
	s.completed = make(map[string]bool)
	s.mu.Unlock()
	s.wg.Wait()
}
