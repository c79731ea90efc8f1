package broker

import (
	"sync"

	"savingscircle/internal/domain"
)

// Subscription is one viewer attached to a group's channel.
type Subscription struct {
	id      uint64
	groupID string
	conn    Conn
	broker  *Broker
	queue   chan domain.Event
	done    chan struct{}
	once    sync.Once

	mu         sync.Mutex
	catchingUp bool
	pending    []domain.Event
	limit      int
	err        error
}

func (s *Subscription) GroupID() string { return s.groupID }

// Done is closed once the subscription has ended, by Close or because the broker dropped it.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err reports why the subscription ended. It is nil while attached and after Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close detaches the viewer. Other viewers of the group are unaffected.
func (s *Subscription) Close() {
	s.broker.detach(s, nil)
}

// offer queues ev without blocking. It reports false when the viewer cannot keep up.
func (s *Subscription) offer(ev domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catchingUp {
		if len(s.pending) >= s.limit {
			return false
		}
		s.pending = append(s.pending, ev)
		return true
	}
	return s.push(ev)
}

func (s *Subscription) push(ev domain.Event) bool {
	select {
	case s.queue <- ev:
		return true
	default:
		return false
	}
}

// finishCatchUp queues catchUp, if any, ahead of the events held back while it was built.
func (s *Subscription) finishCatchUp(catchUp *domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catchingUp = false
	if catchUp != nil && !s.push(*catchUp) {
		return false
	}
	for _, ev := range s.pending {
		if !s.push(ev) {
			return false
		}
	}
	s.pending = nil
	return true
}

func (s *Subscription) terminate(reason error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = reason
		s.pending = nil
		s.mu.Unlock()
		close(s.done)
	})
}
