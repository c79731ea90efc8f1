// Package broker fans group lifecycle events out to attached viewers. Every
// group has one topic; a viewer that attaches after a draw first receives the
// complete reveal sequence as a catch-up message, then live events in order.
package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"savingscircle/internal/domain"
)

var (
	ErrClosed         = errors.New("broker closed")
	ErrSlowSubscriber = errors.New("subscriber queue overflow")
)

const (
	DefaultQueueSize    = 32
	DefaultWriteTimeout = 5 * time.Second

	shardCount = 32
)

// Conn is a viewer connection. WriteEvent must honor ctx's deadline.
type Conn interface {
	WriteEvent(ctx context.Context, ev domain.Event) error
}

// Forwarder receives every locally published event.
type Forwarder interface {
	Forward(groupID string, ev domain.Event)
}

type Config struct {
	// QueueSize bounds the events buffered per viewer before it is dropped.
	QueueSize int
	// WriteTimeout bounds a single write to a viewer.
	WriteTimeout time.Duration
}

type Broker struct {
	snapshots domain.SnapshotProvider
	cfg       Config
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time

	shards [shardCount]shard
	nextID atomic.Uint64
	closed atomic.Bool
	wg     sync.WaitGroup

	fwdMu     sync.RWMutex
	forwarder Forwarder
}

type shard struct {
	mu     sync.Mutex
	topics map[string]*topic
}

// topic is one group's channel. seq numbers the events fanned out on it.
type topic struct {
	mu   sync.Mutex
	seq  uint64
	subs map[uint64]*Subscription
}

var _ domain.EventPublisher = (*Broker)(nil)

// New returns a broker that builds catch-up messages from snapshots. metrics may be nil.
func New(snapshots domain.SnapshotProvider, cfg Config, metrics *Metrics, logger *slog.Logger) *Broker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	b := &Broker{
		snapshots: snapshots,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
	for i := range b.shards {
		b.shards[i].topics = make(map[string]*topic)
	}
	return b
}

// SetForwarder installs f to receive local publishes, typically a cross-instance relay.
func (b *Broker) SetForwarder(f Forwarder) {
	b.fwdMu.Lock()
	b.forwarder = f
	b.fwdMu.Unlock()
}

func (b *Broker) shardFor(groupID string) *shard {
	return &b.shards[xxhash.Sum64String(groupID)%shardCount]
}

// Subscribe attaches conn to the group's channel. If the group has been drawn,
// the first event conn receives is a catch-up carrying the full reveal sequence.
// Events published while the snapshot is read are held back until the catch-up is queued.
func (b *Broker) Subscribe(ctx context.Context, groupID string, conn Conn) (*Subscription, error) {
	s := &Subscription{
		id:         b.nextID.Add(1),
		groupID:    groupID,
		conn:       conn,
		broker:     b,
		queue:      make(chan domain.Event, b.cfg.QueueSize+1),
		done:       make(chan struct{}),
		catchingUp: true,
		limit:      b.cfg.QueueSize,
	}
	seq, err := b.register(s)
	if err != nil {
		return nil, err
	}
	go b.runWriter(s)

	snap, err := b.snapshots.CurrentState(ctx, groupID)
	if err != nil {
		b.detach(s, nil)
		return nil, err
	}
	var catchUp *domain.Event
	if snap.Draw != nil {
		ev := domain.NewCatchUpEvent(snap, b.now())
		ev.Seq = seq
		catchUp = &ev
		b.metrics.catchUp()
	}
	if !s.finishCatchUp(catchUp) {
		b.drop(s, ErrSlowSubscriber)
		return nil, ErrSlowSubscriber
	}
	b.logger.DebugContext(ctx, "viewer attached", "group_id", groupID, "subscriber", s.id, "catch_up", catchUp != nil)
	return s, nil
}

// register adds s to its topic and returns the topic's sequence at that point.
func (b *Broker) register(s *Subscription) (uint64, error) {
	sh := b.shardFor(s.groupID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if b.closed.Load() {
		return 0, ErrClosed
	}
	t, ok := sh.topics[s.groupID]
	if !ok {
		t = &topic{subs: make(map[uint64]*Subscription)}
		sh.topics[s.groupID] = t
	}
	t.mu.Lock()
	t.subs[s.id] = s
	seq := t.seq
	t.mu.Unlock()
	b.wg.Add(1)
	b.metrics.subscriberAdded()
	return seq, nil
}

// Publish fans ev out to the group's local viewers and hands it to the forwarder.
// It never blocks on viewers.
func (b *Broker) Publish(groupID string, ev domain.Event) {
	b.Deliver(groupID, ev)
	b.fwdMu.RLock()
	f := b.forwarder
	b.fwdMu.RUnlock()
	if f != nil {
		f.Forward(groupID, ev)
	}
}

// Deliver fans ev out to local viewers only. A group without viewers is a no-op.
func (b *Broker) Deliver(groupID string, ev domain.Event) {
	if b.closed.Load() {
		return
	}
	sh := b.shardFor(groupID)
	sh.mu.Lock()
	t := sh.topics[groupID]
	sh.mu.Unlock()
	if t == nil {
		return
	}

	ev.GroupID = groupID
	t.mu.Lock()
	if len(t.subs) == 0 {
		t.mu.Unlock()
		return
	}
	t.seq++
	ev.Seq = t.seq
	var slow []*Subscription
	for id, s := range t.subs {
		if !s.offer(ev) {
			delete(t.subs, id)
			slow = append(slow, s)
		}
	}
	empty := len(t.subs) == 0
	t.mu.Unlock()
	b.metrics.published(ev.Type)

	for _, s := range slow {
		b.metrics.subscriberRemoved()
		b.metrics.dropped()
		s.terminate(ErrSlowSubscriber)
		b.logger.Warn("viewer dropped", "group_id", groupID, "subscriber", s.id, "err", ErrSlowSubscriber)
	}
	if empty {
		b.pruneTopic(groupID, t)
	}
}

func (b *Broker) pruneTopic(groupID string, t *topic) {
	sh := b.shardFor(groupID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.subs) == 0 && sh.topics[groupID] == t {
		delete(sh.topics, groupID)
	}
}

// detach removes s from its topic and stops its writer. It reports whether s was still attached.
func (b *Broker) detach(s *Subscription, reason error) bool {
	sh := b.shardFor(s.groupID)
	sh.mu.Lock()
	removed := false
	if t, ok := sh.topics[s.groupID]; ok {
		t.mu.Lock()
		if t.subs[s.id] == s {
			delete(t.subs, s.id)
			removed = true
		}
		if len(t.subs) == 0 {
			delete(sh.topics, s.groupID)
		}
		t.mu.Unlock()
	}
	sh.mu.Unlock()
	if removed {
		b.metrics.subscriberRemoved()
	}
	s.terminate(reason)
	return removed
}

func (b *Broker) drop(s *Subscription, reason error) {
	if b.detach(s, reason) {
		b.metrics.dropped()
		b.logger.Warn("viewer dropped", "group_id", s.groupID, "subscriber", s.id, "err", reason)
	}
}

func (b *Broker) runWriter(s *Subscription) {
	defer b.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.queue:
			ctx, cancel := context.WithTimeout(context.Background(), b.cfg.WriteTimeout)
			err := s.conn.WriteEvent(ctx, ev)
			cancel()
			if err != nil {
				b.drop(s, err)
				return
			}
		}
	}
}

// Subscribers returns the number of viewers attached to the group.
func (b *Broker) Subscribers(groupID string) int {
	sh := b.shardFor(groupID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	t, ok := sh.topics[groupID]
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Close detaches every viewer and waits for their writers to stop. Later
// subscribes fail with ErrClosed and publishes are ignored.
func (b *Broker) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	for i := range b.shards {
		sh := &b.shards[i]
		sh.mu.Lock()
		for groupID, t := range sh.topics {
			t.mu.Lock()
			for _, s := range t.subs {
				s.terminate(ErrClosed)
				b.metrics.subscriberRemoved()
			}
			t.subs = map[uint64]*Subscription{}
			t.mu.Unlock()
			delete(sh.topics, groupID)
		}
		sh.mu.Unlock()
	}
	b.wg.Wait()
}
