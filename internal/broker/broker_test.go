package broker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savingscircle/internal/domain"
)

const waitTimeout = 2 * time.Second

type fakeConn struct {
	events chan domain.Event
	block  chan struct{}
	err    error
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan domain.Event, 64)}
}

func (c *fakeConn) WriteEvent(ctx context.Context, ev domain.Event) error {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.err != nil {
		return c.err
	}
	c.events <- ev
	return nil
}

func (c *fakeConn) next(t *testing.T) domain.Event {
	t.Helper()
	select {
	case ev := <-c.events:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func (c *fakeConn) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case ev := <-c.events:
		t.Fatalf("unexpected event %s", ev.Type)
	case <-time.After(20 * time.Millisecond):
	}
}

// fakeSnapshots serves fixed snapshots. onRead runs inside CurrentState.
type fakeSnapshots struct {
	mu     sync.Mutex
	snaps  map[string]*domain.GroupSnapshot
	onRead func()
}

func (f *fakeSnapshots) set(s *domain.GroupSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snaps == nil {
		f.snaps = make(map[string]*domain.GroupSnapshot)
	}
	f.snaps[s.Group.ID] = s
}

func (f *fakeSnapshots) CurrentState(ctx context.Context, groupID string) (*domain.GroupSnapshot, error) {
	f.mu.Lock()
	s, ok := f.snaps[groupID]
	hook := f.onRead
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func formingSnapshot(groupID string) *domain.GroupSnapshot {
	return &domain.GroupSnapshot{Group: &domain.Group{ID: groupID, Duration: 3, State: domain.GroupStateForming}}
}

func drawnSnapshot(groupID string) *domain.GroupSnapshot {
	started := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	g := &domain.Group{ID: groupID, Duration: 3, State: domain.GroupStateRunning, CurrentTurn: 1, StartedAt: &started}
	p1, p2, p3 := 1, 2, 3
	ms := []*domain.Membership{
		{GroupID: groupID, MemberID: "b", DisplayName: "Bo", Position: &p1},
		{GroupID: groupID, MemberID: "c", DisplayName: "Cy", Position: &p3},
		{GroupID: groupID, MemberID: "a", DisplayName: "Ana", Position: &p2},
	}
	return &domain.GroupSnapshot{Group: g, Memberships: ms, Draw: domain.DrawResultFromMemberships(g, ms)}
}

func turnEvent(turn int) domain.Event {
	return domain.Event{
		Type:         domain.EventTurnAdvanced,
		TurnAdvanced: &domain.TurnAdvanced{NewTurn: turn, DeliveryCreated: domain.DeliveryRef{Period: turn - 1}},
	}
}

func newTestBroker(t *testing.T, snaps *fakeSnapshots, cfg Config) *Broker {
	t.Helper()
	b := New(snaps, cfg, nil, testLogger())
	t.Cleanup(b.Close)
	return b
}

func TestBroker_PublishWithoutSubscribers(t *testing.T) {
	b := newTestBroker(t, &fakeSnapshots{}, Config{})
	b.Publish("g-1", turnEvent(2))
	assert.Equal(t, 0, b.Subscribers("g-1"))
}

func TestBroker_FanOutInOrder(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(formingSnapshot("g-1"))
	b := newTestBroker(t, snaps, Config{})
	ctx := context.Background()

	c1, c2 := newFakeConn(), newFakeConn()
	_, err := b.Subscribe(ctx, "g-1", c1)
	require.NoError(t, err)
	_, err = b.Subscribe(ctx, "g-1", c2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Subscribers("g-1"))

	for turn := 2; turn <= 6; turn++ {
		b.Publish("g-1", turnEvent(turn))
	}
	for _, c := range []*fakeConn{c1, c2} {
		for i := 1; i <= 5; i++ {
			ev := c.next(t)
			assert.Equal(t, uint64(i), ev.Seq)
			assert.Equal(t, "g-1", ev.GroupID)
			assert.Equal(t, i+1, ev.TurnAdvanced.NewTurn)
		}
		c.assertIdle(t)
	}
}

func TestBroker_GroupsAreIsolated(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(formingSnapshot("g-1"))
	snaps.set(formingSnapshot("g-2"))
	b := newTestBroker(t, snaps, Config{})

	c1, c2 := newFakeConn(), newFakeConn()
	_, err := b.Subscribe(context.Background(), "g-1", c1)
	require.NoError(t, err)
	_, err = b.Subscribe(context.Background(), "g-2", c2)
	require.NoError(t, err)

	b.Publish("g-2", turnEvent(2))
	assert.Equal(t, "g-2", c2.next(t).GroupID)
	c1.assertIdle(t)
}

func TestBroker_CatchUpMatchesLiveSequence(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(formingSnapshot("g-1"))
	b := newTestBroker(t, snaps, Config{})
	ctx := context.Background()

	early := newFakeConn()
	_, err := b.Subscribe(ctx, "g-1", early)
	require.NoError(t, err)
	early.assertIdle(t)

	drawn := drawnSnapshot("g-1")
	snaps.set(drawn)
	b.Publish("g-1", domain.NewDrawStartedEvent(drawn.Draw, drawn.Draw.DrawnAt))
	live := early.next(t)
	require.Equal(t, domain.EventDrawStarted, live.Type)

	late := newFakeConn()
	_, err = b.Subscribe(ctx, "g-1", late)
	require.NoError(t, err)
	catchUp := late.next(t)
	require.Equal(t, domain.EventCatchUp, catchUp.Type)
	assert.Equal(t, domain.GroupStateRunning, catchUp.CatchUp.State)
	assert.Equal(t, 1, catchUp.CatchUp.CurrentTurn)

	liveSeq, ok := live.RevealSequence()
	require.True(t, ok)
	catchUpSeq, ok := catchUp.RevealSequence()
	require.True(t, ok)
	assert.Equal(t, liveSeq, catchUpSeq)
	assert.Equal(t, []string{"b", "a", "c"}, []string{
		catchUpSeq.Entries[0].MemberID, catchUpSeq.Entries[1].MemberID, catchUpSeq.Entries[2].MemberID,
	})
	late.assertIdle(t)
}

func TestBroker_CatchUpPrecedesConcurrentEvents(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(drawnSnapshot("g-1"))
	b := newTestBroker(t, snaps, Config{})
	ctx := context.Background()

	watcher := newFakeConn()
	_, err := b.Subscribe(ctx, "g-1", watcher)
	require.NoError(t, err)
	require.Equal(t, domain.EventCatchUp, watcher.next(t).Type)

	snaps.mu.Lock()
	snaps.onRead = func() { b.Publish("g-1", turnEvent(2)) }
	snaps.mu.Unlock()

	c := newFakeConn()
	_, err = b.Subscribe(ctx, "g-1", c)
	require.NoError(t, err)

	first := c.next(t)
	second := c.next(t)
	assert.Equal(t, domain.EventCatchUp, first.Type)
	assert.Equal(t, domain.EventTurnAdvanced, second.Type)
	assert.Less(t, first.Seq, second.Seq)
}

func TestBroker_UnsubscribeAndResubscribe(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(drawnSnapshot("g-1"))
	b := newTestBroker(t, snaps, Config{})
	ctx := context.Background()

	stay, leave := newFakeConn(), newFakeConn()
	_, err := b.Subscribe(ctx, "g-1", stay)
	require.NoError(t, err)
	sub, err := b.Subscribe(ctx, "g-1", leave)
	require.NoError(t, err)
	stay.next(t)
	leave.next(t)

	sub.Close()
	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("subscription not closed")
	}
	assert.NoError(t, sub.Err())
	assert.Equal(t, 1, b.Subscribers("g-1"))

	b.Publish("g-1", turnEvent(2))
	assert.Equal(t, domain.EventTurnAdvanced, stay.next(t).Type)
	leave.assertIdle(t)

	again := newFakeConn()
	_, err = b.Subscribe(ctx, "g-1", again)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCatchUp, again.next(t).Type)
}

func TestBroker_SubscribeUnknownGroup(t *testing.T) {
	b := newTestBroker(t, &fakeSnapshots{}, Config{})
	_, err := b.Subscribe(context.Background(), "missing", newFakeConn())
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, b.Subscribers("missing"))
}

func TestBroker_SlowSubscriberIsDropped(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(formingSnapshot("g-1"))
	b := newTestBroker(t, snaps, Config{QueueSize: 2, WriteTimeout: time.Second})
	ctx := context.Background()

	slow := newFakeConn()
	slow.block = make(chan struct{})
	defer close(slow.block)
	fast := newFakeConn()

	slowSub, err := b.Subscribe(ctx, "g-1", slow)
	require.NoError(t, err)
	_, err = b.Subscribe(ctx, "g-1", fast)
	require.NoError(t, err)

	for turn := 2; turn <= 11; turn++ {
		b.Publish("g-1", turnEvent(turn))
		assert.Equal(t, turn, fast.next(t).TurnAdvanced.NewTurn)
	}

	select {
	case <-slowSub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("slow subscriber was not dropped")
	}
	assert.ErrorIs(t, slowSub.Err(), ErrSlowSubscriber)
	assert.Equal(t, 1, b.Subscribers("g-1"))
}

func TestBroker_FailedWriteDropsSubscriber(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(formingSnapshot("g-1"))
	b := newTestBroker(t, snaps, Config{})

	broken := newFakeConn()
	broken.err = errors.New("connection reset")
	sub, err := b.Subscribe(context.Background(), "g-1", broken)
	require.NoError(t, err)

	b.Publish("g-1", turnEvent(2))
	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("broken subscriber was not dropped")
	}
	assert.EqualError(t, sub.Err(), "connection reset")
	assert.Equal(t, 0, b.Subscribers("g-1"))
}

func TestBroker_Close(t *testing.T) {
	snaps := &fakeSnapshots{}
	snaps.set(formingSnapshot("g-1"))
	b := New(snaps, Config{}, nil, testLogger())

	sub, err := b.Subscribe(context.Background(), "g-1", newFakeConn())
	require.NoError(t, err)

	b.Close()
	select {
	case <-sub.Done():
	default:
		t.Fatal("subscription still open after Close")
	}
	assert.ErrorIs(t, sub.Err(), ErrClosed)

	_, err = b.Subscribe(context.Background(), "g-1", newFakeConn())
	require.ErrorIs(t, err, ErrClosed)
	b.Publish("g-1", turnEvent(2))
	b.Close()
}

type recordingForwarder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (f *recordingForwarder) Forward(groupID string, ev domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func TestBroker_Forwarder(t *testing.T) {
	b := newTestBroker(t, &fakeSnapshots{}, Config{})
	f := &recordingForwarder{}
	b.SetForwarder(f)

	b.Publish("g-1", turnEvent(2))
	b.Deliver("g-1", turnEvent(3))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.events, 1)
	assert.Equal(t, 2, f.events[0].TurnAdvanced.NewTurn)
}

func TestBroker_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	snaps := &fakeSnapshots{}
	snaps.set(drawnSnapshot("g-1"))
	b := New(snaps, Config{}, m, testLogger())
	t.Cleanup(b.Close)

	c := newFakeConn()
	sub, err := b.Subscribe(context.Background(), "g-1", c)
	require.NoError(t, err)
	c.next(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Subscribers))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CatchUps))

	b.Publish("g-1", turnEvent(2))
	c.next(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Published.WithLabelValues(string(domain.EventTurnAdvanced))))

	sub.Close()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Subscribers))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Dropped))
}
