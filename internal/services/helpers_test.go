package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"savingscircle/internal/domain"
	"savingscircle/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var adminActor = domain.Actor{UserID: "admin-1", Email: "admin@example.com", Roles: []string{domain.RoleAdmin}}

func memberActor(id string) domain.Actor {
	return domain.Actor{UserID: id, Email: id + "@example.com"}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// constReader yields an endless run of one byte, giving the draw engine a fixed seed.
type constReader byte

func (c constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(c)
	}
	return len(p), nil
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(groupID string, ev domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *recordingPublisher) Types() []domain.EventType {
	var out []domain.EventType
	for _, ev := range p.Events() {
		out = append(out, ev.Type)
	}
	return out
}

// fakeNotifier forwards notifications onto buffered channels.
type fakeNotifier struct {
	draws      chan []*domain.Membership
	deliveries chan *domain.Delivery
	err        error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		draws:      make(chan []*domain.Membership, 8),
		deliveries: make(chan *domain.Delivery, 8),
	}
}

func (n *fakeNotifier) NotifyDrawResult(ctx context.Context, g *domain.Group, ms []*domain.Membership) error {
	n.draws <- ms
	return n.err
}

func (n *fakeNotifier) NotifyDeliveryCreated(ctx context.Context, g *domain.Group, recipient *domain.Membership, d *domain.Delivery) error {
	n.deliveries <- d
	return n.err
}

type testEnv struct {
	store         *memory.Store
	publisher     *recordingPublisher
	notifier      *fakeNotifier
	lifecycle     domain.LifecycleService
	members       domain.MembershipService
	contributions domain.ContributionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	notifier := newFakeNotifier()
	locks := NewGroupLocker()
	logger := discardLogger()
	return &testEnv{
		store:         store,
		publisher:     pub,
		notifier:      notifier,
		lifecycle:     NewLifecycleService(store, NewDrawEngine(constReader(7)), pub, notifier, locks, logger, 5*time.Second),
		members:       NewMembershipService(store, pub, locks, logger, 5*time.Second),
		contributions: NewContributionService(store, locks, logger, true, 5*time.Second),
	}
}

func (e *testEnv) createGroup(t *testing.T, duration int) *domain.Group {
	t.Helper()
	g := &domain.Group{Name: "Circle", Duration: duration, ContributionAmount: 500, Currency: "USD", ProductRef: "sku-1"}
	require.NoError(t, e.lifecycle.CreateGroup(context.Background(), adminActor, g))
	return g
}

// join adds n members named m1..mn.
func (e *testEnv) join(t *testing.T, g *domain.Group, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("m%d", i)
		_, created, err := e.members.Join(context.Background(), g.ID, memberActor(id), "Member "+id, "")
		require.NoError(t, err)
		require.True(t, created)
		ids = append(ids, id)
	}
	return ids
}

// runningGroup returns a drawn group with its draw result.
func (e *testEnv) runningGroup(t *testing.T, duration int) (*domain.Group, *domain.DrawResult) {
	t.Helper()
	g := e.createGroup(t, duration)
	e.join(t, g, duration)
	res, performed, err := e.lifecycle.TriggerDraw(context.Background(), g.ID, adminActor)
	require.NoError(t, err)
	require.True(t, performed)
	return g, res
}

// payPeriod submits and confirms a contribution for every member of g.
func (e *testEnv) payPeriod(t *testing.T, g *domain.Group, memberIDs []string, period int) {
	t.Helper()
	ctx := context.Background()
	for _, id := range memberIDs {
		c, _, err := e.contributions.Submit(ctx, g.ID, memberActor(id), period, 0)
		require.NoError(t, err)
		_, err = e.contributions.Confirm(ctx, g.ID, c.ID, adminActor)
		require.NoError(t, err)
	}
}

func memberIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%d", i+1)
	}
	return ids
}
