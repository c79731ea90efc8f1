package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"savingscircle/internal/domain"
)

const (
	maxGroupDuration = 120
	notifyTimeout    = 30 * time.Second
)

type lifecycleService struct {
	store          domain.GroupStore
	engine         *DrawEngine
	publisher      domain.EventPublisher
	notifier       domain.Notifier
	locks          *GroupLocker
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewLifecycleService returns the group state machine. publisher and notifier may be nil.
func NewLifecycleService(
	store domain.GroupStore,
	engine *DrawEngine,
	publisher domain.EventPublisher,
	notifier domain.Notifier,
	locks *GroupLocker,
	logger *slog.Logger,
	timeout time.Duration,
) domain.LifecycleService {
	if engine == nil {
		engine = NewDrawEngine(nil)
	}
	if locks == nil {
		locks = NewGroupLocker()
	}
	return &lifecycleService{
		store:          store,
		engine:         engine,
		publisher:      publisher,
		notifier:       notifier,
		locks:          locks,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *lifecycleService) CreateGroup(ctx context.Context, actor domain.Actor, g *domain.Group) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return domain.ErrPermissionDenied
	}
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if g.Duration < 1 || g.Duration > maxGroupDuration {
		return fmt.Errorf("%w: duration must be between 1 and %d", domain.ErrInvalidInput, maxGroupDuration)
	}
	if g.ContributionAmount < 0 {
		return fmt.Errorf("%w: contribution amount must not be negative", domain.ErrInvalidInput)
	}
	now := s.now()
	g.State = domain.GroupStateForming
	g.CurrentTurn = 0
	g.StartedAt, g.EndedAt, g.DrawSeed = nil, nil, ""
	g.CreatedBy = actor.UserID
	g.CreatedAt, g.UpdatedAt = now, now

	if err := s.store.CreateGroup(ctx, g); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (s *lifecycleService) CurrentState(ctx context.Context, groupID string) (*domain.GroupSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return loadSnapshot(ctx, s.store, groupID)
}

func (s *lifecycleService) Fill(ctx context.Context, groupID string) (*domain.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	unlock, err := s.locks.Lock(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		group  *domain.Group
		filled bool
		count  int
	)
	err = s.store.Atomically(ctx, func(repo domain.GroupRepository) error {
		g, err := repo.LoadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		memberships, err := repo.LoadMemberships(ctx, groupID)
		if err != nil {
			return fmt.Errorf("load memberships: %w", err)
		}
		count = len(memberships)
		filled, err = applyFill(g, count, s.now())
		if err != nil {
			return err
		}
		if filled {
			if err := repo.SaveGroup(ctx, g); err != nil {
				return fmt.Errorf("save group: %w", err)
			}
		}
		group = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	if filled {
		s.logger.InfoContext(ctx, "group filled", "group_id", groupID, "members", count)
		publishFilled(s.publisher, group, count, s.now())
	}
	return group, nil
}

// applyFill moves g from forming to full when count reached its duration.
// It reports whether g changed. Full groups are left alone.
func applyFill(g *domain.Group, count int, now time.Time) (bool, error) {
	switch g.State {
	case domain.GroupStateFull:
		return false, nil
	case domain.GroupStateForming:
	default:
		return false, &domain.TransitionError{GroupID: g.ID, Op: "fill", From: g.State}
	}
	if count != g.Duration {
		return false, fmt.Errorf("%w: group %s has %d of %d members", domain.ErrMembershipCountMismatch, g.ID, count, g.Duration)
	}
	g.State = domain.GroupStateFull
	g.UpdatedAt = now
	return true, nil
}

func publishFilled(p domain.EventPublisher, g *domain.Group, count int, now time.Time) {
	if p == nil {
		return
	}
	p.Publish(g.ID, domain.Event{
		Type:        domain.EventGroupFilled,
		GroupID:     g.ID,
		OccurredAt:  now,
		GroupFilled: &domain.GroupFilled{MemberCount: count},
	})
}

func (s *lifecycleService) TriggerDraw(ctx context.Context, groupID string, actor domain.Actor) (*domain.DrawResult, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return nil, false, domain.ErrPermissionDenied
	}
	unlock, err := s.locks.Lock(ctx, groupID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	var (
		result      *domain.DrawResult
		group       *domain.Group
		memberships []*domain.Membership
	)
	err = s.store.Atomically(ctx, func(repo domain.GroupRepository) error {
		g, err := repo.LoadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		ms, err := repo.LoadMemberships(ctx, groupID)
		if err != nil {
			return fmt.Errorf("load memberships: %w", err)
		}
		if domain.PositionsAssigned(ms) {
			return domain.ErrDrawAlreadyPerformed
		}
		switch g.State {
		case domain.GroupStateFull:
		case domain.GroupStateForming:
			if len(ms) != g.Duration {
				return fmt.Errorf("%w: group %s has %d of %d members", domain.ErrMembershipCountMismatch, g.ID, len(ms), g.Duration)
			}
			return &domain.TransitionError{GroupID: g.ID, Op: "draw", From: g.State}
		default:
			return &domain.TransitionError{GroupID: g.ID, Op: "draw", From: g.State}
		}

		res, err := s.engine.Draw(g, ms)
		if err != nil {
			return err
		}
		positions := make(map[string]int, len(res.Sequence))
		for _, entry := range res.Sequence {
			positions[entry.MemberID] = entry.Position
		}
		for _, m := range ms {
			p := positions[m.MemberID]
			m.Position = &p
		}
		if err := repo.SaveMemberships(ctx, ms); err != nil {
			return fmt.Errorf("save positions: %w", err)
		}

		now := s.now()
		g.State = domain.GroupStateRunning
		g.CurrentTurn = 1
		g.StartedAt = &now
		g.DrawSeed = res.Seed
		g.UpdatedAt = now
		if err := repo.SaveGroup(ctx, g); err != nil {
			return fmt.Errorf("save group: %w", err)
		}
		res.DrawnAt = now
		result, group, memberships = res, g, ms
		return nil
	})
	if errors.Is(err, domain.ErrDrawAlreadyPerformed) {
		snap, serr := loadSnapshot(ctx, s.store, groupID)
		if serr != nil {
			return nil, false, serr
		}
		if snap.Draw == nil {
			return nil, false, fmt.Errorf("group %s reports a draw without positions", groupID)
		}
		s.logger.InfoContext(ctx, "draw replayed", "group_id", groupID, "actor", actor.UserID)
		return snap.Draw, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.logger.InfoContext(ctx, "draw performed", "group_id", groupID, "actor", actor.UserID, "members", len(result.Sequence))
	if s.publisher != nil {
		s.publisher.Publish(groupID, domain.NewDrawStartedEvent(result, result.DrawnAt))
	}
	s.notify(func(ctx context.Context) error {
		return s.notifier.NotifyDrawResult(ctx, group, memberships)
	}, "group_id", groupID)
	return result, true, nil
}

func (s *lifecycleService) AdvanceTurn(ctx context.Context, groupID string, actor domain.Actor) (*domain.TurnOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !actor.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}
	unlock, err := s.locks.Lock(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		outcome   *domain.TurnOutcome
		recipient *domain.Membership
	)
	err = s.store.Atomically(ctx, func(repo domain.GroupRepository) error {
		g, err := repo.LoadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if g.State != domain.GroupStateRunning {
			return &domain.TransitionError{GroupID: g.ID, Op: "advance turn", From: g.State}
		}
		ms, err := repo.LoadMemberships(ctx, groupID)
		if err != nil {
			return fmt.Errorf("load memberships: %w", err)
		}
		period := g.CurrentTurn
		contributions, err := repo.LoadContributions(ctx, groupID, period)
		if err != nil {
			return fmt.Errorf("load contributions: %w", err)
		}
		if outstanding := outstandingMembers(ms, contributions); len(outstanding) > 0 {
			return &domain.PaymentsIncompleteError{GroupID: groupID, Period: period, Outstanding: outstanding}
		}

		holder := domain.HolderOf(ms, period)
		if holder == nil {
			return fmt.Errorf("group %s has no holder for position %d", groupID, period)
		}
		now := s.now()
		d := domain.NewDelivery(groupID, holder.MemberID, period, g.ProductRef, now)
		if err := repo.SaveDelivery(ctx, d); err != nil {
			return fmt.Errorf("save delivery: %w", err)
		}

		if period >= g.Duration {
			g.State = domain.GroupStateComplete
			g.EndedAt = &now
		} else {
			g.CurrentTurn = period + 1
		}
		g.UpdatedAt = now
		if err := repo.SaveGroup(ctx, g); err != nil {
			return fmt.Errorf("save group: %w", err)
		}
		outcome = &domain.TurnOutcome{Group: g, Delivery: d}
		recipient = holder
		return nil
	})
	if err != nil {
		return nil, err
	}

	g, d := outcome.Group, outcome.Delivery
	ref := domain.DeliveryRef{Period: d.Period, RecipientMemberID: d.RecipientID}
	if g.State == domain.GroupStateComplete {
		s.logger.InfoContext(ctx, "group completed", "group_id", groupID, "actor", actor.UserID, "period", d.Period)
		if s.publisher != nil {
			s.publisher.Publish(groupID, domain.Event{
				Type:           domain.EventGroupCompleted,
				GroupID:        groupID,
				OccurredAt:     *g.EndedAt,
				GroupCompleted: &domain.GroupCompleted{EndedAt: *g.EndedAt, DeliveryCreated: &ref},
			})
		}
	} else {
		s.logger.InfoContext(ctx, "turn advanced", "group_id", groupID, "actor", actor.UserID, "turn", g.CurrentTurn)
		if s.publisher != nil {
			s.publisher.Publish(groupID, domain.Event{
				Type:         domain.EventTurnAdvanced,
				GroupID:      groupID,
				OccurredAt:   g.UpdatedAt,
				TurnAdvanced: &domain.TurnAdvanced{NewTurn: g.CurrentTurn, DeliveryCreated: ref},
			})
		}
	}
	s.notify(func(ctx context.Context) error {
		return s.notifier.NotifyDeliveryCreated(ctx, g, recipient, d)
	}, "group_id", groupID, "period", d.Period)
	return outcome, nil
}

// outstandingMembers lists, sorted, the members with no confirmed contribution among contributions.
func outstandingMembers(memberships []*domain.Membership, contributions []*domain.Contribution) []string {
	confirmed := make(map[string]bool, len(contributions))
	for _, c := range contributions {
		if c.State == domain.ContributionConfirmed {
			confirmed[c.MemberID] = true
		}
	}
	var out []string
	for _, m := range memberships {
		if !confirmed[m.MemberID] {
			out = append(out, m.MemberID)
		}
	}
	sort.Strings(out)
	return out
}

func (s *lifecycleService) ListDeliveries(ctx context.Context, groupID string) ([]*domain.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.store.LoadGroup(ctx, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load group: %w", err)
	}
	deliveries, err := s.store.ListDeliveries(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	if deliveries == nil {
		deliveries = []*domain.Delivery{}
	}
	return deliveries, nil
}

// notify runs fn in the background after a committed transition. Errors are logged only.
func (s *lifecycleService) notify(fn func(ctx context.Context) error, attrs ...any) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("notification failed", append(attrs, "err", err)...)
		}
	}()
}
