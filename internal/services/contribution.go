package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"savingscircle/internal/domain"
)

type contributionService struct {
	store          domain.GroupStore
	locks          *GroupLocker
	logger         *slog.Logger
	strictOrder    bool
	contextTimeout time.Duration
	now            func() time.Time
}

// NewContributionService returns the payment review flow. With strictOrder set, a
// period can only be confirmed once every earlier period of the member is confirmed.
func NewContributionService(store domain.GroupStore, locks *GroupLocker, logger *slog.Logger, strictOrder bool, timeout time.Duration) domain.ContributionService {
	return &contributionService{
		store:          store,
		locks:          locks,
		logger:         logger,
		strictOrder:    strictOrder,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *contributionService) Submit(ctx context.Context, groupID string, actor domain.Actor, period int, amount int64) (*domain.Contribution, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if amount < 0 {
		return nil, false, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidInput)
	}
	unlock, err := s.locks.Lock(ctx, groupID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	var (
		out     *domain.Contribution
		created bool
	)
	err = s.store.Atomically(ctx, func(repo domain.GroupRepository) error {
		g, err := repo.LoadGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if g.State != domain.GroupStateRunning && g.State != domain.GroupStateFull {
			return &domain.TransitionError{GroupID: g.ID, Op: "submit contribution", From: g.State}
		}
		if period < 1 || period > g.Duration {
			return fmt.Errorf("%w: period must be between 1 and %d", domain.ErrInvalidInput, g.Duration)
		}
		ms, err := repo.LoadMemberships(ctx, groupID)
		if err != nil {
			return fmt.Errorf("load memberships: %w", err)
		}
		if !isMember(ms, actor.UserID) {
			return domain.ErrNotMember
		}
		existing, err := repo.LoadContributions(ctx, groupID, period)
		if err != nil {
			return fmt.Errorf("load contributions: %w", err)
		}
		for _, c := range existing {
			if c.MemberID == actor.UserID && c.State != domain.ContributionRejected {
				out = c
				return nil
			}
		}
		if amount == 0 {
			amount = g.ContributionAmount
		}
		c := domain.NewContribution(groupID, actor.UserID, period, amount, s.now())
		if err := repo.CreateContribution(ctx, c); err != nil {
			return fmt.Errorf("create contribution: %w", err)
		}
		out, created = c, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (s *contributionService) Confirm(ctx context.Context, groupID, contributionID string, actor domain.Actor) (*domain.Contribution, error) {
	return s.review(ctx, groupID, contributionID, actor, domain.ContributionConfirmed)
}

func (s *contributionService) Reject(ctx context.Context, groupID, contributionID string, actor domain.Actor) (*domain.Contribution, error) {
	return s.review(ctx, groupID, contributionID, actor, domain.ContributionRejected)
}

// review moves a pending contribution to next. Only pending contributions can be reviewed.
func (s *contributionService) review(ctx context.Context, groupID, contributionID string, actor domain.Actor, next domain.ContributionState) (*domain.Contribution, error) {
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

	var out *domain.Contribution
	err = s.store.Atomically(ctx, func(repo domain.GroupRepository) error {
		c, err := repo.LoadContribution(ctx, contributionID)
		if err != nil {
			return err
		}
		if c.GroupID != groupID {
			return domain.ErrNotFound
		}
		if c.State != domain.ContributionPending {
			return fmt.Errorf("%w: contribution %s is %s", domain.ErrInvalidTransition, c.ID, c.State)
		}
		if next == domain.ContributionConfirmed && s.strictOrder && c.Period > 1 {
			all, err := repo.LoadContributions(ctx, groupID, 0)
			if err != nil {
				return fmt.Errorf("load contributions: %w", err)
			}
			if p := firstUnresolvedPeriod(all, c.MemberID, c.Period); p > 0 {
				return fmt.Errorf("%w: member %s period %d", domain.ErrContributionOutOfOrder, c.MemberID, p)
			}
		}
		now := s.now()
		c.State = next
		c.UpdatedAt = now
		if next == domain.ContributionConfirmed {
			c.PaidAt = &now
		}
		if err := repo.SaveContribution(ctx, c); err != nil {
			return fmt.Errorf("save contribution: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "contribution reviewed", "group_id", groupID, "contribution_id", contributionID, "state", next, "actor", actor.UserID)
	return out, nil
}

// firstUnresolvedPeriod returns the earliest period before `before` that memberID
// has not resolved, or 0. A period is resolved once it has a confirmed contribution
// or its latest contribution was rejected.
func firstUnresolvedPeriod(contributions []*domain.Contribution, memberID string, before int) int {
	confirmed := make(map[int]bool)
	latest := make(map[int]*domain.Contribution)
	for _, c := range contributions {
		if c.MemberID != memberID || c.Period >= before {
			continue
		}
		if c.State == domain.ContributionConfirmed {
			confirmed[c.Period] = true
		}
		if l, ok := latest[c.Period]; !ok || !c.CreatedAt.Before(l.CreatedAt) {
			latest[c.Period] = c
		}
	}
	for p := 1; p < before; p++ {
		if confirmed[p] {
			continue
		}
		if l, ok := latest[p]; ok && l.State == domain.ContributionRejected {
			continue
		}
		return p
	}
	return 0
}

func (s *contributionService) List(ctx context.Context, groupID string, period int) ([]*domain.Contribution, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if period < 0 {
		return nil, fmt.Errorf("%w: period must not be negative", domain.ErrInvalidInput)
	}
	if _, err := s.store.LoadGroup(ctx, groupID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load group: %w", err)
	}
	out, err := s.store.LoadContributions(ctx, groupID, period)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	if out == nil {
		out = []*domain.Contribution{}
	}
	return out, nil
}

func isMember(memberships []*domain.Membership, userID string) bool {
	for _, m := range memberships {
		if m.MemberID == userID {
			return true
		}
	}
	return false
}
