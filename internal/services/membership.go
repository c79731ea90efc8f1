package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"savingscircle/internal/domain"
)

const maxDisplayNameRunes = 80

type membershipService struct {
	store          domain.GroupStore
	publisher      domain.EventPublisher
	locks          *GroupLocker
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewMembershipService returns the join flow. locks must be the lifecycle service's locker
// so that joins and transitions on one group serialize.
func NewMembershipService(store domain.GroupStore, publisher domain.EventPublisher, locks *GroupLocker, logger *slog.Logger, timeout time.Duration) domain.MembershipService {
	return &membershipService{
		store:          store,
		publisher:      publisher,
		locks:          locks,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *membershipService) Join(ctx context.Context, groupID string, actor domain.Actor, displayName, currency string) (*domain.Membership, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor.UserID == "" {
		return nil, false, domain.ErrPermissionDenied
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = actor.Email
	}
	if displayName == "" {
		return nil, false, fmt.Errorf("%w: display_name is required", domain.ErrInvalidInput)
	}
	if len([]rune(displayName)) > maxDisplayNameRunes {
		return nil, false, fmt.Errorf("%w: display_name must be at most %d characters", domain.ErrInvalidInput, maxDisplayNameRunes)
	}

	unlock, err := s.locks.Lock(ctx, groupID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	var (
		membership *domain.Membership
		created    bool
		filled     bool
		group      *domain.Group
		count      int
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
		for _, m := range ms {
			if m.MemberID == actor.UserID {
				membership = m
				return nil
			}
		}
		if g.State != domain.GroupStateForming {
			return &domain.TransitionError{GroupID: g.ID, Op: "join", From: g.State}
		}
		if len(ms) >= g.Duration {
			return fmt.Errorf("%w: group %s already has %d members", domain.ErrMembershipCountMismatch, g.ID, len(ms))
		}

		cur := strings.ToUpper(strings.TrimSpace(currency))
		if cur == "" {
			cur = g.Currency
		}
		m := domain.NewMembership(groupID, actor.UserID, displayName, actor.Email, cur, s.now())
		if err := repo.AddMembership(ctx, m); err != nil {
			return fmt.Errorf("add membership: %w", err)
		}
		count = len(ms) + 1
		if count == g.Duration {
			if filled, err = applyFill(g, count, s.now()); err != nil {
				return err
			}
			if err := repo.SaveGroup(ctx, g); err != nil {
				return fmt.Errorf("save group: %w", err)
			}
		}
		membership, created, group = m, true, g
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.InfoContext(ctx, "member joined", "group_id", groupID, "member_id", actor.UserID)
	}
	if filled {
		s.logger.InfoContext(ctx, "group filled", "group_id", groupID, "members", count)
		publishFilled(s.publisher, group, count, s.now())
	}
	return membership, created, nil
}
