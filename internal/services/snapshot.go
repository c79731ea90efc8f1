package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"savingscircle/internal/domain"
)

type snapshotReader struct {
	repo           domain.GroupRepository
	contextTimeout time.Duration
}

// NewSnapshotReader returns a SnapshotProvider reading straight from repo. The broker uses it
// for catch-up so it does not depend on the lifecycle service it publishes for.
func NewSnapshotReader(repo domain.GroupRepository, timeout time.Duration) domain.SnapshotProvider {
	return &snapshotReader{repo: repo, contextTimeout: timeout}
}

func (r *snapshotReader) CurrentState(ctx context.Context, groupID string) (*domain.GroupSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.contextTimeout)
	defer cancel()
	return loadSnapshot(ctx, r.repo, groupID)
}

// loadSnapshot reads a group and its memberships. The draw is rebuilt from positions.
func loadSnapshot(ctx context.Context, repo domain.GroupRepository, groupID string) (*domain.GroupSnapshot, error) {
	g, err := repo.LoadGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load group: %w", err)
	}
	memberships, err := repo.LoadMemberships(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	snap := &domain.GroupSnapshot{Group: g, Memberships: memberships}
	if g.State.Drawn() {
		snap.Draw = domain.DrawResultFromMemberships(g, memberships)
	}
	return snap, nil
}
