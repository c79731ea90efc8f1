package postgres

import (
	"context"
	"database/sql"
	"errors"

	"savingscircle/internal/domain"
)

const groupColumns = `id, name, duration, contribution_amount, currency, product_ref, state, current_turn,
		draw_seed, started_at, ended_at, created_by, created_at, updated_at`

func (r *groupRepository) CreateGroup(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO circle_groups (name, duration, contribution_amount, currency, product_ref, state, current_turn,
			draw_seed, started_at, ended_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	return r.q.QueryRowContext(ctx, query,
		g.Name, g.Duration, g.ContributionAmount, g.Currency, g.ProductRef, string(g.State), g.CurrentTurn,
		g.DrawSeed, nullTime(g.StartedAt), nullTime(g.EndedAt), g.CreatedBy, g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
}

func (r *groupRepository) LoadGroup(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM circle_groups WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	g := &domain.Group{}
	var state string
	var startedAt, endedAt sql.NullTime
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Duration, &g.ContributionAmount, &g.Currency, &g.ProductRef, &state, &g.CurrentTurn,
		&g.DrawSeed, &startedAt, &endedAt, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	g.State = domain.GroupState(state)
	g.StartedAt = timePtr(startedAt)
	g.EndedAt = timePtr(endedAt)
	return g, nil
}

func (r *groupRepository) SaveGroup(ctx context.Context, g *domain.Group) error {
	query := `
		UPDATE circle_groups
		SET name = $2, contribution_amount = $3, currency = $4, product_ref = $5, state = $6, current_turn = $7,
			draw_seed = $8, started_at = $9, ended_at = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		g.ID, g.Name, g.ContributionAmount, g.Currency, g.ProductRef, string(g.State), g.CurrentTurn,
		g.DrawSeed, nullTime(g.StartedAt), nullTime(g.EndedAt), g.UpdatedAt,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
