package postgres

import (
	"context"
	"database/sql"
	"errors"

	"savingscircle/internal/domain"
)

func (r *groupRepository) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	query := `
		INSERT INTO circle_contributions (group_id, member_id, period, amount, state, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query,
		c.GroupID, c.MemberID, c.Period, c.Amount, string(c.State), nullTime(c.PaidAt), c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if pqCode(err) == pqForeignKeyViolation {
		return domain.ErrNotFound
	}
	return err
}

func (r *groupRepository) LoadContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	query := `
		SELECT id, group_id, member_id, period, amount, state, paid_at, created_at, updated_at
		FROM circle_contributions
		WHERE id = $1
	`
	c, err := scanContribution(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *groupRepository) LoadContributions(ctx context.Context, groupID string, period int) ([]*domain.Contribution, error) {
	query := `
		SELECT id, group_id, member_id, period, amount, state, paid_at, created_at, updated_at
		FROM circle_contributions
		WHERE group_id = $1 AND ($2 = 0 OR period = $2)
		ORDER BY created_at, id
	`
	rows, err := r.q.QueryContext(ctx, query, groupID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	contributions := make([]*domain.Contribution, 0)
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func (r *groupRepository) SaveContribution(ctx context.Context, c *domain.Contribution) error {
	query := `
		UPDATE circle_contributions
		SET amount = $2, state = $3, paid_at = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, c.ID, c.Amount, string(c.State), nullTime(c.PaidAt), c.UpdatedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContribution(row rowScanner) (*domain.Contribution, error) {
	c := &domain.Contribution{}
	var state string
	var paidAt sql.NullTime
	if err := row.Scan(&c.ID, &c.GroupID, &c.MemberID, &c.Period, &c.Amount, &state, &paidAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.State = domain.ContributionState(state)
	c.PaidAt = timePtr(paidAt)
	return c, nil
}
