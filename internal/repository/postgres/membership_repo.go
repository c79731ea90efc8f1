package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"savingscircle/internal/domain"
)

func (r *groupRepository) LoadMemberships(ctx context.Context, groupID string) ([]*domain.Membership, error) {
	query := `
		SELECT group_id, member_id, display_name, email, position, currency, joined_at
		FROM circle_memberships
		WHERE group_id = $1
		ORDER BY joined_at, member_id
	`
	rows, err := r.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	memberships := make([]*domain.Membership, 0)
	for rows.Next() {
		m := &domain.Membership{}
		var position sql.NullInt64
		if err := rows.Scan(&m.GroupID, &m.MemberID, &m.DisplayName, &m.Email, &position, &m.Currency, &m.JoinedAt); err != nil {
			return nil, err
		}
		if position.Valid {
			p := int(position.Int64)
			m.Position = &p
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *groupRepository) AddMembership(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO circle_memberships (group_id, member_id, display_name, email, currency, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query, m.GroupID, m.MemberID, m.DisplayName, m.Email, m.Currency, m.JoinedAt)
	switch pqCode(err) {
	case pqUniqueViolation:
		return domain.ErrAlreadyMember
	case pqForeignKeyViolation:
		return domain.ErrNotFound
	}
	return err
}

// SaveMemberships only fills empty positions. A row that already holds one
// means another draw won the race.
func (r *groupRepository) SaveMemberships(ctx context.Context, memberships []*domain.Membership) error {
	query := `
		UPDATE circle_memberships
		SET position = $1
		WHERE group_id = $2 AND member_id = $3 AND position IS NULL
	`
	for _, m := range memberships {
		if m.Position == nil {
			continue
		}
		result, err := r.q.ExecContext(ctx, query, *m.Position, m.GroupID, m.MemberID)
		if err != nil {
			if pqCode(err) == pqUniqueViolation {
				return fmt.Errorf("%w: duplicate position %d", domain.ErrInvalidInput, *m.Position)
			}
			return err
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrDrawAlreadyPerformed
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
