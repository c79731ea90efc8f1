package postgres

import (
	"context"

	"savingscircle/internal/domain"
)

func (r *groupRepository) SaveDelivery(ctx context.Context, d *domain.Delivery) error {
	query := `
		INSERT INTO circle_deliveries (group_id, recipient_id, period, product_ref, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query,
		d.GroupID, d.RecipientID, d.Period, d.ProductRef, string(d.State), d.CreatedAt,
	).Scan(&d.ID)
	switch pqCode(err) {
	case pqUniqueViolation:
		return domain.ErrDeliveryExists
	case pqForeignKeyViolation:
		return domain.ErrNotFound
	}
	return err
}

func (r *groupRepository) ListDeliveries(ctx context.Context, groupID string) ([]*domain.Delivery, error) {
	query := `
		SELECT id, group_id, recipient_id, period, product_ref, state, created_at
		FROM circle_deliveries
		WHERE group_id = $1
		ORDER BY period
	`
	rows, err := r.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	deliveries := make([]*domain.Delivery, 0)
	for rows.Next() {
		d := &domain.Delivery{}
		var state string
		if err := rows.Scan(&d.ID, &d.GroupID, &d.RecipientID, &d.Period, &d.ProductRef, &state, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.State = domain.DeliveryState(state)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
