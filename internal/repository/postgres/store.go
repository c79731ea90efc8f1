package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"savingscircle/internal/domain"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// groupRepository runs every statement against q. Inside a transaction
// forUpdate makes LoadGroup take a row lock on the group.
type groupRepository struct {
	q         querier
	forUpdate bool
}

type groupStore struct {
	*groupRepository
	DB *sql.DB
}

func NewGroupStore(db *sql.DB) domain.GroupStore {
	return &groupStore{
		groupRepository: &groupRepository{q: db},
		DB:              db,
	}
}

func (s *groupStore) Atomically(ctx context.Context, fn func(repo domain.GroupRepository) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&groupRepository{q: tx, forUpdate: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func pqCode(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	return ""
}
