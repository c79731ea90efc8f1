package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"savingscircle/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var groupRowColumns = []string{
	"id", "name", "duration", "contribution_amount", "currency", "product_ref", "state", "current_turn",
	"draw_seed", "started_at", "ended_at", "created_by", "created_at", "updated_at",
}

func TestGroupStore_CreateGroup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO circle_groups \(name, duration, contribution_amount`).
					WithArgs("Circle", 3, int64(500), "USD", "sku-1", "forming", 0, "", nil, nil, "admin-1", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("g-1"))
			},
			wantID: "g-1",
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO circle_groups`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			g := domain.NewGroup("Circle", 3, 500, "USD", "sku-1", "admin-1", now)
			err = NewGroupStore(db).CreateGroup(ctx, g)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, g.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGroupStore_LoadGroup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Group
		wantErr error
	}{
		{
			name: "running group",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, duration`).
					WithArgs("g-1").
					WillReturnRows(sqlmock.NewRows(groupRowColumns).
						AddRow("g-1", "Circle", 3, int64(500), "USD", "", "running", 2, "abcd", now, nil, "admin-1", now, now))
			},
			want: &domain.Group{
				ID: "g-1", Name: "Circle", Duration: 3, ContributionAmount: 500, Currency: "USD",
				State: domain.GroupStateRunning, CurrentTurn: 2, DrawSeed: "abcd", StartedAt: &now,
				CreatedBy: "admin-1", CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, name, duration`).WithArgs("g-1").WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewGroupStore(db).LoadGroup(ctx, "g-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGroupStore_SaveGroupNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE circle_groups`).WillReturnResult(sqlmock.NewResult(0, 0))
	err = NewGroupStore(db).SaveGroup(context.Background(), &domain.Group{ID: "g-1", State: domain.GroupStateFull})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupStore_Atomically(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("commits and locks the group row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id, name, duration.* FROM circle_groups WHERE id = \$1 FOR UPDATE`).
			WithArgs("g-1").
			WillReturnRows(sqlmock.NewRows(groupRowColumns).
				AddRow("g-1", "Circle", 3, int64(500), "USD", "", "forming", 0, "", nil, nil, "admin-1", now, now))
		mock.ExpectExec(`UPDATE circle_groups`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewGroupStore(db).Atomically(ctx, func(repo domain.GroupRepository) error {
			g, err := repo.LoadGroup(ctx, "g-1")
			if err != nil {
				return err
			}
			g.State = domain.GroupStateFull
			return repo.SaveGroup(ctx, g)
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err = NewGroupStore(db).Atomically(ctx, func(domain.GroupRepository) error { return boom })
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGroupStore_AddMembership(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "success"},
		{name: "duplicate", err: &pq.Error{Code: pqUniqueViolation}, wantErr: domain.ErrAlreadyMember},
		{name: "unknown group", err: &pq.Error{Code: pqForeignKeyViolation}, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			exp := mock.ExpectExec(`INSERT INTO circle_memberships`).
				WithArgs("g-1", "m-1", "Ana", "ana@example.com", "USD", now)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			m := domain.NewMembership("g-1", "m-1", "Ana", "ana@example.com", "USD", now)
			err = NewGroupStore(db).AddMembership(context.Background(), m)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGroupStore_LoadMemberships(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT group_id, member_id, display_name, email, position, currency, joined_at`).
		WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows([]string{"group_id", "member_id", "display_name", "email", "position", "currency", "joined_at"}).
			AddRow("g-1", "m-1", "Ana", "", int64(2), "USD", now).
			AddRow("g-1", "m-2", "Bo", "", nil, "USD", now))

	ms, err := NewGroupStore(db).LoadMemberships(context.Background(), "g-1")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	require.NotNil(t, ms[0].Position)
	require.Equal(t, 2, *ms[0].Position)
	require.Nil(t, ms[1].Position)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupStore_SaveMemberships(t *testing.T) {
	one, two := 1, 2
	ms := []*domain.Membership{
		{GroupID: "g-1", MemberID: "m-1", Position: &two},
		{GroupID: "g-1", MemberID: "m-2", Position: &one},
	}

	t.Run("assigns empty positions", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE circle_memberships SET position = \$1 WHERE .* AND position IS NULL`).
			WithArgs(2, "g-1", "m-1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE circle_memberships`).
			WithArgs(1, "g-1", "m-2").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewGroupStore(db).SaveMemberships(context.Background(), ms))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("position already held", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE circle_memberships`).
			WithArgs(2, "g-1", "m-1").WillReturnResult(sqlmock.NewResult(0, 0))

		err = NewGroupStore(db).SaveMemberships(context.Background(), ms)
		require.ErrorIs(t, err, domain.ErrDrawAlreadyPerformed)
	})
}

func TestGroupStore_Contributions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "group_id", "member_id", "period", "amount", "state", "paid_at", "created_at", "updated_at"}

	t.Run("create", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO circle_contributions`).
			WithArgs("g-1", "m-1", 1, int64(500), "pending", nil, now, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-1"))

		c := domain.NewContribution("g-1", "m-1", 1, 500, now)
		require.NoError(t, NewGroupStore(db).CreateContribution(ctx, c))
		require.Equal(t, "c-1", c.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list by period", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM circle_contributions WHERE group_id = \$1 AND \(\$2 = 0 OR period = \$2\)`).
			WithArgs("g-1", 1).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("c-1", "g-1", "m-1", 1, int64(500), "confirmed", now, now, now).
				AddRow("c-2", "g-1", "m-2", 1, int64(500), "pending", nil, now, now))

		got, err := NewGroupStore(db).LoadContributions(ctx, "g-1", 1)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, domain.ContributionConfirmed, got[0].State)
		require.NotNil(t, got[0].PaidAt)
		require.Nil(t, got[1].PaidAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("load missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM circle_contributions WHERE id = \$1`).WithArgs("c-9").WillReturnError(sql.ErrNoRows)
		_, err = NewGroupStore(db).LoadContribution(ctx, "c-9")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGroupStore_SaveDelivery(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO circle_deliveries`).
			WithArgs("g-1", "m-1", 1, "sku-1", "pending", now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d-1"))

		d := domain.NewDelivery("g-1", "m-1", 1, "sku-1", now)
		require.NoError(t, NewGroupStore(db).SaveDelivery(context.Background(), d))
		require.Equal(t, "d-1", d.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("period already delivered", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO circle_deliveries`).WillReturnError(&pq.Error{Code: pqUniqueViolation})
		err = NewGroupStore(db).SaveDelivery(context.Background(), domain.NewDelivery("g-1", "m-1", 1, "", now))
		require.ErrorIs(t, err, domain.ErrDeliveryExists)
	})
}

func TestApplyMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("CREATE TABLE a (id INT);")},
		"0002_b.sql": {Data: []byte("CREATE TABLE b (id INT);")},
		"README.md":  {Data: []byte("ignored")},
	}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0001_a.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0002_b.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("0002_b.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, applyMigrations(context.Background(), db, fsys))
	require.NoError(t, mock.ExpectationsWereMet())
}
