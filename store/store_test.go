// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/danielhkuo/brikick/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return sqlx.NewDb(conn, "postgres"), mock
}

func TestGetMapsNoRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM lots WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := GetLot(context.Background(), db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLot() error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUniqueViolationIsConflict(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres foreign key", &pq.Error{Code: "23503"}, false},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true},
		{"connection reset", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec(`INSERT INTO users`).WillReturnError(tt.err)

			err := CreateUser(context.Background(), db, &models.User{ID: "u1", Email: "a@example.com"})
			if err == nil {
				t.Fatal("CreateUser() error = nil")
			}
			if got := errors.Is(err, ErrConflict); got != tt.conflict {
				t.Errorf("errors.Is(%v, ErrConflict) = %v, want %v", err, got, tt.conflict)
			}
		})
	}
}

func TestExecAffectedNoRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE shipping_fairness_flags SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE shipping_fairness_flags SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	now := time.Now()
	if err := ReviewShippingFlag(ctx, db, "f1", models.FlagReviewed, "staff", now); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReviewShippingFlag() on a closed flag error = %v, want ErrNotFound", err)
	}
	if err := ReviewShippingFlag(ctx, db, "f1", models.FlagReviewed, "staff", now); err != nil {
		t.Errorf("ReviewShippingFlag() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAdjustLotQuantityGuardsStock(t *testing.T) {
	tests := []struct {
		name    string
		exists  bool
		wantErr error
	}{
		{"stock taken meanwhile", true, ErrInsufficientStock},
		{"unknown lot", false, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			now := time.Now()
			mock.ExpectExec(`UPDATE lots SET\s+quantity = quantity \+ \$1,.*WHERE id = \$9 AND quantity \+ \$10 >= 0`).
				WithArgs(-5, -5, models.LotAvailable, models.LotSoldOut, -5, models.LotSoldOut, models.LotAvailable, now, "l1", -5).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs("l1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			err := AdjustLotQuantity(context.Background(), db, "l1", -5, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AdjustLotQuantity() error = %v, want %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	errStop := errors.New("stop")

	t.Run("commit", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET last_login_at`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
			return TouchLastLogin(ctx, tx, "u1", time.Now())
		})
		if err != nil {
			t.Errorf("WithTx() error = %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := WithTx(ctx, db, func(tx *sqlx.Tx) error { return errStop })
		if !errors.Is(err, errStop) {
			t.Errorf("WithTx() error = %v, want %v", err, errStop)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("expectations: %v", err)
		}
	})

	t.Run("begin fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(errStop)

		called := false
		err := WithTx(ctx, db, func(tx *sqlx.Tx) error { called = true; return nil })
		if !errors.Is(err, errStop) || called {
			t.Errorf("WithTx() error = %v, called = %v", err, called)
		}
	})

	t.Run("commit fails", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errStop)

		err := WithTx(ctx, db, func(tx *sqlx.Tx) error { return nil })
		if !errors.Is(err, errStop) {
			t.Errorf("WithTx() error = %v, want %v", err, errStop)
		}
	})
}
