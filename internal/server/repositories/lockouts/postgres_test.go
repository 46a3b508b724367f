package lockouts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_Locked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	until := time.Date(2026, 8, 28, 12, 6, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"username", "attempts", "locked_until"}).
		AddRow("admin", 0, until)
	mock.ExpectQuery(`SELECT .* FROM lockouts\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("admin").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "admin")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Attempts != 0 || !got.LockedUntil.Equal(until) {
		t.Fatalf("unexpected lockout: %+v", got)
	}
}

func TestGet_TrackingOnly(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"username", "attempts", "locked_until"}).
		AddRow("admin", 2, nil)
	mock.ExpectQuery(`SELECT .* FROM lockouts`).
		WithArgs("admin").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "admin")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Attempts != 2 || !got.LockedUntil.IsZero() {
		t.Fatalf("unexpected lockout: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM lockouts`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestPut_SweepsThenUpserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	until := time.Date(2026, 8, 28, 12, 6, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE\s+FROM\s+lockouts\s+WHERE\s+locked_until\s+IS\s+NOT\s+NULL`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT\s+INTO\s+lockouts .*ON\s+CONFLICT`).
		WithArgs("admin", 0, until).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), &authgate.Lockout{
		Username: "admin", Attempts: 0, LockedUntil: until,
	})
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPut_TrackingRecordStoresNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+lockouts`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT\s+INTO\s+lockouts`).
		WithArgs("admin", 2, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), &authgate.Lockout{Username: "admin", Attempts: 2})
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+lockouts\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("admin").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "admin"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}
