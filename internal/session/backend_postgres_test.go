package session

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockPostgresBackend(t *testing.T) (*PostgresBackend, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ui_storage").WillReturnResult(sqlmock.NewResult(0, 0))
	backend, err := NewPostgresBackend(db)
	if err != nil {
		t.Fatalf("NewPostgresBackend() error: %v", err)
	}
	return backend, mock
}

func TestNewPostgresBackendRequiresDB(t *testing.T) {
	if _, err := NewPostgresBackend(nil); err == nil {
		t.Fatalf("expected error for nil database")
	}
}

func TestPostgresBackendReadMissing(t *testing.T) {
	backend, mock := newMockPostgresBackend(t)

	mock.ExpectQuery("SELECT value FROM ui_storage WHERE scope = \\$1 AND key = \\$2").
		WithArgs("tab-1", Key).
		WillReturnError(sql.ErrNoRows)

	store, _ := NewStore(backend, "tab-1")
	if _, err := store.Get(context.Background()); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresBackendSetGetClear(t *testing.T) {
	backend, mock := newMockPostgresBackend(t)
	ctx := context.Background()
	store, _ := NewStore(backend, "tab-1")

	encoded, err := Encode(testUser)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	mock.ExpectExec("INSERT INTO ui_storage").
		WithArgs("tab-1", Key, string(encoded)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := store.Set(ctx, testUser); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	mock.ExpectQuery("SELECT value FROM ui_storage").
		WithArgs("tab-1", Key).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(string(encoded)))
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.FirstName != "Waqas" || got.Roles[0] != "account-holder" {
		t.Fatalf("unexpected user: %+v", got)
	}

	mock.ExpectExec("DELETE FROM ui_storage").
		WithArgs("tab-1", Key).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
