package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/pbquery/internal/schema"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var fieldColumns = []string{"collection_name", "name", "type", "system", "hidden"}

func TestSaveCollections(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	c := schema.Collection{
		ID:   "pbc_123",
		Name: "users",
		Type: schema.TypeAuth,
		Fields: []schema.Field{
			{Name: "id", Type: "text", System: true},
			{Name: "email", Type: "email"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO collections").
		WithArgs("users", "pbc_123", "auth").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM collection_fields WHERE collection_name = \\$1").
		WithArgs("users").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO collection_fields").
		WithArgs("users", 0, "id", "text", true, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO collection_fields").
		WithArgs("users", 1, "email", "email", false, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.SaveCollections(context.Background(), c); err != nil {
		t.Fatalf("SaveCollections: %v", err)
	}
}

func TestSaveCollections_DefaultsTypeToBase(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO collections").
		WithArgs("posts", "", "base").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM collection_fields").
		WithArgs("posts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := s.SaveCollections(context.Background(), schema.Collection{Name: "posts"}); err != nil {
		t.Fatalf("SaveCollections: %v", err)
	}
}

func TestSaveCollections_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO collections").
		WithArgs("posts", "", "base").
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := s.SaveCollections(context.Background(), schema.Collection{Name: "posts"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSaveCollections_ValidatesBeforeWriting(t *testing.T) {
	db, _ := newMockDB(t)
	s := NewWithDB(db)

	err := s.SaveCollections(context.Background(), schema.Collection{Name: ""})
	var ve *schema.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *schema.ValidationError", err)
	}
}

func TestLoadCollections(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectQuery("SELECT name, remote_id, type FROM collections ORDER BY name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "remote_id", "type"}).
			AddRow("posts", "pbc_2", "base").
			AddRow("users", "pbc_1", "auth"))
	mock.ExpectQuery("SELECT collection_name, name, type, system, hidden FROM collection_fields").
		WillReturnRows(sqlmock.NewRows(fieldColumns).
			AddRow("posts", "title", "text", false, false).
			AddRow("users", "name", "text", false, false).
			AddRow("users", "password", "password", true, true).
			AddRow("orphan", "x", "text", false, false))

	got, err := s.LoadCollections(context.Background())
	if err != nil {
		t.Fatalf("LoadCollections: %v", err)
	}
	want := []schema.Collection{
		{ID: "pbc_2", Name: "posts", Type: schema.TypeBase, Fields: []schema.Field{{Name: "title", Type: "text"}}},
		{ID: "pbc_1", Name: "users", Type: schema.TypeAuth, Fields: []schema.Field{
			{Name: "name", Type: "text"},
			{Name: "password", Type: "password", System: true, Hidden: true},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadCollections mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCollections_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectQuery("SELECT name, remote_id, type FROM collections").
		WillReturnRows(sqlmock.NewRows([]string{"name", "remote_id", "type"}))

	got, err := s.LoadCollections(context.Background())
	if err != nil {
		t.Fatalf("LoadCollections: %v", err)
	}
	if got != nil {
		t.Errorf("LoadCollections = %v, want nil", got)
	}
}

func TestLoadRegistry(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectQuery("SELECT name, remote_id, type FROM collections").
		WillReturnRows(sqlmock.NewRows([]string{"name", "remote_id", "type"}).AddRow("users", "", "auth"))
	mock.ExpectQuery("SELECT collection_name, name, type, system, hidden FROM collection_fields").
		WillReturnRows(sqlmock.NewRows(fieldColumns).
			AddRow("users", "name", "text", false, false).
			AddRow("users", "email", "email", false, false))

	r, err := s.LoadRegistry(context.Background())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "email"}, r.FieldsForCollection("users")); diff != "" {
		t.Errorf("registry fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteCollection(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)

	mock.ExpectExec("DELETE FROM collections WHERE name = \\$1").
		WithArgs("users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.DeleteCollection(context.Background(), "users"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}

	mock.ExpectExec("DELETE FROM collections WHERE name = \\$1").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.DeleteCollection(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteCollection(ghost) error = %v, want ErrNotFound", err)
	}
}
