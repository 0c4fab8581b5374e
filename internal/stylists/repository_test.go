package stylists

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestUpsertRemoteKeepsLocalPermissions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	// The row already existed with a locally widened overlay; the upsert
	// must hand that overlay back, not the default one it tried to insert.
	stored := []byte(`{"can_book":true,"can_view_calendar":true,"can_edit_clients":true,"can_manage_services":false}`)
	mock.ExpectQuery("ON CONFLICT \\(tenant_id, id\\) DO UPDATE").
		WithArgs("tm-1", "salon-1", "Rosa Vance", RoleOwner, "rosa@example.com", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"permissions", "updated_at"}).AddRow(stored, time.Now()))

	repo := NewPostgresRepositoryWithDB(mock)
	got, err := repo.UpsertRemote(context.Background(), "salon-1", Stylist{
		ID:          "tm-1",
		Name:        "Rosa Vance",
		Role:        RoleOwner,
		Email:       "rosa@example.com",
		Permissions: DefaultPermissions(),
	})
	if err != nil {
		t.Fatalf("UpsertRemote error: %v", err)
	}
	if !got.Permissions.CanEditClients {
		t.Errorf("local overlay lost: %+v", got.Permissions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertRemoteRequiresID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	if _, err := repo.UpsertRemote(context.Background(), "salon-1", Stylist{Name: "No ID"}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestListStylistsScansPermissions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "tenant_id", "name", "role", "email", "permissions", "updated_at"}).
		AddRow("tm-1", "salon-1", "Rosa", RoleOwner, "rosa@example.com", []byte(`{"can_book":true,"can_view_calendar":true}`), now).
		AddRow("tm-2", "salon-1", "Sam", RoleStylist, "", []byte(`{"can_book":true}`), now)
	mock.ExpectQuery("SELECT id, tenant_id, name, role, email, permissions, updated_at").
		WithArgs("salon-1").
		WillReturnRows(rows)

	repo := NewPostgresRepositoryWithDB(mock)
	list, err := repo.List(context.Background(), "salon-1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 || !list[0].Permissions.CanViewCalendar || list[1].Permissions.CanViewCalendar {
		t.Fatalf("list = %+v", list)
	}
}

func TestUpdatePermissionsNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("UPDATE stylists").
		WithArgs(pgxmock.AnyArg(), "missing", "salon-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepositoryWithDB(mock)
	err = repo.UpdatePermissions(context.Background(), "salon-1", "missing", DefaultPermissions())
	if !errors.Is(err, ErrStylistNotFound) {
		t.Fatalf("want ErrStylistNotFound, got %v", err)
	}
}
