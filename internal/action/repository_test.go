package action

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupActionTestDB creates an in-memory SQLite database with the actions schema.
func setupActionTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE actions (
			id                  TEXT PRIMARY KEY,
			name                TEXT NOT NULL DEFAULT '',
			triggers            TEXT NOT NULL DEFAULT '[]',
			action_values       TEXT NOT NULL DEFAULT '{}',
			enabled             INTEGER,
			custom_activation   TEXT,
			specific_activation TEXT,
			startup_enabled     INTEGER NOT NULL DEFAULT 0,
			legacy_trigger      TEXT,
			legacy_trigger_data TEXT,
			sort_order          INTEGER NOT NULL DEFAULT 0,
			created_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL
		) STRICT;
	`
	if _, execErr := db.Exec(schema); execErr != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", execErr)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(setupActionTestDB(t))
	ctx := context.Background()

	a := &Action{
		ID:                 "a1",
		Name:               "Walk-in",
		Triggers:           []string{"start_playlist", "wait", "start_show"},
		ActionValues:       map[string]any{"start_playlist": map[string]any{"id": "p1"}, "wait": map[string]any{"number": 2.0}},
		Enabled:            BoolPtr(false),
		CustomActivation:   "midi_signal",
		SpecificActivation: "midi_signal__note-60",
		SortOrder:          3,
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	got, err := repo.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Walk-in" || len(got.Triggers) != 3 || got.Triggers[2] != "start_show" {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.Enabled == nil || *got.Enabled {
		t.Errorf("Enabled = %v, want false", got.Enabled)
	}
	if got.SpecificActivation != "midi_signal__note-60" {
		t.Errorf("SpecificActivation = %q", got.SpecificActivation)
	}
	if v := got.ActionValues["wait"].(map[string]any)["number"]; v != 2.0 {
		t.Errorf("wait number = %v, want 2", v)
	}
}

func TestSQLiteRepository_NilEnabledStaysUnset(t *testing.T) {
	repo := NewSQLiteRepository(setupActionTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &Action{ID: "u", Triggers: []string{"next_slide"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, _ := repo.GetByID(ctx, "u")
	if got.Enabled != nil {
		t.Errorf("Enabled = %v, want nil", *got.Enabled)
	}
	if !got.IsEnabled() {
		t.Error("IsEnabled() = false, want true")
	}
}

func TestSQLiteRepository_LegacyColumns(t *testing.T) {
	repo := NewSQLiteRepository(setupActionTestDB(t))
	ctx := context.Background()

	legacy := &Action{ID: "l", LegacyTrigger: "goto_slide", LegacyTriggerData: map[string]any{"index": 1.0}, StartupEnabled: true}
	if err := repo.Create(ctx, legacy); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, "l")
	if got.LegacyTrigger != "goto_slide" || !got.StartupEnabled {
		t.Errorf("legacy fields = %q, %v", got.LegacyTrigger, got.StartupEnabled)
	}
	if got.LegacyTriggerData.(map[string]any)["index"] != 1.0 {
		t.Errorf("LegacyTriggerData = %v", got.LegacyTriggerData)
	}
}

func TestSQLiteRepository_Errors(t *testing.T) {
	repo := NewSQLiteRepository(setupActionTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "none"); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("GetByID() error = %v, want ErrActionNotFound", err)
	}
	if err := repo.Update(ctx, &Action{ID: "none"}); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("Update() error = %v, want ErrActionNotFound", err)
	}
	if err := repo.Delete(ctx, "none"); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("Delete() error = %v, want ErrActionNotFound", err)
	}

	if err := repo.Create(ctx, &Action{ID: "dup"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &Action{ID: "dup"}); !errors.Is(err, ErrActionExists) {
		t.Errorf("duplicate Create() error = %v, want ErrActionExists", err)
	}
}

func TestSQLiteRepository_ListOrdering(t *testing.T) {
	repo := NewSQLiteRepository(setupActionTestDB(t))
	ctx := context.Background()

	for _, a := range []Action{
		{ID: "x", Name: "Zed", SortOrder: 0},
		{ID: "y", Name: "Alpha", SortOrder: 1},
		{ID: "z", Name: "Beta", SortOrder: 0},
	} {
		if err := repo.Create(ctx, &a); err != nil {
			t.Fatalf("Create(%s) error = %v", a.ID, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"z", "x", "y"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, id)
		}
	}
}
