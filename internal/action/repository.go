package action

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for action persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Action, error)
	List(ctx context.Context) ([]Action, error)
	Create(ctx context.Context, a *Action) error
	Update(ctx context.Context, a *Action) error
	Delete(ctx context.Context, id string) error
}

// actionColumns is the SELECT column list for action queries.
const actionColumns = `id, name, triggers, action_values, enabled, custom_activation,
			specific_activation, startup_enabled, legacy_trigger, legacy_trigger_data,
			sort_order, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves an action by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions WHERE id = ?`

	a, err := scanActionRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActionNotFound
		}
		return nil, fmt.Errorf("querying action by id: %w", err)
	}
	return a, nil
}

// List retrieves all actions ordered by sort_order then name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions ORDER BY sort_order, name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		a, scanErr := scanActionRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning action: %w", scanErr)
		}
		actions = append(actions, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}
	return actions, nil
}

// Create inserts a new action.
func (r *SQLiteRepository) Create(ctx context.Context, a *Action) error {
	cols, err := encodeAction(a)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	query := `
		INSERT INTO actions (
			id, name, triggers, action_values, enabled, custom_activation,
			specific_activation, startup_enabled, legacy_trigger, legacy_trigger_data,
			sort_order, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.Name,
		cols.triggers,
		cols.values,
		cols.enabled,
		nullableString(a.CustomActivation),
		nullableString(a.SpecificActivation),
		boolToInt(a.StartupEnabled),
		nullableString(a.LegacyTrigger),
		cols.legacyData,
		a.SortOrder,
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrActionExists
		}
		return fmt.Errorf("inserting action: %w", err)
	}
	return nil
}

// Update modifies an existing action.
func (r *SQLiteRepository) Update(ctx context.Context, a *Action) error {
	cols, err := encodeAction(a)
	if err != nil {
		return err
	}

	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE actions SET
			name = ?, triggers = ?, action_values = ?, enabled = ?,
			custom_activation = ?, specific_activation = ?, startup_enabled = ?,
			legacy_trigger = ?, legacy_trigger_data = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		a.Name,
		cols.triggers,
		cols.values,
		cols.enabled,
		nullableString(a.CustomActivation),
		nullableString(a.SpecificActivation),
		boolToInt(a.StartupEnabled),
		nullableString(a.LegacyTrigger),
		cols.legacyData,
		a.SortOrder,
		a.UpdatedAt.Format(time.RFC3339),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating action: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrActionNotFound
	}
	return nil
}

// Delete removes an action by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM actions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting action: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrActionNotFound
	}
	return nil
}

// ─── Row Encoding ───────────────────────────────────────────────────────────

type encodedColumns struct {
	triggers   string
	values     string
	enabled    sql.NullInt64
	legacyData sql.NullString
}

func encodeAction(a *Action) (encodedColumns, error) {
	var cols encodedColumns

	triggers := a.Triggers
	if triggers == nil {
		triggers = []string{}
	}
	b, err := json.Marshal(triggers)
	if err != nil {
		return cols, fmt.Errorf("marshalling triggers: %w", err)
	}
	cols.triggers = string(b)

	values := a.ActionValues
	if values == nil {
		values = map[string]any{}
	}
	if b, err = json.Marshal(values); err != nil {
		return cols, fmt.Errorf("marshalling action values: %w", err)
	}
	cols.values = string(b)

	if a.Enabled != nil {
		cols.enabled = sql.NullInt64{Int64: int64(boolToInt(*a.Enabled)), Valid: true}
	}

	if a.LegacyTriggerData != nil {
		if b, err = json.Marshal(a.LegacyTriggerData); err != nil {
			return cols, fmt.Errorf("marshalling legacy trigger data: %w", err)
		}
		cols.legacyData = sql.NullString{String: string(b), Valid: true}
	}
	return cols, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanActionRow(scanner rowScanner) (*Action, error) {
	var a Action
	var triggersJSON, valuesJSON string
	var enabled sql.NullInt64
	var customActivation, specificActivation, legacyTrigger, legacyData sql.NullString
	var startupEnabled int
	var createdAt, updatedAt string

	err := scanner.Scan(
		&a.ID,
		&a.Name,
		&triggersJSON,
		&valuesJSON,
		&enabled,
		&customActivation,
		&specificActivation,
		&startupEnabled,
		&legacyTrigger,
		&legacyData,
		&a.SortOrder,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if enabled.Valid {
		a.Enabled = BoolPtr(enabled.Int64 != 0)
	}
	a.CustomActivation = customActivation.String
	a.SpecificActivation = specificActivation.String
	a.StartupEnabled = startupEnabled != 0
	a.LegacyTrigger = legacyTrigger.String

	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		a.CreatedAt = t
	}
	if t, parseErr := time.Parse(time.RFC3339, updatedAt); parseErr == nil {
		a.UpdatedAt = t
	}

	if err := json.Unmarshal([]byte(triggersJSON), &a.Triggers); err != nil {
		return nil, fmt.Errorf("unmarshalling triggers: %w", err)
	}
	if a.Triggers == nil {
		a.Triggers = []string{}
	}
	if valuesJSON != "" && valuesJSON != "{}" {
		if err := json.Unmarshal([]byte(valuesJSON), &a.ActionValues); err != nil {
			return nil, fmt.Errorf("unmarshalling action values: %w", err)
		}
	}
	if legacyData.Valid && legacyData.String != "" {
		if err := json.Unmarshal([]byte(legacyData.String), &a.LegacyTriggerData); err != nil {
			return nil, fmt.Errorf("unmarshalling legacy trigger data: %w", err)
		}
	}

	return &a, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint")
}
