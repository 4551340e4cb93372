package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on a Postgres search_histories table. The
// table carries a unique (user_id, postal_code) index as the safety net
// behind the pipeline's lookup-before-insert dedup check.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &PostgresStore{db: db}, nil
}

// ApplyMigrations executes the .sql files in dir in lexical order.
func (s *PostgresStore) ApplyMigrations(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".sql") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

const historyColumns = `id, user_id, postal_code, town, temperature, temperature_min,
	temperature_max, humidity, pressure, description, created_at, updated_at`

func (s *PostgresStore) FindByUserAndPostalCode(ctx context.Context, userID, postalCode string) (*SearchHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM search_histories
		WHERE user_id = $1 AND postal_code = $2
	`

	var h SearchHistory
	err := scanRow(s.db.QueryRowContext(ctx, query, userID, postalCode), &h)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "find", Err: err}
	}
	return &h, nil
}

func (s *PostgresStore) Create(ctx context.Context, h *SearchHistory) error {
	query := `
		INSERT INTO search_histories (
			user_id, postal_code, town, temperature, temperature_min,
			temperature_max, humidity, pressure, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(
		ctx, query,
		h.UserID, h.PostalCode, h.Town, h.Temperature, h.TemperatureMin,
		h.TemperatureMax, h.Humidity, h.Pressure, h.Description,
	).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return &PersistenceError{Op: "create", Err: err}
	}
	return nil
}

func (s *PostgresStore) UpdateWeather(ctx context.Context, id int64, temperature float64, description string) error {
	query := `
		UPDATE search_histories
		SET temperature = $1, description = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, temperature, description, id); err != nil {
		return &PersistenceError{Op: "update", Err: err}
	}
	return nil
}

func (s *PostgresStore) All(ctx context.Context) ([]SearchHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM search_histories
		ORDER BY id
	`
	return s.queryRows(ctx, query)
}

func (s *PostgresStore) Recent(ctx context.Context, userID string, limit int) ([]SearchHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM search_histories
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	return s.queryRows(ctx, query, userID, limit)
}

func (s *PostgresStore) ByUser(ctx context.Context, userID string) ([]SearchHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM search_histories
		WHERE user_id = $1
		ORDER BY id
	`
	return s.queryRows(ctx, query, userID)
}

func (s *PostgresStore) queryRows(ctx context.Context, query string, args ...interface{}) ([]SearchHistory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	defer rows.Close()

	var result []SearchHistory
	for rows.Next() {
		var h SearchHistory
		if err := scanRow(rows, &h); err != nil {
			return nil, &PersistenceError{Op: "list", Err: err}
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(row scanner, h *SearchHistory) error {
	return row.Scan(
		&h.ID,
		&h.UserID,
		&h.PostalCode,
		&h.Town,
		&h.Temperature,
		&h.TemperatureMin,
		&h.TemperatureMax,
		&h.Humidity,
		&h.Pressure,
		&h.Description,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
}
