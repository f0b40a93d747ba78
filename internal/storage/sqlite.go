package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tabemono/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		food_name TEXT NOT NULL,
		serving_size TEXT NOT NULL,
		calories REAL NOT NULL,
		macronutrients TEXT,
		aliases TEXT,
		quantity REAL NOT NULL,
		timestamp TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp);

	CREATE TABLE IF NOT EXISTS goals (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveEntries replaces the stored entry list in a single transaction.
func (s *SQLiteStore) SaveEntries(ctx context.Context, entries []models.FoodEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (id, food_name, serving_size, calories, macronutrients, aliases, quantity, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		macrosJSON, err := json.Marshal(entry.Food.Macronutrients)
		if err != nil {
			return fmt.Errorf("marshal macronutrients: %w", err)
		}
		aliasesJSON, err := json.Marshal(entry.Food.Aliases)
		if err != nil {
			return fmt.Errorf("marshal aliases: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			entry.ID,
			entry.Food.Name,
			entry.Food.ServingSize,
			entry.Food.Calories,
			string(macrosJSON),
			string(aliasesJSON),
			entry.Quantity,
			entry.Timestamp.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	return tx.Commit()
}

// LoadEntries reads all entries ordered by timestamp.
func (s *SQLiteStore) LoadEntries(ctx context.Context) ([]models.FoodEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, food_name, serving_size, calories, macronutrients, aliases, quantity, timestamp
		 FROM entries ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.FoodEntry
	for rows.Next() {
		var (
			entry       models.FoodEntry
			macrosJSON  sql.NullString
			aliasesJSON sql.NullString
			timestamp   string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Food.Name,
			&entry.Food.ServingSize,
			&entry.Food.Calories,
			&macrosJSON,
			&aliasesJSON,
			&entry.Quantity,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.Food.Macronutrients = map[string]float64{}
		if macrosJSON.Valid && macrosJSON.String != "" {
			if err := json.Unmarshal([]byte(macrosJSON.String), &entry.Food.Macronutrients); err != nil {
				return nil, fmt.Errorf("parse macronutrients: %w", err)
			}
		}
		if aliasesJSON.Valid && aliasesJSON.String != "" {
			if err := json.Unmarshal([]byte(aliasesJSON.String), &entry.Food.Aliases); err != nil {
				return nil, fmt.Errorf("parse aliases: %w", err)
			}
		}
		ts, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		entry.Timestamp = ts
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveGoals upserts the single goals row.
func (s *SQLiteStore) SaveGoals(ctx context.Context, goals models.NutritionGoals) error {
	payload, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO goals (id, payload) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		string(payload))
	if err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// LoadGoals reads the goals row; no row means no goals set.
func (s *SQLiteStore) LoadGoals(ctx context.Context) (models.NutritionGoals, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM goals WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return models.NutritionGoals{}, nil
	}
	if err != nil {
		return models.NutritionGoals{}, fmt.Errorf("query goals: %w", err)
	}
	var goals models.NutritionGoals
	if err := json.Unmarshal([]byte(payload), &goals); err != nil {
		return models.NutritionGoals{}, fmt.Errorf("parse goals: %w", err)
	}
	return goals, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
