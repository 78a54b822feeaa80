package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// SQLiteSource reads category records from a `categories` table. Findings
// and treatment are stored as JSON text columns.
type SQLiteSource struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteSource opens the database at dbPath. The file must already exist;
// the source never creates or migrates it.
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("dataset database: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLiteSource{db: db, dbPath: dbPath}, nil
}

// NewSQLiteSourceFromDB wraps an existing handle.
func NewSQLiteSourceFromDB(db *sql.DB, name string) *SQLiteSource {
	return &SQLiteSource{db: db, dbPath: name}
}

const selectCategories = `SELECT id, name, findings, recommended_evaluation, treatment FROM categories ORDER BY id`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(s scanner) (domain.CategoryRecord, error) {
	var (
		rec                         domain.CategoryRecord
		findings, evaluation, treat sql.NullString
	)

	if err := s.Scan(&rec.ID, &rec.Name, &findings, &evaluation, &treat); err != nil {
		return rec, err
	}

	rec.RecommendedEvaluation = evaluation.String
	if findings.Valid && findings.String != "" {
		if err := json.Unmarshal([]byte(findings.String), &rec.Findings); err != nil {
			return rec, fmt.Errorf("category %d findings: %w", rec.ID, err)
		}
	}
	if treat.Valid && treat.String != "" {
		if err := json.Unmarshal([]byte(treat.String), &rec.Treatment); err != nil {
			return rec, fmt.Errorf("category %d treatment: %w", rec.ID, err)
		}
	}

	return rec, nil
}

// Load reads every row of the categories table.
func (s *SQLiteSource) Load(ctx context.Context) (*domain.CategoryDataset, error) {
	rows, err := s.db.QueryContext(ctx, selectCategories)
	if err != nil {
		return nil, fmt.Errorf("%w: querying categories: %v", ErrRetrieval, err)
	}
	defer rows.Close()

	ds := &domain.CategoryDataset{Categories: []domain.CategoryRecord{}}
	for rows.Next() {
		rec, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
		}
		ds.Categories = append(ds.Categories, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	return ds, nil
}

// Name implements domain.CategorySource.
func (s *SQLiteSource) Name() string {
	return "sqlite:" + s.dbPath
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// createSchema creates the categories table.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		findings TEXT DEFAULT '[]',
		recommended_evaluation TEXT DEFAULT '',
		treatment TEXT DEFAULT '[]'
	);
	`

	_, err := db.Exec(schema)
	return err
}

// ImportSQLite writes dataset into the categories table of the database at
// dbPath, creating the file and table when needed. Existing rows with the
// same ID are replaced.
func ImportSQLite(ctx context.Context, dbPath string, dataset *domain.CategoryDataset) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range dataset.Categories {
		findings, err := json.Marshal(rec.Findings)
		if err != nil {
			return fmt.Errorf("category %d findings: %w", rec.ID, err)
		}
		treatment, err := json.Marshal(rec.Treatment)
		if err != nil {
			return fmt.Errorf("category %d treatment: %w", rec.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO categories (id, name, findings, recommended_evaluation, treatment)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, rec.Name, string(findings), rec.RecommendedEvaluation, string(treatment))
		if err != nil {
			return fmt.Errorf("failed to insert category %d: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}
