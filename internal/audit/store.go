// Package audit keeps an append-only log of completed analyses in SQLite.
//
// The store uses modernc.org/sqlite, a pure Go driver, so the binary stays
// CGO-free. Rows are never updated or deleted; triggers in the schema
// reject both. By default the database lives at ~/.clauserisk/data/audit.db.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ppiankov/clauserisk/internal/audit/migrations"
	"github.com/ppiankov/clauserisk/internal/model"
)

// Record is one audited analysis
type Record struct {
	ID             string            `json:"id"`
	RecordedAt     time.Time         `json:"recorded_at"`
	Source         string            `json:"source"`
	Language       model.LanguageTag `json:"language"`
	TotalClauses   int               `json:"total_clauses"`
	CompositeScore int               `json:"composite_score"`
	Band           model.Band        `json:"band"`
	Status         model.Status      `json:"status"`
	PolicyVersion  string            `json:"policy_version"`
	Clauses        []ClauseRecord    `json:"clauses"`
}

// ClauseRecord is the audited outcome of one clause
type ClauseRecord struct {
	Index            int        `json:"index"`
	Text             string     `json:"text"`
	Score            int        `json:"score"`
	Band             model.Band `json:"band"`
	Ownership        string     `json:"ownership,omitempty"`   // Semantic judgment, empty when none was made
	Exclusivity      string     `json:"exclusivity,omitempty"` // Semantic judgment, empty when none was made
	OwnershipTerms   []string   `json:"ownership_terms"`
	ExclusivityTerms []string   `json:"exclusivity_terms"`
}

// Store is the SQLite-backed audit log
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the audit database in dataDir.
// If dataDir is empty, defaults to ~/.clauserisk/data.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".clauserisk", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "audit.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Append writes one analysis and its clauses in a single transaction and
// returns the record ID. The document ID is reused when set.
func (s *Store) Append(ctx context.Context, doc *model.Document) (string, error) {
	if doc == nil {
		return "", errors.New("nil document")
	}

	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}

	recordedAt := doc.AnalyzedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_records (id, recorded_at, source, language, total_clauses, composite_score, band, status, policy_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, recordedAt.UTC().Format(time.RFC3339Nano), doc.Source, string(doc.Language), len(doc.Clauses),
		doc.CompositeScore, string(doc.Band), string(doc.Status), doc.PolicyVersion)
	if err != nil {
		return "", fmt.Errorf("insert record: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_clauses (record_id, clause_index, text, score, band, ownership, exclusivity, ownership_terms, exclusivity_terms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare clause insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range doc.Clauses {
		var ownership, exclusivity sql.NullString
		if c.Judgment != nil {
			ownership = sql.NullString{String: c.Judgment.Ownership, Valid: true}
			exclusivity = sql.NullString{String: c.Judgment.Exclusivity, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			id, c.Clause.Index, c.Clause.Text, c.Assessment.Score, string(c.Assessment.Band),
			ownership, exclusivity,
			joinTerms(c.Features.Ownership.Terms), joinTerms(c.Features.Exclusivity.Terms))
		if err != nil {
			return "", fmt.Errorf("insert clause %d: %w", c.Clause.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// List returns up to limit records, newest first, with their clauses.
// limit <= 0 returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, recorded_at, source, language, total_clauses, composite_score, band, status, policy_version
		FROM audit_records
		ORDER BY recorded_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var recordedAt, lang, band, status string
		if err := rows.Scan(&r.ID, &recordedAt, &r.Source, &lang, &r.TotalClauses, &r.CompositeScore, &band, &status, &r.PolicyVersion); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		r.Language = model.LanguageTag(lang)
		r.Band = model.Band(band)
		r.Status = model.Status(status)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	for i := range records {
		clauses, err := s.clauses(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Clauses = clauses
	}
	return records, nil
}

func (s *Store) clauses(ctx context.Context, recordID string) ([]ClauseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT clause_index, text, score, band, ownership, exclusivity, ownership_terms, exclusivity_terms
		FROM audit_clauses
		WHERE record_id = ?
		ORDER BY clause_index`, recordID)
	if err != nil {
		return nil, fmt.Errorf("query clauses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ClauseRecord
	for rows.Next() {
		var c ClauseRecord
		var band, ownTerms, exclTerms string
		var ownership, exclusivity sql.NullString
		if err := rows.Scan(&c.Index, &c.Text, &c.Score, &band, &ownership, &exclusivity, &ownTerms, &exclTerms); err != nil {
			return nil, fmt.Errorf("scan clause: %w", err)
		}
		c.Band = model.Band(band)
		c.Ownership = ownership.String
		c.Exclusivity = exclusivity.String
		c.OwnershipTerms = splitTerms(ownTerms)
		c.ExclusivityTerms = splitTerms(exclTerms)
		out = append(out, c)
	}
	return out, rows.Err()
}

// migrate runs all pending migrations, recording each applied version
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

func joinTerms(terms []string) string {
	return strings.Join(terms, "\x1f")
}

func splitTerms(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x1f")
}
