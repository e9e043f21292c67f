// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog indexes canonical material records in SQLite for search
// and export.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/material-normalizer/internal/emit"
	"github.com/pdiddy/material-normalizer/internal/schema"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

const dbFile = "catalog.db"

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the catalog database.
type Store struct {
	db         *sql.DB
	catalogDir string
	recordsDir string
	maxResults int
	fts        bool
	log        *zap.Logger
}

// NewStore opens or creates catalogDir/catalog.db and its schema. A nil
// logger discards log output.
func NewStore(cfg types.CatalogConfig, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CatalogDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		catalogDir: cfg.CatalogDir,
		recordsDir: cfg.RecordsDir,
		maxResults: maxResults,
		log:        log,
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FullText reports whether the FTS5 index is available.
func (s *Store) FullText() bool {
	return s.fts
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS materials (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			category TEXT,
			subcategory TEXT,
			formula TEXT,
			applications TEXT,
			industries TEXT,
			record TEXT NOT NULL,
			body TEXT,
			path TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_materials_category ON materials(category)`,
		`CREATE TABLE IF NOT EXISTS properties (
			slug TEXT NOT NULL REFERENCES materials(slug) ON DELETE CASCADE,
			grp TEXT NOT NULL,
			name TEXT NOT NULL,
			value REAL,
			min REAL,
			max REAL,
			unit TEXT,
			confidence REAL,
			PRIMARY KEY (slug, grp, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_name ON properties(name)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			path TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			indexed INTEGER,
			updated INTEGER,
			skipped INTEGER,
			failed INTEGER,
			removed INTEGER
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='materials_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	// go-sqlite3 compiles FTS5 only with the sqlite_fts5 build tag.
	if _, err := s.db.Exec(`CREATE VIRTUAL TABLE materials_fts USING fts5(
		name, category, applications, industries, content=materials, content_rowid=rowid)`); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			s.log.Warn("fts5 unavailable, search falls back to substring matching")
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}
	triggers := []string{
		`CREATE TRIGGER materials_ai AFTER INSERT ON materials BEGIN
			INSERT INTO materials_fts(rowid, name, category, applications, industries)
			VALUES (new.rowid, new.name, new.category, new.applications, new.industries);
		END`,
		`CREATE TRIGGER materials_ad AFTER DELETE ON materials BEGIN
			INSERT INTO materials_fts(materials_fts, rowid, name, category, applications, industries)
			VALUES ('delete', old.rowid, old.name, old.category, old.applications, old.industries);
		END`,
		`CREATE TRIGGER materials_au AFTER UPDATE ON materials BEGIN
			INSERT INTO materials_fts(materials_fts, rowid, name, category, applications, industries)
			VALUES ('delete', old.rowid, old.name, old.category, old.applications, old.industries);
			INSERT INTO materials_fts(rowid, name, category, applications, industries)
			VALUES (new.rowid, new.name, new.category, new.applications, new.industries);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS triggers: %w", err)
		}
	}
	s.fts = true
	return nil
}

// IngestSummary holds counts from one catalog ingest run.
type IngestSummary struct {
	RunID   string
	Indexed int
	Updated int
	Skipped int
	Failed  int
	Removed int
}

// Total returns the number of record files seen.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads canonical records from the records directory. Files whose
// modification time is unchanged since the last run are skipped, changed
// files replace their rows, and materials whose file disappeared are
// removed. On any change it rewrites export.yaml.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	summary := IngestSummary{RunID: uuid.NewString()}
	started := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		summary.RunID, started.Format(timeLayout),
	); err != nil {
		return summary, fmt.Errorf("recording run: %w", err)
	}
	log := s.log.With(zap.String("run_id", summary.RunID))

	entries, err := os.ReadDir(s.recordsDir)
	if err != nil {
		return summary, fmt.Errorf("reading records directory %s: %w", s.recordsDir, err)
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !isRecordFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := entry.Name()
		seen[name] = true
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime, storedSlug string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time, slug FROM ingest_status WHERE path = ?`, name,
		).Scan(&storedModTime, &storedSlug)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped  %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		rec, err := emit.ReadFile(filepath.Join(s.recordsDir, name))
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if err := s.ingestRecord(ctx, name, storedSlug, rec, modTime); err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		log.Debug("ingested record", zap.String("path", name), zap.String("slug", rec.Slug))

		n := len(rec.Properties) + len(rec.Settings)
		if isUpdate {
			fmt.Fprintf(w, "updated  %s (%d measurements)\n", rec.Slug, n)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed  %s (%d measurements)\n", rec.Slug, n)
			summary.Indexed++
		}
	}

	removed, err := s.removeMissing(ctx, seen)
	if err != nil {
		return summary, err
	}
	for _, slug := range removed {
		fmt.Fprintf(w, "removed  %s\n", slug)
	}
	summary.Removed = len(removed)

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d, removed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed, summary.Removed)

	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, indexed = ?, updated = ?, skipped = ?, failed = ?, removed = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout),
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed, summary.Removed, summary.RunID,
	); err != nil {
		return summary, fmt.Errorf("recording run: %w", err)
	}

	if summary.Indexed > 0 || summary.Updated > 0 || summary.Removed > 0 {
		if _, err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}
	log.Info("catalog ingest finished",
		zap.Int("indexed", summary.Indexed),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("removed", summary.Removed),
	)
	return summary, nil
}

func isRecordFile(name string) bool {
	for _, format := range []types.OutputFormat{types.OutputYAML, types.OutputMarkdown} {
		ext := filepath.Ext(emit.FileName("", format))
		if strings.HasSuffix(name, emit.Suffix+ext) {
			return true
		}
	}
	return false
}

func (s *Store) ingestRecord(ctx context.Context, path, oldSlug string, rec types.Record, modTime string) error {
	if rec.Slug == "" {
		return fmt.Errorf("record has no slug")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, slug := range []string{oldSlug, rec.Slug} {
		if slug == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE slug = ?`, slug); err != nil {
			return fmt.Errorf("deleting old rows: %w", err)
		}
	}

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO materials (slug, name, category, subcategory, formula, applications, industries, record, body, path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Slug, rec.Name, rec.Category, rec.Subcategory, rec.Formula,
		strings.Join(rec.Applications, "; "), strings.Join(rec.Industries, "; "),
		string(recordJSON), rec.Body, path,
	)
	if err != nil {
		return fmt.Errorf("inserting material: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO properties (slug, grp, name, value, min, max, unit, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range []struct {
		group schema.Group
		ms    map[string]types.Measurement
	}{{schema.GroupProperty, rec.Properties}, {schema.GroupSetting, rec.Settings}} {
		for _, name := range sortedNames(g.ms) {
			m := g.ms[name]
			if _, err := stmt.ExecContext(ctx,
				rec.Slug, string(g.group), name, m.Value, m.Min, m.Max, m.Unit, m.Confidence,
			); err != nil {
				return fmt.Errorf("inserting %s.%s: %w", g.group, name, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (path, slug, file_mod_time) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET slug=excluded.slug, file_mod_time=excluded.file_mod_time`,
		path, rec.Slug, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}
	return tx.Commit()
}

// removeMissing deletes materials whose record file is no longer present
// and returns their slugs.
func (s *Store) removeMissing(ctx context.Context, seen map[string]bool) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, slug FROM ingest_status ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing ingest status: %w", err)
	}
	type stale struct{ path, slug string }
	var gone []stale
	for rows.Next() {
		var st stale
		if err := rows.Scan(&st.path, &st.slug); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning ingest status: %w", err)
		}
		if !seen[st.path] {
			gone = append(gone, st)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var removed []string
	for _, st := range gone {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE slug = ? AND path = ?`, st.slug, st.path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", st.slug, err)
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM ingest_status WHERE path = ?`, st.path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", st.path, err)
		}
		removed = append(removed, st.slug)
	}
	return removed, nil
}

// Run is one recorded ingest run.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Indexed    int       `json:"indexed" yaml:"indexed"`
	Updated    int       `json:"updated" yaml:"updated"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
	Removed    int       `json:"removed" yaml:"removed"`
}

// Runs returns recorded ingest runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, indexed, updated, skipped, failed, removed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                                          Run
			started                                    string
			finished                                   sql.NullString
			indexed, updated, skipped, failed, removed sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &started, &finished, &indexed, &updated, &skipped, &failed, &removed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(timeLayout, finished.String)
		}
		r.Indexed, r.Updated, r.Skipped = int(indexed.Int64), int(updated.Int64), int(skipped.Int64)
		r.Failed, r.Removed = int(failed.Int64), int(removed.Int64)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func sortedNames(ms map[string]types.Measurement) []string {
	names := make([]string, 0, len(ms))
	for n := range ms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
