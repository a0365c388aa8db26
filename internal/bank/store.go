// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bank indexes extracted question sets in SQLite and answers
// full-text and structured queries over them.
package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/question-bank/internal/extract"
	"github.com/pdiddy/question-bank/pkg/types"
)

const (
	extractedDir = "extracted"
	indexDir     = "index"
	dbFile       = "questions.db"

	defaultMaxResults = 20
)

// Store manages the question bank database.
type Store struct {
	db         *sql.DB
	bankDir    string
	maxResults int
	log        *zap.Logger
}

// NewStore opens or creates bankDir/index/questions.db and its schema.
// A nil logger discards output.
func NewStore(cfg types.BankConfig, log *zap.Logger) (*Store, error) {
	dbDir := filepath.Join(cfg.BankDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dbDir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Store{
		db:         db,
		bankDir:    cfg.BankDir,
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

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pools (
			name TEXT PRIMARY KEY,
			question_count INTEGER NOT NULL DEFAULT 0,
			dropped INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			pool TEXT NOT NULL REFERENCES pools(name),
			subelement TEXT,
			group_code TEXT,
			question TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			explanation TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_pool ON questions(pool)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_group ON questions(group_code)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			pool TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='questions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE questions_fts USING fts5(question, explanation, content=questions, content_rowid=rowid)`,
			`CREATE TRIGGER questions_ai AFTER INSERT ON questions BEGIN
				INSERT INTO questions_fts(rowid, question, explanation) VALUES (new.rowid, new.question, new.explanation);
			END`,
			`CREATE TRIGGER questions_ad AFTER DELETE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, question, explanation) VALUES('delete', old.rowid, old.question, old.explanation);
			END`,
			`CREATE TRIGGER questions_au AFTER UPDATE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, question, explanation) VALUES('delete', old.rowid, old.question, old.explanation);
				INSERT INTO questions_fts(rowid, question, explanation) VALUES (new.rowid, new.question, new.explanation);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of pools processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads the question sets in bankDir/extracted/ and loads new or
// changed ones into the database. Unchanged files (same mod time as the
// last run) are skipped. When anything was written, export.json is
// regenerated.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	dir := filepath.Join(s.bankDir, extractedDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading extraction directory %s: %w", dir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extract.OutputSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		pool := strings.TrimSuffix(entry.Name(), extract.OutputSuffix)

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", pool, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE pool = ?`, pool,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", pool)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		set, err := extract.ReadSet(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", pool, err)
			summary.Failed++
			continue
		}
		if set.Pool == "" {
			set.Pool = pool
		}

		if err := s.ingestSet(ctx, pool, set, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", pool, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d questions)\n", pool, len(set.Questions))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d questions)\n", pool, len(set.Questions))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	if summary.Indexed > 0 || summary.Updated > 0 {
		if _, err := s.ExportJSON(ctx, QueryOptions{}); err != nil {
			s.log.Warn("export.json write failed", zap.Error(err))
		}
	}

	return summary, nil
}

func (s *Store) ingestSet(ctx context.Context, pool string, set *types.QuestionSet, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE pool = ?`, pool); err != nil {
			return fmt.Errorf("deleting old questions: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pools (name, question_count, dropped) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			question_count=excluded.question_count, dropped=excluded.dropped`,
		pool, len(set.Questions), set.Dropped,
	)
	if err != nil {
		return fmt.Errorf("upserting pool: %w", err)
	}

	// Upserting by id moves a question that changed pools and keeps the
	// FTS triggers in step.
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO questions (id, pool, subelement, group_code, question, options, correct_answer, explanation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			pool=excluded.pool, subelement=excluded.subelement, group_code=excluded.group_code,
			question=excluded.question, options=excluded.options,
			correct_answer=excluded.correct_answer, explanation=excluded.explanation`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range set.Questions {
		var prevPool string
		err := tx.QueryRowContext(ctx, `SELECT pool FROM questions WHERE id = ?`, string(q.ID)).Scan(&prevPool)
		switch {
		case err == nil && prevPool != pool:
			s.log.Warn("question moved between pools",
				zap.String("id", string(q.ID)), zap.String("from", prevPool), zap.String("to", pool))
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("looking up question %s: %w", q.ID, err)
		}

		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encoding options for %s: %w", q.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			string(q.ID), pool, q.ID.Subelement(), q.ID.Group(),
			q.Stem, string(optionsJSON), string(q.CorrectLetter), q.Explanation,
		)
		if err != nil {
			return fmt.Errorf("inserting question %s: %w", q.ID, err)
		}
	}

	// A moved question leaves its former pool's count stale.
	_, err = tx.ExecContext(ctx,
		`UPDATE pools SET question_count = (SELECT count(*) FROM questions WHERE questions.pool = pools.name)`)
	if err != nil {
		return fmt.Errorf("recounting pools: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (pool, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(pool) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		pool, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	s.log.Debug("indexed pool", zap.String("pool", pool), zap.Int("questions", len(set.Questions)))
	return tx.Commit()
}
