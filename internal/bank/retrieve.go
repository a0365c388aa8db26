// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/question-bank/pkg/types"
)

// ErrNotFound is returned by Get when no question has the requested id.
var ErrNotFound = errors.New("question not found")

// QueryOptions holds parameters for bank queries.
type QueryOptions struct {
	// Query is an FTS5 search over question and explanation text.
	Query string

	// Subelement filters by subelement code, e.g. "T0".
	Subelement string

	// Group filters by group code, e.g. "T0A".
	Group string

	// Pool filters by source pool name.
	Pool string

	// ID selects a single question.
	ID types.QuestionID

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Subelement == "" && q.Group == "" && q.Pool == "" && q.ID == ""
}

// QueryResult is a stored question with the pool it came from.
type QueryResult struct {
	types.CompletedQuestion `yaml:",inline"`

	// Pool names the question set the record was ingested from.
	Pool string `json:"pool" yaml:"pool"`
}

// Retrieve queries the bank. Full-text queries are ranked by relevance;
// structured-only queries are ordered by question id.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT q.id, q.pool, q.question, q.options, q.correct_answer, q.explanation
			FROM questions_fts
			JOIN questions q ON q.rowid = questions_fts.rowid
			WHERE questions_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT q.id, q.pool, q.question, q.options, q.correct_answer, q.explanation
			FROM questions q
			WHERE 1=1`)
	}

	if opts.Subelement != "" {
		qb.WriteString(` AND q.subelement = ?`)
		args = append(args, opts.Subelement)
	}
	if opts.Group != "" {
		qb.WriteString(` AND q.group_code = ?`)
		args = append(args, opts.Group)
	}
	if opts.Pool != "" {
		qb.WriteString(` AND q.pool = ?`)
		args = append(args, opts.Pool)
	}
	if opts.ID != "" {
		qb.WriteString(` AND q.id = ?`)
		args = append(args, string(opts.ID))
	}

	if useFTS {
		qb.WriteString(` ORDER BY questions_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY q.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying question bank: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			r           QueryResult
			id, letter  string
			optionsJSON string
		)
		if err := rows.Scan(&id, &r.Pool, &r.Stem, &optionsJSON, &letter, &r.Explanation); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &r.Options); err != nil {
			return nil, fmt.Errorf("decoding options for %s: %w", id, err)
		}
		r.ID = types.QuestionID(id)
		r.CorrectLetter = types.Letter(letter)
		r.CorrectText = r.SelectedOption()
		results = append(results, r)
	}

	return results, rows.Err()
}

// Get returns the question with the given id.
func (s *Store) Get(ctx context.Context, id types.QuestionID) (QueryResult, error) {
	results, err := s.Retrieve(ctx, QueryOptions{ID: id, MaxResults: 1})
	if err != nil {
		return QueryResult{}, err
	}
	if len(results) == 0 {
		return QueryResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return results[0], nil
}

// SubelementCount is the number of stored questions in one subelement.
type SubelementCount struct {
	Subelement string `json:"subelement" yaml:"subelement"`
	Groups     int    `json:"groups" yaml:"groups"`
	Questions  int    `json:"questions" yaml:"questions"`
}

// Stats summarizes the bank contents.
type Stats struct {
	Pools       int               `json:"pools" yaml:"pools"`
	Questions   int               `json:"questions" yaml:"questions"`
	Subelements []SubelementCount `json:"subelements" yaml:"subelements"`
}

// Stats returns question counts overall and per subelement.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pools`).Scan(&st.Pools); err != nil {
		return Stats{}, fmt.Errorf("counting pools: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM questions`).Scan(&st.Questions); err != nil {
		return Stats{}, fmt.Errorf("counting questions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT subelement, count(DISTINCT group_code), count(*)
		 FROM questions
		 GROUP BY subelement
		 ORDER BY subelement`)
	if err != nil {
		return Stats{}, fmt.Errorf("counting subelements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c   SubelementCount
			sub sql.NullString
		)
		if err := rows.Scan(&sub, &c.Groups, &c.Questions); err != nil {
			return Stats{}, fmt.Errorf("scanning row: %w", err)
		}
		c.Subelement = sub.String
		st.Subelements = append(st.Subelements, c)
	}

	return st, rows.Err()
}
