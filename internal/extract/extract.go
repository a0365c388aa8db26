// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract segments a raw question-pool corpus into question blocks
// and parses each block into a types.ParsedQuestion.
//
// A block is an identifier such as T0A01, an advisory answer letter in
// parentheses, the stem, four options introduced by "A." through "D.", and
// the terminator "Correct Answer:" followed by the authoritative letter and
// the verbatim answer text. Blocks that do not match this grammar are
// dropped without producing a partial record.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/question-bank/pkg/types"
)

// ErrDuplicateID is returned when the reject policy meets an identifier that
// was already extracted from the same corpus.
var ErrDuplicateID = errors.New("duplicate question id")

// DefaultHeaderPrefixes are the section-header tokens discarded by default.
var DefaultHeaderPrefixes = []string{"Subelement", "Group"}

const (
	idPattern = `T\d+[A-Z]\d{2}`

	// candidatePattern also accepts mistyped identifiers such as T0A003,
	// which open a block of their own and are dropped there.
	candidatePattern = `T\d+[A-Z]?\d*`
)

var (
	// unitStart matches a physical line that begins a new question.
	unitStart = regexp.MustCompile(`^(?:` + idPattern + `\b|` + candidatePattern + `\s*\([A-Z]\))`)

	// inlineStart finds further questions that share a physical line.
	inlineStart = regexp.MustCompile(`\s` + candidatePattern + `\s*\([A-Z]\)`)

	// blockGrammar parses one block. Stem and options are shortest-match so
	// periods inside text do not end a field early; "Correct Answer:" bounds
	// option D and the answer text runs to the end of the block.
	blockGrammar = regexp.MustCompile(`^(` + idPattern + `)\s+\(([A-D])\)\s+(.+?)\s+A\.\s+(.+?)\s+B\.\s+(.+?)\s+C\.\s+(.+?)\s+D\.\s+(.+?)\s+Correct Answer:\s+([A-D])\.\s+(.+)$`)
)

// Result holds the questions extracted from one corpus and the counts
// reported as diagnostics.
type Result struct {
	// Questions are the parsed records in source order.
	Questions []types.ParsedQuestion

	// Candidates is the number of blocks considered.
	Candidates int

	// Dropped counts blocks that did not match the grammar.
	Dropped int

	// Duplicates counts blocks discarded or replaced by the duplicate policy.
	Duplicates int
}

// Extractor turns a corpus into ParsedQuestions. It holds no per-call state
// and is safe for concurrent use.
type Extractor struct {
	headers    []string
	duplicates types.DuplicatePolicy
	log        *zap.Logger
}

// New builds an Extractor from cfg. A nil logger discards diagnostics.
func New(cfg types.ExtractionConfig, log *zap.Logger) (*Extractor, error) {
	policy, err := types.ParseDuplicatePolicy(string(cfg.Duplicates))
	if err != nil {
		return nil, err
	}

	headers := cfg.HeaderPrefixes
	if len(headers) == 0 {
		headers = DefaultHeaderPrefixes
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Extractor{
		headers:    append([]string(nil), headers...),
		duplicates: policy,
		log:        log,
	}, nil
}

// Extract parses corpus into questions in source order. The only error is
// ErrDuplicateID under the reject policy; malformed blocks are dropped and
// counted. An empty corpus yields an empty Result.
func (e *Extractor) Extract(corpus string) (*Result, error) {
	blocks := e.Blocks(corpus)
	res := &Result{Candidates: len(blocks)}

	// position of each kept id in res.Questions; replaced slots get an empty ID.
	index := make(map[types.QuestionID]int, len(blocks))
	var replaced bool

	for _, block := range blocks {
		q, ok := e.parse(block)
		if !ok {
			res.Dropped++
			e.log.Debug("dropped malformed block", zap.String("block", preview(block)))
			continue
		}

		prev, seen := index[q.ID]
		if !seen {
			index[q.ID] = len(res.Questions)
			res.Questions = append(res.Questions, q)
			continue
		}

		res.Duplicates++
		switch e.duplicates {
		case types.DuplicateReject:
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, q.ID)
		case types.DuplicateKeepLast:
			e.log.Debug("replacing duplicate question", zap.String("id", string(q.ID)))
			res.Questions[prev].ID = ""
			replaced = true
			index[q.ID] = len(res.Questions)
			res.Questions = append(res.Questions, q)
		default:
			e.log.Debug("ignoring duplicate question", zap.String("id", string(q.ID)))
		}
	}

	if replaced {
		kept := res.Questions[:0]
		for _, q := range res.Questions {
			if q.ID != "" {
				kept = append(kept, q)
			}
		}
		res.Questions = kept
	}

	return res, nil
}

// Blocks splits corpus into candidate question blocks.
//
// Lines that start with an identifier, or with an identifier-like token
// followed by a parenthesized letter, open a new block; header lines are
// discarded; any other line continues the current block, joined with a
// single space. Text before the first identifier is ignored. A block that
// holds several questions on one line is split before each identifier-like
// token followed by a parenthesized letter.
func (e *Extractor) Blocks(corpus string) []string {
	var (
		units   []string
		current strings.Builder
		open    bool
	)

	flush := func() {
		if open {
			units = append(units, current.String())
		}
		current.Reset()
	}

	for _, line := range strings.Split(corpus, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if unitStart.MatchString(line) {
			flush()
			open = true
			current.WriteString(line)
			continue
		}

		if e.isHeader(line) || !open {
			continue
		}

		current.WriteByte(' ')
		current.WriteString(line)
	}
	flush()

	var blocks []string
	for _, u := range units {
		blocks = append(blocks, splitInline(u)...)
	}
	return blocks
}

// ParseBlock parses a single block. It reports false when the block does
// not match the grammar or any field is empty after trimming.
func (e *Extractor) ParseBlock(block string) (types.ParsedQuestion, bool) {
	return e.parse(block)
}

func (e *Extractor) parse(block string) (types.ParsedQuestion, bool) {
	m := blockGrammar.FindStringSubmatch(strings.TrimSpace(block))
	if m == nil {
		return types.ParsedQuestion{}, false
	}

	q := types.ParsedQuestion{
		ID:            types.QuestionID(m[1]),
		Stem:          strings.TrimSpace(m[3]),
		CorrectLetter: types.Letter(m[8]),
		CorrectText:   strings.TrimSpace(m[9]),
	}
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(m[4+i])
	}

	if q.Stem == "" || q.CorrectText == "" || !q.CorrectLetter.Valid() {
		return types.ParsedQuestion{}, false
	}
	for _, opt := range q.Options {
		if opt == "" {
			return types.ParsedQuestion{}, false
		}
	}

	// The parenthesized letter is advisory; the terminator letter wins.
	if advisory := types.Letter(m[2]); advisory != q.CorrectLetter {
		e.log.Debug("advisory answer letter overridden",
			zap.String("id", m[1]),
			zap.String("advisory", string(advisory)),
			zap.String("correct", string(q.CorrectLetter)))
	}

	return q, true
}

// isHeader reports whether line starts with a header token, as written or
// in upper case, followed by a non-letter or the end of the line.
func (e *Extractor) isHeader(line string) bool {
	for _, h := range e.headers {
		if headerPrefix(line, h) || headerPrefix(line, strings.ToUpper(h)) {
			return true
		}
	}
	return false
}

func headerPrefix(line, h string) bool {
	if !strings.HasPrefix(line, h) {
		return false
	}
	rest := line[len(h):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(r)
}

func splitInline(unit string) []string {
	locs := inlineStart.FindAllStringIndex(unit, -1)
	if len(locs) == 0 {
		return []string{unit}
	}

	parts := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		// loc[0] is the whitespace before the identifier.
		parts = append(parts, strings.TrimSpace(unit[start:loc[0]]))
		start = loc[0] + 1
	}
	parts = append(parts, strings.TrimSpace(unit[start:]))
	return parts
}

func preview(s string) string {
	const limit = 60
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
