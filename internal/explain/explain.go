// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explain selects an explanation for each extracted question using
// an ordered, first-match-wins list of lexical rules.
//
// Rules are data: each names the terms that must appear in the lowercased
// question stem and in the lowercased text of the selected option. The first
// rule whose terms are satisfied supplies the explanation; when none match,
// an unconditional fallback restates the correct answer.
package explain

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/question-bank/pkg/types"
)

// FallbackName is reported by Match when no rule applies.
const FallbackName = "fallback"

const fallbackPhrase = "This correctly addresses the safety principle, technical requirement, or operational procedure relevant to the question."

// Terms is a set of substring tests against one lowercased field.
type Terms struct {
	// All lists terms that must all be present.
	All []string `json:"all,omitempty" yaml:"all,omitempty"`

	// Any lists terms of which at least one must be present. Empty means
	// no constraint.
	Any []string `json:"any,omitempty" yaml:"any,omitempty"`
}

// IsEmpty reports whether t places no constraint on its field.
func (t Terms) IsEmpty() bool {
	return len(t.All) == 0 && len(t.Any) == 0
}

func (t Terms) lower() Terms {
	return Terms{All: lowerAll(t.All), Any: lowerAll(t.Any)}
}

// match reports whether text (already lowercased) satisfies t.
func (t Terms) match(text string) bool {
	for _, term := range t.All {
		if !strings.Contains(text, term) {
			return false
		}
	}
	if len(t.Any) == 0 {
		return true
	}
	for _, term := range t.Any {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// Rule maps a lexical predicate over (stem, selected option) to canned text.
type Rule struct {
	// Name identifies the rule in listings and tests.
	Name string `json:"name" yaml:"name"`

	// Stem constrains the question stem.
	Stem Terms `json:"stem,omitempty" yaml:"stem,omitempty"`

	// Answer constrains the text of the option selected by the correct letter.
	Answer Terms `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Text is the explanation emitted when the rule fires.
	Text string `json:"text" yaml:"text"`

	// IncludeAnswer prefixes Text with the verbatim correct-answer text.
	IncludeAnswer bool `json:"include_answer,omitempty" yaml:"include_answer,omitempty"`
}

// Matches reports whether the rule applies to a lowercased stem and
// lowercased selected option. Terms must already be lowercased.
func (r Rule) Matches(stem, answer string) bool {
	return r.Stem.match(stem) && r.Answer.match(answer)
}

// Render produces the explanation text for the verbatim correct answer.
func (r Rule) Render(correctText string) string {
	if !r.IncludeAnswer {
		return r.Text
	}
	return sentence(correctText) + " " + r.Text
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule has no name")
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("rule %q: empty text", r.Name)
	}
	if r.Stem.IsEmpty() && r.Answer.IsEmpty() {
		return fmt.Errorf("rule %q: no stem or answer terms", r.Name)
	}
	return nil
}

// RuleSet is an ordered rule list followed by the unconditional fallback.
// A RuleSet is immutable once built and safe for concurrent use.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates rules and returns a RuleSet evaluating them in the
// given order. Terms are lowercased so matching is case-insensitive.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	compiled := make([]Rule, len(rules))
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true
		r.Stem = r.Stem.lower()
		r.Answer = r.Answer.lower()
		compiled[i] = r
	}
	return &RuleSet{rules: compiled}, nil
}

// Rules returns a copy of the ordered rules, without the fallback.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Match returns the rule that fires for q and true, or a zero Rule and
// false when the fallback applies.
func (rs *RuleSet) Match(q types.ParsedQuestion) (Rule, bool) {
	stem := strings.ToLower(q.Stem)
	answer := strings.ToLower(q.SelectedOption())
	for _, r := range rs.rules {
		if r.Matches(stem, answer) {
			return r, true
		}
	}
	return Rule{}, false
}

// MatchName returns the name of the rule that fires for q, or FallbackName.
func (rs *RuleSet) MatchName(q types.ParsedQuestion) string {
	if r, ok := rs.Match(q); ok {
		return r.Name
	}
	return FallbackName
}

// Explain returns the explanation for q. It never returns an empty string.
// q must come from the extractor: CorrectLetter is assumed valid.
func (rs *RuleSet) Explain(q types.ParsedQuestion) string {
	if r, ok := rs.Match(q); ok {
		return r.Render(q.CorrectText)
	}
	return Fallback(q.CorrectText)
}

// Complete pairs q with its explanation.
func (rs *RuleSet) Complete(q types.ParsedQuestion) types.CompletedQuestion {
	return types.CompletedQuestion{ParsedQuestion: q, Explanation: rs.Explain(q)}
}

// Fallback restates the correct answer followed by a generic justification.
func Fallback(correctText string) string {
	s := sentence(correctText)
	if s == "" {
		return fallbackPhrase
	}
	return s + " " + fallbackPhrase
}

// ExplainAll completes questions in parallel with at most workers
// goroutines and returns them in input order. workers <= 0 uses GOMAXPROCS.
func ExplainAll(ctx context.Context, rs *RuleSet, questions []types.ParsedQuestion, workers int) ([]types.CompletedQuestion, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]types.CompletedQuestion, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range questions {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = rs.Complete(questions[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Wait cancels gctx, so check the caller's context for an early stop.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// sentence trims s and terminates it with a period unless it already ends
// in sentence punctuation.
func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}

func lowerAll(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
