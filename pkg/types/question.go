// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Letter designates one of the four answer options.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
)

// Letters lists the option letters in option order.
var Letters = [4]Letter{LetterA, LetterB, LetterC, LetterD}

// Valid reports whether l is one of A, B, C, or D.
func (l Letter) Valid() bool {
	return l.Index() >= 0
}

// Index returns the option index for l (A=0 .. D=3), or -1 if l is not a
// valid letter.
func (l Letter) Index() int {
	for i, v := range Letters {
		if v == l {
			return i
		}
	}
	return -1
}

// QuestionID is a pool identifier such as "T0A01": the letter T, the
// subelement number, the group letter, and a two-digit item number.
type QuestionID string

// Subelement returns the subelement code ("T0A01" -> "T0"), or "" when the
// identifier carries no group letter.
func (id QuestionID) Subelement() string {
	if i := id.groupLetterIndex(); i > 0 {
		return string(id[:i])
	}
	return ""
}

// Group returns the group code ("T0A01" -> "T0A"), or "" when the
// identifier carries no group letter.
func (id QuestionID) Group() string {
	if i := id.groupLetterIndex(); i > 0 {
		return string(id[:i+1])
	}
	return ""
}

func (id QuestionID) groupLetterIndex() int {
	s := string(id)
	if !strings.HasPrefix(s, "T") {
		return -1
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if c >= 'A' && c <= 'Z' && i > 1 {
			return i
		}
		return -1
	}
	return -1
}

// ParsedQuestion is one question block recognized in a corpus.
type ParsedQuestion struct {
	// ID is the pool identifier, e.g. "T0A01".
	ID QuestionID `json:"id" yaml:"id"`

	// Stem is the question text without options or answer.
	Stem string `json:"question" yaml:"question"`

	// Options holds the option texts in order A, B, C, D.
	Options [4]string `json:"options" yaml:"options"`

	// CorrectLetter is the letter stated after "Correct Answer:".
	CorrectLetter Letter `json:"correctAnswer" yaml:"correctAnswer"`

	// CorrectText is the verbatim text following the correct-answer letter.
	// It usually, but not necessarily, equals the selected option.
	CorrectText string `json:"-" yaml:"-"`
}

// SelectedOption returns the option text designated by CorrectLetter.
func (q ParsedQuestion) SelectedOption() string {
	i := q.CorrectLetter.Index()
	if i < 0 {
		return ""
	}
	return q.Options[i]
}

// CompletedQuestion is a ParsedQuestion with its explanation. Its JSON form
// is the record consumed by the study app:
// {id, question, options, correctAnswer, explanation}.
type CompletedQuestion struct {
	ParsedQuestion `yaml:",inline"`

	// Explanation is the synthesized, always non-empty explanation.
	Explanation string `json:"explanation" yaml:"explanation"`
}

// QuestionSet holds the records extracted from a single corpus.
type QuestionSet struct {
	// Pool names the corpus the questions came from (file name without extension).
	Pool string `json:"pool" yaml:"pool"`

	// Questions holds the completed records in source order.
	Questions []CompletedQuestion `json:"questions" yaml:"questions"`

	// Dropped counts candidate blocks that did not match the grammar.
	Dropped int `json:"dropped" yaml:"dropped"`
}
