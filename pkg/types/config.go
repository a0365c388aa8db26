package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds settings used when a corpus is fetched over HTTP.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "question-bank/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 and 503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DuplicatePolicy decides what happens when a corpus defines the same
// question identifier more than once.
type DuplicatePolicy string

const (
	// DuplicateKeepFirst keeps the first block and drops later ones.
	DuplicateKeepFirst DuplicatePolicy = "keep-first"

	// DuplicateKeepLast keeps the last block, placed where it occurs.
	DuplicateKeepLast DuplicatePolicy = "keep-last"

	// DuplicateReject fails the extraction.
	DuplicateReject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy converts a flag or config value to a DuplicatePolicy.
// An empty string selects DuplicateKeepFirst.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(s); p {
	case "":
		return DuplicateKeepFirst, nil
	case DuplicateKeepFirst, DuplicateKeepLast, DuplicateReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q: use keep-first, keep-last, or reject", s)
	}
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// HeaderPrefixes lists the line prefixes treated as section headers
	// and discarded (default "Subelement", "Group").
	HeaderPrefixes []string `json:"header_prefixes" yaml:"header_prefixes"`

	// Duplicates selects the duplicate-identifier policy (default keep-first).
	Duplicates DuplicatePolicy `json:"duplicates" yaml:"duplicates"`

	// RulesFile optionally replaces the built-in explanation rules.
	RulesFile string `json:"rules_file,omitempty" yaml:"rules_file,omitempty"`

	// Workers bounds parallel explanation (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// PoolsDir is the base directory for corpora (contains raw/).
	PoolsDir string `json:"pools_dir" yaml:"pools_dir"`

	// BankDir is the base directory for extraction output (contains extracted/).
	BankDir string `json:"bank_dir" yaml:"bank_dir"`
}

// BankConfig holds settings for the question bank.
type BankConfig struct {
	// BankDir is the base directory for the bank (contains extracted/, index/).
	BankDir string `json:"bank_dir" yaml:"bank_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Source     HTTPConfig       `json:"source" yaml:"source"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Bank       BankConfig       `json:"bank" yaml:"bank"`
}
