// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/question-bank/internal/explain"
	"github.com/pdiddy/question-bank/pkg/types"
)

const (
	rawDir       = "raw"
	extractedDir = "extracted"

	// OutputSuffix names the per-pool extraction files in extracted/.
	OutputSuffix = "-questions.yaml"
)

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of corpora processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any corpus failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Pipeline runs extraction followed by explanation.
type Pipeline struct {
	Extractor *Extractor
	Rules     *explain.RuleSet
	Workers   int
}

// Run extracts corpus and explains every question. The Result carries the
// diagnostic counts; the completed questions are in source order.
func (p *Pipeline) Run(ctx context.Context, corpus string) ([]types.CompletedQuestion, *Result, error) {
	res, err := p.Extractor.Extract(corpus)
	if err != nil {
		return nil, nil, err
	}

	completed, err := explain.ExplainAll(ctx, p.Rules, res.Questions, p.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("explaining questions: %w", err)
	}
	return completed, res, nil
}

// ExtractPool reads one corpus file and returns its completed question set.
func (p *Pipeline) ExtractPool(ctx context.Context, pool, path string) (*types.QuestionSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}

	completed, res, err := p.Run(ctx, string(content))
	if err != nil {
		return nil, err
	}

	return &types.QuestionSet{
		Pool:      pool,
		Questions: completed,
		Dropped:   res.Dropped,
	}, nil
}

// ExtractAll processes every .txt corpus in cfg.PoolsDir/raw/ and writes a
// question set per corpus to cfg.BankDir/extracted/. Corpora whose output is
// newer than the input are skipped.
func (p *Pipeline) ExtractAll(ctx context.Context, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	inDir := filepath.Join(cfg.PoolsDir, rawDir)
	outDir := filepath.Join(cfg.BankDir, extractedDir)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading corpus directory %s: %w", inDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		pool := strings.TrimSuffix(entry.Name(), ".txt")
		inPath := filepath.Join(inDir, entry.Name())
		outPath := filepath.Join(outDir, pool+OutputSuffix)

		changed, err := hasChanged(inPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", pool, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", pool)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "extracting %s\n", pool)

		set, err := p.ExtractPool(ctx, pool, inPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", pool, err)
			summary.Failed++
			continue
		}

		if err := WriteSet(outPath, set); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", pool, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "extracted %s (%d questions, %d dropped)\n", pool, len(set.Questions), set.Dropped)
		summary.Extracted++
	}

	return summary, nil
}

// hasChanged reports whether the corpus is newer than the output file.
// Returns true if the output does not exist or the corpus is more recent.
func hasChanged(inPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false, fmt.Errorf("stat corpus %s: %w", inPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}

// WriteSet marshals a question set to a YAML file.
func WriteSet(path string, set *types.QuestionSet) error {
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling question set: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSet loads a question set written by WriteSet.
func ReadSet(path string) (*types.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set types.QuestionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &set, nil
}
