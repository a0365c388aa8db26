// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/question-bank/internal/explain"
	"github.com/pdiddy/question-bank/internal/extract"
	"github.com/pdiddy/question-bank/internal/source"
	"github.com/pdiddy/question-bank/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [corpus]",
	Short: "Parse a question pool and attach explanations",
	Long: `Extract reads a question-pool corpus (a file path, "-" for standard
input, or an http(s) URL), recognizes each question block, and writes
the completed records as a JSON array (or YAML with --format yaml):

  {"id", "question", "options", "correctAnswer", "explanation"}

Malformed blocks are dropped and counted. With --batch, every .txt corpus
in <pools-dir>/raw/ is processed into <bank-dir>/extracted/, skipping
corpora whose output is already newer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pipeline, err := newPipeline(cfg.Extraction)
		if err != nil {
			return err
		}

		batch, _ := cmd.Flags().GetBool("batch")
		if batch {
			if len(args) > 0 {
				return fmt.Errorf("--batch reads every corpus in %s; do not pass a corpus argument", cfg.Extraction.PoolsDir)
			}
			summary, err := pipeline.ExtractAll(cmd.Context(), cfg.Extraction, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			logger.Info("batch extraction finished",
				zap.Int("extracted", summary.Extracted),
				zap.Int("skipped", summary.Skipped),
				zap.Int("failed", summary.Failed))
			if summary.HasFailures() {
				return fmt.Errorf("%d of %d corpora failed", summary.Failed, summary.Total())
			}
			return nil
		}

		location := source.Stdin
		if len(args) == 1 {
			location = args[0]
		}

		corpus, err := source.NewReader(cfg.Source, nil).Read(cmd.Context(), location)
		if err != nil {
			return err
		}

		completed, res, err := pipeline.Run(cmd.Context(), corpus)
		if err != nil {
			return err
		}

		logger.Info("extracted questions",
			zap.String("corpus", location),
			zap.Int("questions", len(res.Questions)),
			zap.Int("candidates", res.Candidates),
			zap.Int("dropped", res.Dropped),
			zap.Int("duplicates", res.Duplicates))

		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		return writeOutput(output, format, completed)
	},
}

// newPipeline builds the extractor and rule set described by cfg.
func newPipeline(cfg types.ExtractionConfig) (*extract.Pipeline, error) {
	ex, err := extract.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	rules, err := explain.Load(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	if cfg.RulesFile != "" {
		logger.Debug("loaded rule file", zap.String("path", cfg.RulesFile), zap.Int("rules", len(rules.Rules())))
	}

	return &extract.Pipeline{Extractor: ex, Rules: rules, Workers: cfg.Workers}, nil
}

func init() {
	flags := extractCmd.Flags()
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", formatJSON, "output format: json or yaml")
	flags.String("duplicates", string(types.DuplicateKeepFirst), "duplicate id policy: keep-first, keep-last, or reject")
	flags.StringSlice("headers", extract.DefaultHeaderPrefixes, "line prefixes treated as section headers")
	flags.Int("workers", 4, "parallel explanation workers")
	flags.Duration("timeout", 30*time.Second, "HTTP timeout for URL corpora")
	flags.Bool("batch", false, "extract every corpus in pools-dir/raw/")
	flags.String("pools-dir", "pools", "base directory for corpora (contains raw/)")
	flags.String("bank-dir", "bank", "base directory for extraction output (contains extracted/)")

	viper.BindPFlag("extraction.duplicates", flags.Lookup("duplicates"))
	viper.BindPFlag("extraction.header_prefixes", flags.Lookup("headers"))
	viper.BindPFlag("extraction.workers", flags.Lookup("workers"))
	viper.BindPFlag("extraction.pools_dir", flags.Lookup("pools-dir"))
	viper.BindPFlag("extraction.bank_dir", flags.Lookup("bank-dir"))
	viper.BindPFlag("source.timeout", flags.Lookup("timeout"))

	rootCmd.AddCommand(extractCmd)
}
