package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/question-bank/internal/source"
	"github.com/pdiddy/question-bank/pkg/types"
)

// envKeyReplacer maps nested keys to environment names, e.g.
// extraction.bank_dir -> QUESTION_BANK_EXTRACTION_BANK_DIR.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// loadConfig assembles the pipeline configuration from flags, environment,
// and the config file, in viper's precedence order.
func loadConfig() (types.PipelineConfig, error) {
	policy, err := types.ParseDuplicatePolicy(viper.GetString("extraction.duplicates"))
	if err != nil {
		return types.PipelineConfig{}, err
	}

	return types.PipelineConfig{
		Source: types.HTTPConfig{
			Timeout:    viper.GetDuration("source.timeout"),
			UserAgent:  "question-bank/" + version,
			MaxRetries: viper.GetInt("source.max_retries"),
		},
		Extraction: types.ExtractionConfig{
			HeaderPrefixes: viper.GetStringSlice("extraction.header_prefixes"),
			Duplicates:     policy,
			RulesFile:      viper.GetString("extraction.rules_file"),
			Workers:        viper.GetInt("extraction.workers"),
			PoolsDir:       viper.GetString("extraction.pools_dir"),
			BankDir:        viper.GetString("extraction.bank_dir"),
		},
		Bank: types.BankConfig{
			BankDir:    viper.GetString("bank.bank_dir"),
			MaxResults: viper.GetInt("bank.max_results"),
		},
	}, nil
}

// writeOutput encodes v as JSON or YAML to path, or to stdout when path is
// empty or "-".
func writeOutput(path, format string, v any) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case formatJSON, "":
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case formatYAML:
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}

	if path == "" || path == source.Stdin {
		_, err = os.Stdout.Write(data)
	} else {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
