// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the question-bank CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/question-bank/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from --verbose and --log-file before any subcommand runs.
var logger = zap.NewNop()

// rootCmd is the base command for the question-bank CLI.
var rootCmd = &cobra.Command{
	Use:   "question-bank",
	Short: "Turn amateur radio question pools into explained study records",
	Long: `question-bank parses a question-pool text corpus into structured
multiple-choice records, attaches a deterministic explanation to each,
and maintains a searchable SQLite bank of the results.

Single corpora are processed with "extract"; whole pool directories with
"extract --batch". The "bank" commands index, search, and export the
extracted sets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(logging.Options{
			Verbose: viper.GetBool("verbose"),
			File:    viper.GetString("log_file"),
		})
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./question-bank.yaml or ~/.config/question-bank/question-bank.yaml)")
	flags.BoolP("verbose", "v", false, "log dropped blocks, duplicates, and rule decisions")
	flags.String("log-file", "", "also write JSON logs to this rotating file")
	flags.String("rules", "", "YAML rule file replacing the built-in explanation rules")

	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("log_file", flags.Lookup("log-file"))
	viper.BindPFlag("extraction.rules_file", flags.Lookup("rules"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("question-bank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "question-bank"))
		}
	}

	viper.SetEnvPrefix("QUESTION_BANK")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
