// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/question-bank/internal/bank"
	"github.com/pdiddy/question-bank/pkg/types"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Index, search, and export extracted question sets",
	Long: `Bank maintains a SQLite question bank under <bank-dir>/index/. "store"
loads the question sets produced by "extract --batch"; "retrieve" runs
full-text and structured queries; "export" writes study-app documents;
"stats" counts questions per subelement.`,
}

// openStore opens the bank configured by --bank-dir and --max-results.
func openStore() (*bank.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bank.NewStore(cfg.Bank, logger)
}

// queryOptions reads the shared filter flags of cmd. MaxResults is left to
// the store, which takes it from --max-results or the config file.
func queryOptions(cmd *cobra.Command, args []string) bank.QueryOptions {
	flags := cmd.Flags()
	subelement, _ := flags.GetString("subelement")
	group, _ := flags.GetString("group")
	pool, _ := flags.GetString("pool")
	id, _ := flags.GetString("id")

	return bank.QueryOptions{
		Query:      strings.Join(args, " "),
		Subelement: subelement,
		Group:      group,
		Pool:       pool,
		ID:         types.QuestionID(id),
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("subelement", "", "filter by subelement, e.g. T0")
	cmd.Flags().String("group", "", "filter by group, e.g. T0A")
	cmd.Flags().String("pool", "", "filter by pool name")
	cmd.Flags().String("id", "", "select a single question id")
}

var bankStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Load extracted question sets into the bank",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := store.Ingest(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d question sets failed", summary.Failed, summary.Total())
		}
		return nil
	},
}

var bankRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query...]",
	Short: "Search the bank",
	Long: `Retrieve runs an FTS5 query over question and explanation text when
query words are given (ranked by relevance), or lists questions by id
otherwise. Filters narrow either form.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := queryOptions(cmd, args)
		if opts.IsEmpty() {
			return fmt.Errorf("give query words or at least one of --subelement, --group, --pool, --id")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.Retrieve(cmd.Context(), opts)
		if err != nil {
			return err
		}
		logger.Debug("retrieved questions", zap.Int("results", len(results)))

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if results == nil {
				results = []bank.QueryResult{}
			}
			return writeOutput("", formatJSON, results)
		}

		width, _ := cmd.Flags().GetInt("width")
		t := &table{
			header: []string{"ID", "ANSWER", "QUESTION", "CORRECT"},
			limits: []int{0, 0, width, 40},
		}
		for _, r := range results {
			t.add(string(r.ID), string(r.CorrectLetter), r.Stem, r.CorrectText)
		}
		return t.render(cmd.OutOrStdout())
	},
}

var bankExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export questions as a JSON or YAML document",
	Long: `Export writes the matching questions as an array of study-app records.
Without --output the document goes to <bank-dir>/index/export.json (or
export.yaml).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := queryOptions(cmd, nil)
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if output == "" {
			var path string
			switch format {
			case formatJSON:
				path, err = store.ExportJSON(cmd.Context(), opts)
			case formatYAML:
				path, err = store.ExportYAML(cmd.Context(), opts)
			default:
				return fmt.Errorf("unknown format %q: use json or yaml", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			return nil
		}

		records, err := store.Export(cmd.Context(), opts)
		if err != nil {
			return err
		}
		logger.Info("exported questions", zap.Int("questions", len(records)), zap.String("output", output))
		return writeOutput(output, format, records)
	},
}

var bankStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count questions per subelement",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeOutput("", formatJSON, st)
		}

		t := &table{header: []string{"SUBELEMENT", "GROUPS", "QUESTIONS"}}
		for _, s := range st.Subelements {
			t.add(s.Subelement, strconv.Itoa(s.Groups), strconv.Itoa(s.Questions))
		}
		t.add("total", "", strconv.Itoa(st.Questions))
		if err := t.render(cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d pools\n", st.Pools)
		return nil
	},
}

func init() {
	flags := bankCmd.PersistentFlags()
	flags.String("bank-dir", "bank", "base directory for the bank (contains extracted/, index/)")
	flags.Int("max-results", 20, "maximum number of query results")

	viper.BindPFlag("bank.bank_dir", flags.Lookup("bank-dir"))
	viper.BindPFlag("bank.max_results", flags.Lookup("max-results"))

	addFilterFlags(bankRetrieveCmd)
	bankRetrieveCmd.Flags().Bool("json", false, "output results as JSON")
	bankRetrieveCmd.Flags().Int("width", 70, "maximum cells of question text per row")

	addFilterFlags(bankExportCmd)
	bankExportCmd.Flags().String("format", formatJSON, "export format: json or yaml")
	bankExportCmd.Flags().StringP("output", "o", "", "output file, or - for stdout (default: <bank-dir>/index/export.<format>)")

	bankStatsCmd.Flags().Bool("json", false, "output stats as JSON")

	bankCmd.AddCommand(bankStoreCmd, bankRetrieveCmd, bankExportCmd, bankStatsCmd)
	rootCmd.AddCommand(bankCmd)
}
