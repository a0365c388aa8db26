package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/question-bank/internal/explain"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the ordered explanation rules",
	Long: `Rules prints the explanation rules in evaluation order. The first rule
whose terms match the question stem and the selected option supplies the
explanation; questions no rule matches get the fallback text.

Use --write to save the active rules as a YAML file that can be edited
and passed back with --rules.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := explain.Load(viper.GetString("extraction.rules_file"))
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("write"); path != "" {
			if err := explain.WriteRules(path, rs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rules to %s\n", len(rs.Rules()), path)
			return nil
		}

		out := cmd.OutOrStdout()
		if names, _ := cmd.Flags().GetBool("names"); names {
			for _, r := range rs.Rules() {
				fmt.Fprintln(out, r.Name)
			}
			return nil
		}

		width, _ := cmd.Flags().GetInt("width")
		t := &table{
			header: []string{"#", "NAME", "MATCH", "TEXT"},
			limits: []int{0, 0, 48, width},
		}
		for i, r := range rs.Rules() {
			t.add(strconv.Itoa(i+1), r.Name, describeRule(r), r.Text)
		}
		t.add("-", explain.FallbackName, "always", "<correct answer>. "+explain.Fallback(""))
		return t.render(out)
	},
}

// describeRule renders a rule's predicate compactly, e.g.
// "stem:battery+short answer:overheat|gas".
func describeRule(r explain.Rule) string {
	var parts []string
	if s := describeTerms(r.Stem); s != "" {
		parts = append(parts, "stem:"+s)
	}
	if s := describeTerms(r.Answer); s != "" {
		parts = append(parts, "answer:"+s)
	}
	return strings.Join(parts, " ")
}

func describeTerms(t explain.Terms) string {
	var parts []string
	if len(t.All) > 0 {
		parts = append(parts, strings.Join(t.All, "+"))
	}
	if len(t.Any) > 0 {
		parts = append(parts, strings.Join(t.Any, "|"))
	}
	return strings.Join(parts, ",")
}

func init() {
	rulesCmd.Flags().Bool("names", false, "print rule names only, one per line")
	rulesCmd.Flags().Int("width", 60, "maximum cells of explanation text per row")
	rulesCmd.Flags().String("write", "", "write the active rules to a YAML file")

	rootCmd.AddCommand(rulesCmd)
}
