// Command hintdb inspects and exercises rewrite-hint rule files: listing
// bases, searching a base for rules matching a pattern, and running the
// autorewrite engine against a term.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/haansn08/autorewrite/internal/engine"
	"github.com/haansn08/autorewrite/internal/hints"
	"github.com/haansn08/autorewrite/internal/proof"
	"github.com/haansn08/autorewrite/internal/ruleset"
	"github.com/haansn08/autorewrite/internal/term"
)

var (
	rulesPath string
	verbose   bool
	baseNames []string
)

var rootCmd = &cobra.Command{
	Use:           "hintdb",
	Short:         "Inspect and run rewrite-hint bases",
	Long:          `hintdb loads rewrite rules from a YAML file and lets you list bases, search patterns and rewrite terms to a fixpoint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var listCmd = &cobra.Command{
	Use:   "list [glob]",
	Short: "List bases and their rules",
	Long:  `List every base of the rule file, most recently declared rules first. An optional glob restricts the base names.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <base> <term>",
	Short: "Search a base for rules matching a pattern",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <term>",
	Short: "Rewrite a term to a fixpoint with the selected bases",
	Args:  cobra.ExactArgs(1),
	RunE:  runRewrite,
}

var watchCmd = &cobra.Command{
	Use:   "watch <term>",
	Short: "Rewrite a term, reloading the rule file whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "rules.yaml", "rule file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rewriteCmd.Flags().StringSliceVarP(&baseNames, "bases", "b", nil, "bases to apply, in order")
	watchCmd.Flags().StringSliceVarP(&baseNames, "bases", "b", nil, "bases to apply, in order")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hintdb:", err)
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := ruleset.LoadFile(rulesPath)
	if err != nil {
		return err
	}
	matcher := glob.MustCompile("*")
	if len(args) == 1 {
		matcher, err = glob.Compile(args[0])
		if err != nil {
			return fmt.Errorf("invalid base glob %q: %w", args[0], err)
		}
	}
	for _, name := range store.Bases() {
		if !matcher.Match(name) {
			continue
		}
		rules, err := store.AllRules(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d rules)\n", name, len(rules))
		for _, r := range rules {
			fmt.Printf("  %s %s: %s\n", r.Statement, direction(r), r.StatementType)
		}
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := ruleset.LoadFile(rulesPath)
	if err != nil {
		return err
	}
	query, err := term.Parse(args[1])
	if err != nil {
		return err
	}
	rules, err := store.Search(args[0], query)
	if err != nil {
		return err
	}
	for _, r := range rules {
		fmt.Printf("%s %s: %s\n", r.Statement, direction(r), r.StatementType)
	}
	slog.Info("search finished", "base", args[0], "matches", len(rules))
	return nil
}

func runRewrite(cmd *cobra.Command, args []string) error {
	store, err := ruleset.LoadFile(rulesPath)
	if err != nil {
		return err
	}
	return rewriteOnce(store, args[0])
}

func rewriteOnce(store *hints.Store, input string) error {
	t, err := term.Parse(input)
	if err != nil {
		return err
	}
	bases := baseNames
	if len(bases) == 0 {
		bases = store.Bases()
	}
	goal := proof.NewGoal(t)
	eng := engine.New(store, proof.NewTermRewriter(nil))
	if err := eng.AutoRewrite(goal, bases, engine.TargetConclusion(), nil); err != nil {
		return err
	}
	fmt.Println(goal.Conclusion())
	return nil
}

func direction(r *hints.Rule) string {
	if r.LeftToRight {
		return "->"
	}
	return "<-"
}
