/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/assetpress/pkg/codec"
	"github.com/fulmenhq/assetpress/pkg/config"
	"github.com/fulmenhq/assetpress/pkg/logger"
	"github.com/fulmenhq/assetpress/pkg/pipeline"
	"github.com/fulmenhq/assetpress/pkg/rules"
	"github.com/fulmenhq/assetpress/pkg/snapshot"
)

// newPressCommand creates a press command instance. A factory, like
// the root command, so tests get isolated flag state.
func newPressCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "press [path]",
		Short: "Transform assets in a build output directory",
		Long: `Run one transformation pass over a build output directory.

Assets matching the configured rules are re-encoded through their
codec. By default the original files are kept next to the transformed
ones; with --keep-original=false the originals are removed and every
stylesheet/script reference to them is rewritten to the new name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPress,
	}

	cmd.Flags().String("rules-file", "", "YAML file with ordered transformation rules")
	cmd.Flags().Bool("override-extension", true, "Strip the existing extension before appending the codec's")
	cmd.Flags().Bool("keep-original", true, "Keep originals next to transformed assets")
	cmd.Flags().Bool("strict", false, "Treat codec failures as fatal")
	cmd.Flags().Bool("silent", false, "Suppress the summary output")
	cmd.Flags().Bool("detailed-logs", false, "Log a savings line per transformed asset")
	cmd.Flags().Int("concurrency", 0, "Bound in-flight transforms (0 = unbounded)")
	cmd.Flags().Bool("dry-run", false, "Show matched assets and derived names without transforming")
	return cmd
}

// pressCmd represents the press command
var pressCmd = newPressCommand()

func runPress(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadProject()
	if err != nil {
		// Config loading failed, use defaults (this is normal if no config file exists)
		defaults := config.Default()
		cfg = &defaults
	}

	applyFlagOverrides(cmd, cfg)

	for _, diagnostic := range cfg.Reconcile() {
		logger.Warn(diagnostic)
	}

	set, err := buildRuleSet(cmd, cfg)
	if err != nil {
		return err
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	store, err := snapshot.NewDirStore(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return printPlan(cmd, store, set, cfg.OverrideExtension)
	}

	opts := pipeline.Options{
		OverrideExtension: cfg.OverrideExtension,
		KeepOriginal:      cfg.KeepOriginal,
		Concurrency:       cfg.Concurrency,
	}
	if cfg.DetailedLogs {
		opts.Progress = logOutcome
	}

	result, err := pipeline.New(set, opts).Run(cmd.Context(), store)
	if err != nil {
		return err
	}

	if !cfg.Silent {
		fmt.Fprintln(cmd.OutOrStdout(), result.Report.Summary())
	}

	if cfg.Strict && result.Report.FailureCount > 0 {
		return fmt.Errorf("%d transform(s) failed", result.Report.FailureCount)
	}
	return nil
}

// applyFlagOverrides lets explicitly set flags win over config file and
// environment values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("override-extension") {
		cfg.OverrideExtension, _ = cmd.Flags().GetBool("override-extension")
	}
	if cmd.Flags().Changed("keep-original") {
		cfg.KeepOriginal, _ = cmd.Flags().GetBool("keep-original")
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict, _ = cmd.Flags().GetBool("strict")
	}
	if cmd.Flags().Changed("silent") {
		cfg.Silent, _ = cmd.Flags().GetBool("silent")
	}
	if cmd.Flags().Changed("detailed-logs") {
		cfg.DetailedLogs, _ = cmd.Flags().GetBool("detailed-logs")
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
}

// buildRuleSet compiles the effective rule set: an explicit rules file
// wins over configured rules, which win over the built-in default.
func buildRuleSet(cmd *cobra.Command, cfg *config.Config) (*rules.Set, error) {
	rulesFile, _ := cmd.Flags().GetString("rules-file")
	if rulesFile != "" {
		loaded, err := rules.LoadFile(rulesFile)
		if err != nil {
			return nil, err
		}
		return rules.NewSet(loaded)
	}
	return cfg.RuleSet()
}

// printPlan lists matched assets with their derived output names.
func printPlan(cmd *cobra.Command, store snapshot.Store, set *rules.Set, overrideExt bool) error {
	out := cmd.OutOrStdout()

	matched := 0
	for _, name := range store.Names() {
		rule, ok := set.Match(name)
		if !ok {
			continue
		}
		c, err := codec.Lookup(rule.Codec)
		if err != nil {
			return err
		}
		newName := pipeline.OutputName(name, rule.Options.OutputExt(c), overrideExt)
		fmt.Fprintf(out, "%s -> %s (%s)\n", name, newName, rule.Codec)
		matched++
	}

	fmt.Fprintf(out, "%d asset(s) would be transformed\n", matched)
	return nil
}

// logOutcome emits one savings line per settled transform.
func logOutcome(outcome pipeline.Outcome) {
	if !outcome.Succeeded {
		logger.Warn("transform failed",
			logger.String("asset", outcome.OriginalName),
			logger.Err(outcome.Err))
		return
	}
	logger.Info("transformed",
		logger.String("asset", outcome.OriginalName),
		logger.String("output", outcome.NewName),
		logger.String("saved", pipeline.FormatSavings(outcome.SavedBytes)))
}
