package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/store"
)

// RulesOptions holds flags for the rules subcommands.
type RulesOptions struct {
	*RootOptions
	All       bool
	ChangedBy string
}

// NewRulesCommand creates the rules command group: catalog import, listing,
// soft deletion, and the mutation audit log.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the compliance rule catalog",
	}

	cmd.PersistentFlags().StringVar(&opts.ChangedBy, "by", "", "identity recorded in the audit log")

	importCmd := &cobra.Command{
		Use:           "import <catalog.yaml>",
		Short:         "Import rules from a YAML catalog file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesImport(opts, args[0], cmd)
		},
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List catalog rules (active only by default)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(opts, cmd)
		},
	}
	listCmd.Flags().BoolVar(&opts.All, "all", false, "include soft-deleted rules")

	disableCmd := &cobra.Command{
		Use:           "disable <rule-id>",
		Short:         "Soft-delete a rule (existing calendar entries are kept)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesDisable(opts, args[0], cmd)
		},
	}

	logCmd := &cobra.Command{
		Use:           "log",
		Short:         "Show the catalog mutation audit log, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesLog(opts, cmd)
		},
	}

	cmd.AddCommand(importCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(disableCmd)
	cmd.AddCommand(logCmd)

	return cmd
}

func runRulesImport(opts *RulesOptions, path string, cmd *cobra.Command) error {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	imported, skipped, err := importCatalog(cmd, st, catalog, opts.ChangedBy)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rules (%d already present)\n", imported, skipped)
	return nil
}

// importCatalog inserts catalog rules, skipping names that already have an
// active rule so a catalog file can be imported repeatedly.
func importCatalog(cmd *cobra.Command, st *store.Store, catalog []rules.Rule, changedBy string) (int, int, error) {
	ctx := cmd.Context()
	now := time.Now().UTC()

	imported, skipped := 0, 0
	for _, r := range catalog {
		_, err := st.FindRuleByName(ctx, r.Name)
		if err == nil {
			skipped++
			continue
		}
		if !store.IsNotFoundError(err) {
			return 0, 0, err
		}
		if _, err := st.InsertRule(ctx, r, changedBy, now); err != nil {
			return 0, 0, fmt.Errorf("import rule %q: %w", r.Name, err)
		}
		imported++
	}
	return imported, skipped, nil
}

func runRulesList(opts *RulesOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	catalog, err := st.ListRules(cmd.Context(), !opts.All)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		type ruleRow struct {
			ID              int64    `json:"rule_id"`
			Name            string   `json:"rule_name"`
			Industries      []string `json:"industries"`
			States          []string `json:"states"`
			CompanyTypes    []string `json:"company_types"`
			FrequencyMonths int      `json:"frequency_months"`
			PenaltyImpact   string   `json:"penalty_impact"`
			Scope           string   `json:"scope"`
			Active          bool     `json:"is_active"`
		}
		rows := make([]ruleRow, 0, len(catalog))
		for _, r := range catalog {
			rows = append(rows, ruleRow{
				ID:              r.ID,
				Name:            r.Name,
				Industries:      rules.EncodeTags(r.Industries),
				States:          rules.EncodeTags(r.States),
				CompanyTypes:    rules.EncodeTags(r.CompanyTypes),
				FrequencyMonths: r.FrequencyMonths,
				PenaltyImpact:   string(r.PenaltyImpact),
				Scope:           string(r.Scope),
				Active:          r.Active,
			})
		}
		return printJSON(cmd.OutOrStdout(), rows)
	}

	for _, r := range catalog {
		active := ""
		if !r.Active {
			active = " [inactive]"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-40s %-12s %-8s every %d mo%s\n",
			r.ID, r.Name, r.PenaltyImpact, r.Scope, r.FrequencyMonths, active)
	}
	return nil
}

func runRulesDisable(opts *RulesOptions, idArg string, cmd *cobra.Command) error {
	ruleID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule id %q: %w", idArg, err)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DisableRule(cmd.Context(), ruleID, opts.ChangedBy, time.Now().UTC()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rule %d disabled\n", ruleID)
	return nil
}

func runRulesLog(opts *RulesOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.ListAuditLog(cmd.Context())
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-6s rule=%d by=%s at=%s\n",
			e.ID, e.Action, e.RuleID, e.ChangedBy, e.ChangedAt.Format(time.RFC3339))
	}
	return nil
}
