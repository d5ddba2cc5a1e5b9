package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezcompliance/comptrack/internal/store"
)

// FlagOptions holds flags for the flag subcommands.
type FlagOptions struct {
	*RootOptions
	CompanyID int64
	By        string
	Reason    string
}

// NewFlagCommand creates the flag command group: the auditor's ledger for
// marking document versions suspicious and resolving those marks. The
// ledger is independent of the calendar state machine.
func NewFlagCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FlagOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Raise, resolve, and list auditor flags on documents",
	}

	raiseCmd := &cobra.Command{
		Use:           "raise <doc-id>",
		Short:         "Flag a document version as suspicious",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlagRaise(opts, args[0], cmd)
		},
	}
	raiseCmd.Flags().Int64Var(&opts.CompanyID, "company", 0, "company the document belongs to (required)")
	raiseCmd.Flags().StringVar(&opts.By, "by", "", "auditor identity (required)")
	raiseCmd.Flags().StringVar(&opts.Reason, "reason", "", "why the document is suspicious (required)")
	raiseCmd.MarkFlagRequired("company")
	raiseCmd.MarkFlagRequired("by")
	raiseCmd.MarkFlagRequired("reason")

	resolveCmd := &cobra.Command{
		Use:           "resolve <flag-id>",
		Short:         "Resolve a raised flag",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlagResolve(opts, args[0], cmd)
		},
	}
	resolveCmd.Flags().StringVar(&opts.By, "by", "", "resolver identity (required)")
	resolveCmd.MarkFlagRequired("by")

	listCmd := &cobra.Command{
		Use:           "list <company-id>",
		Short:         "List a company's flags, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlagList(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(raiseCmd)
	cmd.AddCommand(resolveCmd)
	cmd.AddCommand(listCmd)

	return cmd
}

func runFlagRaise(opts *FlagOptions, idArg string, cmd *cobra.Command) error {
	docID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid doc id %q: %w", idArg, err)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	flag, err := st.RaiseFlag(cmd.Context(), opts.CompanyID, docID, opts.By, opts.Reason, time.Now().UTC())
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), flag)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "flag %d raised on document %d\n", flag.ID, flag.DocID)
	return nil
}

func runFlagResolve(opts *FlagOptions, idArg string, cmd *cobra.Command) error {
	flagID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid flag id %q: %w", idArg, err)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	flag, err := st.ResolveFlag(cmd.Context(), flagID, opts.By, time.Now().UTC())
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), flag)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "flag %d resolved by %s\n", flag.ID, flag.ResolvedBy)
	return nil
}

func runFlagList(opts *FlagOptions, idArg string, cmd *cobra.Command) error {
	companyID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid company id %q: %w", idArg, err)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	flags, err := st.ListFlags(cmd.Context(), companyID)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), flags)
	}
	for _, f := range flags {
		state := "open"
		if f.Resolved {
			state = fmt.Sprintf("resolved by %s", f.ResolvedBy)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%4d  doc=%d by=%s %s: %s\n",
			f.ID, f.DocID, f.FlaggedBy, state, f.Reason)
	}
	return nil
}
