package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ezcompliance/comptrack/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Remove int64
	Reason string
}

// NewHistoryCommand creates the history command: document versions per
// (company, rule), plus the elevated soft-delete path.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <company-id> <rule-id>",
		Short: "List document versions for a (company, rule) pair",
		Long: `List the non-deleted document versions for a (company, rule) pair,
newest version first. Exactly one version is current at any time.

With --remove, soft-deletes the given document version instead (the row is
kept, marked deleted with the reason). Removal never reassigns the current
version; promote a replacement explicitly by re-uploading.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Remove, "remove", 0, "doc id to soft-delete instead of listing")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "reason for --remove")

	return cmd
}

func runHistory(opts *HistoryOptions, companyArg, ruleArg string, cmd *cobra.Command) error {
	companyID, err := strconv.ParseInt(companyArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid company id %q: %w", companyArg, err)
	}
	ruleID, err := strconv.ParseInt(ruleArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule id %q: %w", ruleArg, err)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Remove != 0 {
		if opts.Reason == "" {
			return fmt.Errorf("--remove requires --reason")
		}
		if err := st.Remove(cmd.Context(), opts.Remove, opts.Reason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "document %d soft-deleted\n", opts.Remove)
		return nil
	}

	history, err := st.History(cmd.Context(), companyID, ruleID)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), history)
	}
	for _, doc := range history {
		current := ""
		if doc.IsCurrent {
			current = " [current]"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "v%-3d doc=%d key=%s uploaded=%s by=%s%s\n",
			doc.VersionNumber, doc.ID, doc.StorageKey,
			doc.UploadedAt.Format("2006-01-02"), doc.UploadedBy, current)
	}
	return nil
}
