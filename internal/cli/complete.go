package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezcompliance/comptrack/internal/store"
	"github.com/ezcompliance/comptrack/internal/verify"
)

// CompleteOptions holds flags for the complete command.
type CompleteOptions struct {
	*RootOptions
	IssueDate string
	Expiry    string
	Permanent bool
}

// NewCompleteCommand creates the complete command - the manual "mark done"
// path for obligations that require no document.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "complete <calendar-id>",
		Short: "Manually complete a calendar entry (no document)",
		Long: `Manually complete a calendar entry without a document upload.

The grade follows the same rules as document verification: an issue date
on or before the due date is COMPLETED, after it OVERDUE-PASS. The next
due date defaults to the rule's frequency from the issue date; --expiry
overrides it, and --permanent suppresses the next cycle entirely.

Example:
  comptrack complete 12 --issue-date 2026-02-10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.IssueDate, "issue-date", "", "date the obligation was fulfilled (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&opts.Expiry, "expiry", "", "custom next due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.Permanent, "permanent", false, "one-time obligation, no future cycle")
	cmd.MarkFlagRequired("issue-date")

	return cmd
}

func runComplete(opts *CompleteOptions, idArg string, cmd *cobra.Command) error {
	calendarID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid calendar id %q: %w", idArg, err)
	}

	issue, err := time.Parse("2006-01-02", opts.IssueDate)
	if err != nil {
		return fmt.Errorf("invalid --issue-date %q: %w", opts.IssueDate, err)
	}

	manual := verify.ManualCompletion{IssueDate: issue, Permanent: opts.Permanent}
	if opts.Expiry != "" {
		expiry, err := time.Parse("2006-01-02", opts.Expiry)
		if err != nil {
			return fmt.Errorf("invalid --expiry %q: %w", opts.Expiry, err)
		}
		manual.CustomExpiry = &expiry
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	entry, err := st.GetEntry(ctx, calendarID)
	if err != nil {
		return err
	}
	rule, err := st.GetRule(ctx, entry.RuleID)
	if err != nil {
		return err
	}

	updated := verify.CompleteManual(entry, rule, manual, time.Now().UTC())
	if err := st.UpdateEntry(ctx, updated); err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"calendar_id":   updated.ID,
			"status":        string(updated.Status),
			"due_date":      marshalDateForDisplay(updated.DueDate),
			"next_due_date": marshalDateForDisplay(updated.NextDueDate),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "entry %d marked %s\n", updated.ID, updated.Status)
	if updated.HasNextDue() {
		fmt.Fprintf(cmd.OutOrStdout(), "next due: %s\n", updated.NextDueDate.Format("2006-01-02"))
	}
	return nil
}
