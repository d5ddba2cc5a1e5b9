package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/schedule"
	"github.com/ezcompliance/comptrack/internal/score"
	"github.com/ezcompliance/comptrack/internal/store"
)

// DashboardRow is one calendar entry joined with its rule, with the
// derived OVERDUE projection applied.
type DashboardRow struct {
	CalendarID      int64  `json:"calendar_id"`
	RuleID          int64  `json:"rule_id"`
	RuleName        string `json:"rule_name"`
	BranchState     string `json:"branch_state,omitempty"`
	DueDate         string `json:"due_date"`
	Status          string `json:"status"`
	NextDueDate     string `json:"next_due_date,omitempty"`
	OCRVerified     bool   `json:"ocr_verified"`
	Note            string `json:"note,omitempty"`
	FrequencyMonths int    `json:"frequency_months"`
	PenaltyImpact   string `json:"penalty_impact"`
	Scope           string `json:"scope"`
}

// DashboardPayload is the reporting output: the scoring summary plus all
// calendar rows.
type DashboardPayload struct {
	CompanyID int64          `json:"company_id"`
	Summary   score.Summary  `json:"summary"`
	Rows      []DashboardRow `json:"rules"`
}

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard <company-id>",
		Short: "Show a company's compliance calendar with scores",
		Long: `Show a company's compliance calendar and its weighted scores.

Statuses are projected at read time: an entry past its due date presents
as OVERDUE regardless of its stored status (FAILED excepted). The summary
carries the weighted compliance score, risk score, and letter grade.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDashboard(opts *RootOptions, idArg string, cmd *cobra.Command) error {
	companyID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid company id %q: %w", idArg, err)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	payload, err := BuildDashboard(cmd.Context(), st, companyID, score.NewEngine(nil, nil), time.Now().UTC())
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), payload)
	}

	s := payload.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "company %d: compliance %.1f (grade %s), risk %.1f\n",
		payload.CompanyID, s.Compliance, s.Grade, s.Risk)
	fmt.Fprintf(cmd.OutOrStdout(), "entries: %d total, %d completed, %d pending, %d overdue, %d failed\n",
		s.Totals.Total, s.Totals.Completed, s.Totals.Pending, s.Totals.Overdue, s.Totals.Failed)
	for _, row := range payload.Rows {
		state := row.BranchState
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-40s %-12s due %-10s  %s\n",
			row.CalendarID, row.RuleName, state, dateOrDash(row.DueDate), row.Status)
	}
	return nil
}

// BuildDashboard assembles the reporting payload for a company: calendar
// rows joined with their rules, read-time OVERDUE projection applied, and
// the scoring summary computed in the same pass over the entries.
func BuildDashboard(ctx context.Context, st *store.Store, companyID int64, eng *score.Engine, now time.Time) (DashboardPayload, error) {
	// Existence check first so an unknown company errors rather than
	// rendering an empty dashboard.
	if _, err := st.GetCompany(ctx, companyID); err != nil {
		return DashboardPayload{}, err
	}

	entries, err := st.ListEntries(ctx, companyID)
	if err != nil {
		return DashboardPayload{}, err
	}

	catalog, err := st.ListRules(ctx, false)
	if err != nil {
		return DashboardPayload{}, err
	}
	ruleByID := make(map[int64]rules.Rule, len(catalog))
	for _, r := range catalog {
		ruleByID[r.ID] = r
	}

	rows := make([]DashboardRow, 0, len(entries))
	for _, e := range entries {
		r := ruleByID[e.RuleID]
		rows = append(rows, DashboardRow{
			CalendarID:      e.ID,
			RuleID:          e.RuleID,
			RuleName:        r.Name,
			BranchState:     e.BranchState,
			DueDate:         marshalDateForDisplay(e.DueDate),
			Status:          string(schedule.EffectiveStatus(e, now)),
			NextDueDate:     marshalDateForDisplay(e.NextDueDate),
			OCRVerified:     e.OCRVerified,
			Note:            e.Note,
			FrequencyMonths: r.FrequencyMonths,
			PenaltyImpact:   string(r.PenaltyImpact),
			Scope:           string(r.Scope),
		})
	}

	return DashboardPayload{
		CompanyID: companyID,
		Summary:   eng.Compute(entries, ruleByID, now),
		Rows:      rows,
	}, nil
}
