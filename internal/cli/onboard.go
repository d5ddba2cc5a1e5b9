package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/schedule"
	"github.com/ezcompliance/comptrack/internal/store"
)

// NewOnboardCommand creates the onboard command.
func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboard <companies.yaml>",
		Short: "Onboard companies: match rules and build their compliance calendars",
		Long: `Onboard companies from a YAML profile file.

For each company, the active rule catalog is matched against the profile
(industries, effective states, company type, employee band) and the matched
rules are fanned out into PENDING calendar entries - one per branch state
for Branch-scope rules, one per company otherwise. Re-onboarding an
existing profile inserts no duplicate entries.

Example:
  comptrack onboard companies.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOnboard(opts *RootOptions, path string, cmd *cobra.Command) error {
	now := time.Now().UTC()

	companies, err := LoadCompanies(path, now)
	if err != nil {
		return err
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	type result struct {
		CompanyID int64  `json:"company_id"`
		Name      string `json:"company_name"`
		Matched   int    `json:"rules_matched"`
		Entries   int    `json:"entries_created"`
	}
	var results []result

	for _, c := range companies {
		companyID, matched, inserted, err := onboardCompany(ctx, st, c, now)
		if err != nil {
			return fmt.Errorf("onboard %s: %w", c.Name, err)
		}
		results = append(results, result{
			CompanyID: companyID,
			Name:      c.Name,
			Matched:   matched,
			Entries:   inserted,
		})
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), results)
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (company %d): %d rules matched, %d calendar entries created\n",
			r.Name, r.CompanyID, r.Matched, r.Entries)
	}
	return nil
}

// onboardCompany persists a company profile, matches the active catalog
// against it, and materializes its calendar. Returns the company ID, the
// matched rule count, and the number of entries actually inserted (zero
// for a re-run - the uniqueness constraint absorbs duplicates).
//
// Profiles are keyed by company name: a re-run resolves to the existing
// company row instead of minting a new ID, so calendar construction
// targets the same obligations.
func onboardCompany(ctx context.Context, st *store.Store, c rules.Company, now time.Time) (int64, int, int, error) {
	existing, err := st.FindCompanyByName(ctx, c.Name)
	switch {
	case err == nil:
		c.ID = existing.ID
	case store.IsNotFoundError(err):
		id, insertErr := st.InsertCompany(ctx, c)
		if insertErr != nil {
			return 0, 0, 0, insertErr
		}
		c.ID = id
	default:
		return 0, 0, 0, err
	}
	companyID := c.ID

	catalog, err := st.ListRules(ctx, true)
	if err != nil {
		return 0, 0, 0, err
	}

	matched := rules.Match(catalog, c)
	entries := schedule.Build(matched, c, now)

	inserted, err := st.InsertEntries(ctx, entries)
	if err != nil {
		return 0, 0, 0, err
	}

	slog.Debug("company onboarded",
		"company_id", companyID,
		"matched", len(matched),
		"entries", inserted)
	return companyID, len(matched), inserted, nil
}
