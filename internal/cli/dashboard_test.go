package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/score"
	"github.com/ezcompliance/comptrack/internal/store"
	"github.com/ezcompliance/comptrack/internal/verify"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// seedDashboardFixture builds a deterministic two-rule, one-company state:
// a fixed-deadline Company-scope rule completed via a verified upload, and
// a Branch-scope rule left pending across both effective states.
func seedDashboardFixture(t *testing.T, st *store.Store) int64 {
	t.Helper()
	ctx := context.Background()
	signup := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)

	gst := rules.Rule{
		Name:             "GST Annual Return",
		Description:      "Annual GST filing",
		Industries:       rules.TagSet{All: true},
		States:           rules.TagSet{All: true},
		CompanyTypes:     rules.TagSet{All: true},
		MaxEmployees:     100000,
		FrequencyMonths:  12,
		FixedDueDay:      31,
		FixedDueMonth:    time.December,
		DocumentRequired: true,
		PenaltyImpact:    rules.ImpactHigh,
		Scope:            rules.ScopeCompany,
		Active:           true,
	}
	profTax := rules.Rule{
		Name:            "Professional Tax Registration",
		Industries:      rules.TagSet{All: true},
		States:          rules.TagSet{All: true},
		CompanyTypes:    rules.TagSet{All: true},
		MaxEmployees:    100000,
		FrequencyMonths: 12,
		PenaltyImpact:   rules.ImpactMedium,
		Scope:           rules.ScopeBranch,
		Active:          true,
	}
	_, err := st.InsertRule(ctx, gst, "seed", signup)
	require.NoError(t, err)
	_, err = st.InsertRule(ctx, profTax, "seed", signup)
	require.NoError(t, err)

	company := rules.Company{
		Name:          "TechAI Solutions",
		Industries:    []string{"AI"},
		CompanyType:   "Pvt Ltd",
		HQState:       "Karnataka",
		BranchStates:  []string{"Goa"},
		EmployeeCount: 35,
		Subscription:  rules.SubscriptionEnterprise,
		CreatedAt:     signup,
	}
	companyID, matched, inserted, err := onboardCompany(ctx, st, company, signup)
	require.NoError(t, err)
	require.Equal(t, 2, matched)
	require.Equal(t, 3, inserted, "Company scope + Branch fan-out over HQ and Goa")

	// Complete the GST entry with a verified upload issued before the
	// fixed deadline; its due date advances to next year's occurrence.
	entry, err := st.GetEntry(ctx, 1)
	require.NoError(t, err)
	rule, err := st.GetRule(ctx, entry.RuleID)
	require.NoError(t, err)

	extracted := time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC)
	updated := verify.Verify(entry, rule, company, verify.NewKeywordPolicy("GST Registration", "GSTIN"), verify.Submission{
		OCRText:       "Certificate of GST Registration. GSTIN: 29ABCDE1234F1Z5",
		ExtractedDate: &extracted,
		UploadedAt:    time.Date(2027, time.January, 5, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, st.UpdateEntry(ctx, updated))

	return companyID
}

func TestBuildDashboard_Golden(t *testing.T) {
	st := openTestStore(t)
	companyID := seedDashboardFixture(t, st)

	// Read at a time where the pending branch entries have elapsed.
	now := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	payload, err := BuildDashboard(context.Background(), st, companyID, score.NewEngine(nil, nil), now)
	require.NoError(t, err)

	data, err := json.MarshalIndent(payload, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dashboard_enterprise", data)
}

func TestBuildDashboard_Summary(t *testing.T) {
	st := openTestStore(t)
	companyID := seedDashboardFixture(t, st)

	now := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	payload, err := BuildDashboard(context.Background(), st, companyID, score.NewEngine(nil, nil), now)
	require.NoError(t, err)

	// 30 of 70 weight earned; the two elapsed Medium entries carry the
	// remaining 40 as risk.
	s := payload.Summary
	assert.Equal(t, 42.9, s.Compliance)
	assert.Equal(t, 57.1, s.Risk)
	assert.Equal(t, "D", s.Grade)
	assert.Equal(t, score.Totals{Total: 3, Completed: 1, Overdue: 2}, s.Totals)
}

func TestBuildDashboard_StatusesProjectedAtReadTime(t *testing.T) {
	st := openTestStore(t)
	companyID := seedDashboardFixture(t, st)

	// Before the branch due date, nothing is overdue.
	early := time.Date(2027, time.February, 1, 0, 0, 0, 0, time.UTC)
	payload, err := BuildDashboard(context.Background(), st, companyID, score.NewEngine(nil, nil), early)
	require.NoError(t, err)

	assert.Equal(t, score.Totals{Total: 3, Completed: 1, Pending: 2}, payload.Summary.Totals)
	for _, row := range payload.Rows {
		assert.NotEqual(t, "OVERDUE", row.Status)
	}
}

func TestBuildDashboard_UnknownCompany(t *testing.T) {
	st := openTestStore(t)
	seedDashboardFixture(t, st)

	_, err := BuildDashboard(context.Background(), st, 99, score.NewEngine(nil, nil), time.Now())
	assert.True(t, store.IsNotFoundError(err))
}
