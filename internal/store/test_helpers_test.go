package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/schedule"
)

// createTestStore creates a new on-disk store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRule creates a minimal valid catalog rule.
func createTestRule(name string) rules.Rule {
	return rules.Rule{
		Name:            name,
		Description:     "test rule",
		Industries:      rules.TagSet{All: true},
		States:          rules.TagSet{All: true},
		CompanyTypes:    rules.TagSet{All: true},
		MinEmployees:    0,
		MaxEmployees:    100000,
		FrequencyMonths: 12,
		PenaltyAmount:   "Rs. 10,000",
		PenaltyImpact:   rules.ImpactMedium,
		Scope:           rules.ScopeCompany,
		Active:          true,
	}
}

// createTestCompany creates a minimal valid company profile.
func createTestCompany(name string) rules.Company {
	return rules.Company{
		Name:          name,
		Industries:    []string{"IT"},
		CompanyType:   "Pvt Ltd",
		HQState:       "Karnataka",
		BranchStates:  []string{"Goa"},
		EmployeeCount: 50,
		Subscription:  rules.SubscriptionBasic,
		CreatedAt:     time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
	}
}

// createTestEntry creates a PENDING calendar entry linking the given IDs.
func createTestEntry(companyID, ruleID int64, due time.Time) schedule.Entry {
	return schedule.Entry{
		CompanyID: companyID,
		RuleID:    ruleID,
		DueDate:   due,
		Status:    schedule.StatusPending,
	}
}

// createTestDocument creates a document version candidate for Promote.
func createTestDocument(companyID, ruleID, calendarID int64, version int) DocumentVersion {
	return DocumentVersion{
		CompanyID:     companyID,
		RuleID:        ruleID,
		CalendarID:    calendarID,
		VersionNumber: version,
		StorageKey:    "key-test",
		FileType:      "application/pdf",
		FileSize:      1024,
		OCRStatus:     "completed",
		OCRText:       "GST Registration Certificate",
		OCRVerified:   true,
		UploadedBy:    "tester",
		UploadedAt:    time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

// seedEntry inserts a rule, company and one calendar entry, returning the
// three IDs.
func seedEntry(t *testing.T, s *Store) (companyID, ruleID, calendarID int64) {
	t.Helper()
	ctx := context.Background()

	ruleID, err := s.InsertRule(ctx, createTestRule("GST Annual Return"), "seed", time.Now())
	if err != nil {
		t.Fatalf("InsertRule() failed: %v", err)
	}
	companyID, err = s.InsertCompany(ctx, createTestCompany("TechAI Solutions"))
	if err != nil {
		t.Fatalf("InsertCompany() failed: %v", err)
	}

	due := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	if _, err := s.InsertEntries(ctx, []schedule.Entry{createTestEntry(companyID, ruleID, due)}); err != nil {
		t.Fatalf("InsertEntries() failed: %v", err)
	}
	entries, err := s.ListEntries(ctx, companyID)
	if err != nil {
		t.Fatalf("ListEntries() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 seeded entry, got %d", len(entries))
	}
	return companyID, ruleID, entries[0].ID
}
