package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
)

func TestInsertCompany_Roundtrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestCompany("TechAI Solutions")
	c.Subscription = rules.SubscriptionEnterprise
	c.BranchStates = []string{"Goa", "Delhi"}

	id, err := s.InsertCompany(ctx, c)
	if err != nil {
		t.Fatalf("InsertCompany() failed: %v", err)
	}

	got, err := s.GetCompany(ctx, id)
	if err != nil {
		t.Fatalf("GetCompany() failed: %v", err)
	}
	if got.Name != c.Name || got.HQState != c.HQState {
		t.Errorf("got name:%q hq:%q, want %q/%q", got.Name, got.HQState, c.Name, c.HQState)
	}
	if !reflect.DeepEqual(got.BranchStates, c.BranchStates) {
		t.Errorf("BranchStates = %v, want %v", got.BranchStates, c.BranchStates)
	}
	if got.Subscription != rules.SubscriptionEnterprise {
		t.Errorf("Subscription = %q, want Enterprise", got.Subscription)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, c.CreatedAt)
	}
}

func TestInsertCompany_RejectsInvalid(t *testing.T) {
	s := createTestStore(t)

	c := createTestCompany("No HQ Corp")
	c.HQState = ""

	_, err := s.InsertCompany(context.Background(), c)
	if !rules.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestFindCompanyByName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestCompany("TechAI Solutions")
	id, err := s.InsertCompany(ctx, c)
	if err != nil {
		t.Fatalf("InsertCompany() failed: %v", err)
	}

	got, err := s.FindCompanyByName(ctx, "TechAI Solutions")
	if err != nil {
		t.Fatalf("FindCompanyByName() failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if got.HQState != c.HQState {
		t.Errorf("HQState = %q, want %q", got.HQState, c.HQState)
	}
}

func TestFindCompanyByName_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.FindCompanyByName(context.Background(), "Ghost Corp")
	if !IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestGetCompany_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetCompany(context.Background(), 5)
	if !IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestListCompanies_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	names := []string{"Alpha Traders", "Beta Mills", "Gamma Labs"}
	for _, name := range names {
		c := createTestCompany(name)
		c.CreatedAt = time.Now()
		if _, err := s.InsertCompany(ctx, c); err != nil {
			t.Fatalf("InsertCompany(%q) failed: %v", name, err)
		}
	}

	got, err := s.ListCompanies(ctx)
	if err != nil {
		t.Fatalf("ListCompanies() failed: %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("list has %d companies, want %d", len(got), len(names))
	}
	for i, name := range names {
		if got[i].Name != name {
			t.Errorf("company %d = %q, want %q", i, got[i].Name, name)
		}
	}
}
