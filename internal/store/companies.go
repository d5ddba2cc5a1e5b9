package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ezcompliance/comptrack/internal/rules"
)

// InsertCompany validates and inserts a company profile, returning the
// assigned company ID.
func (s *Store) InsertCompany(ctx context.Context, c rules.Company) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	industries, err := marshalTags(c.Industries)
	if err != nil {
		return 0, fmt.Errorf("insert company: %w", err)
	}
	branches, err := marshalTags(c.BranchStates)
	if err != nil {
		return 0, fmt.Errorf("insert company: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO companies
		(company_name, industry_type, company_type, hq_state, branch_states,
		 employee_count, subscription, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.Name,
		industries,
		c.CompanyType,
		c.HQState,
		branches,
		c.EmployeeCount,
		string(c.Subscription),
		marshalTime(c.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert company: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert company: last insert id: %w", err)
	}
	return id, nil
}

// FindCompanyByName returns the company with the given name. Profile names
// are the natural key for onboarding, so a re-run of the same YAML file
// resolves to the existing row instead of minting a new company ID.
func (s *Store) FindCompanyByName(ctx context.Context, name string) (rules.Company, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT company_id FROM companies
		WHERE company_name = ?
		ORDER BY company_id ASC
		LIMIT 1
	`, name)

	var id int64
	err := row.Scan(&id)
	if err == sql.ErrNoRows {
		return rules.Company{}, &StoreError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("company %q not found", name),
		}
	}
	if err != nil {
		return rules.Company{}, fmt.Errorf("find company: %w", err)
	}
	return s.GetCompany(ctx, id)
}

// GetCompany returns a company profile by ID.
func (s *Store) GetCompany(ctx context.Context, companyID int64) (rules.Company, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT company_id, company_name, industry_type, company_type, hq_state,
		       branch_states, employee_count, subscription, created_at
		FROM companies
		WHERE company_id = ?
	`, companyID)

	var (
		c            rules.Company
		industries   string
		branches     string
		subscription string
		createdAt    string
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&industries,
		&c.CompanyType,
		&c.HQState,
		&branches,
		&c.EmployeeCount,
		&subscription,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return rules.Company{}, NewNotFoundError("company", companyID)
	}
	if err != nil {
		return rules.Company{}, fmt.Errorf("get company: %w", err)
	}

	if c.Industries, err = unmarshalTags(industries); err != nil {
		return rules.Company{}, fmt.Errorf("get company: %w", err)
	}
	if c.BranchStates, err = unmarshalTags(branches); err != nil {
		return rules.Company{}, fmt.Errorf("get company: %w", err)
	}
	if c.CreatedAt, err = unmarshalTime(createdAt); err != nil {
		return rules.Company{}, fmt.Errorf("get company: %w", err)
	}
	c.Subscription = rules.Subscription(subscription)
	return c, nil
}

// ListCompanies returns all company profiles ordered by ID.
func (s *Store) ListCompanies(ctx context.Context) ([]rules.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id FROM companies ORDER BY company_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list companies: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}

	var out []rules.Company
	for _, id := range ids {
		c, err := s.GetCompany(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
