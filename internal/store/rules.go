package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
)

// InsertRule validates and inserts a catalog rule, records an ADD audit log
// entry, and returns the assigned rule ID.
func (s *Store) InsertRule(ctx context.Context, r rules.Rule, changedBy string, now time.Time) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	industries, err := marshalTags(rules.EncodeTags(r.Industries))
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	states, err := marshalTags(rules.EncodeTags(r.States))
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	companyTypes, err := marshalTags(rules.EncodeTags(r.CompanyTypes))
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	keywords, err := marshalTags(r.Keywords)
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO compliance_rules
		(rule_name, description, industry_type, applicable_states, company_type,
		 min_employees, max_employees, frequency_months, fixed_due_day, fixed_due_month,
		 document_required, penalty_amount, penalty_impact, scope, keywords, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.Name,
		r.Description,
		industries,
		states,
		companyTypes,
		r.MinEmployees,
		r.MaxEmployees,
		r.FrequencyMonths,
		r.FixedDueDay,
		int(r.FixedDueMonth),
		r.DocumentRequired,
		r.PenaltyAmount,
		string(r.PenaltyImpact),
		string(r.Scope),
		keywords,
		r.Active,
	)
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert rule: last insert id: %w", err)
	}

	r.ID = id
	if err := s.writeAuditLog(ctx, auditActionAdd, id, changedBy, now, rules.Rule{}, r); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateRule validates and rewrites a catalog rule in place, recording an
// UPDATE audit log entry with the old and new values.
func (s *Store) UpdateRule(ctx context.Context, r rules.Rule, changedBy string, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}

	old, err := s.GetRule(ctx, r.ID)
	if err != nil {
		return err
	}

	industries, err := marshalTags(rules.EncodeTags(r.Industries))
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	states, err := marshalTags(rules.EncodeTags(r.States))
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	companyTypes, err := marshalTags(rules.EncodeTags(r.CompanyTypes))
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	keywords, err := marshalTags(r.Keywords)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE compliance_rules SET
			rule_name = ?, description = ?, industry_type = ?, applicable_states = ?,
			company_type = ?, min_employees = ?, max_employees = ?, frequency_months = ?,
			fixed_due_day = ?, fixed_due_month = ?, document_required = ?,
			penalty_amount = ?, penalty_impact = ?, scope = ?, keywords = ?, is_active = ?
		WHERE rule_id = ?
	`,
		r.Name,
		r.Description,
		industries,
		states,
		companyTypes,
		r.MinEmployees,
		r.MaxEmployees,
		r.FrequencyMonths,
		r.FixedDueDay,
		int(r.FixedDueMonth),
		r.DocumentRequired,
		r.PenaltyAmount,
		string(r.PenaltyImpact),
		string(r.Scope),
		keywords,
		r.Active,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}

	return s.writeAuditLog(ctx, auditActionUpdate, r.ID, changedBy, now, old, r)
}

// DisableRule soft-deletes a rule (is_active=0) and records a DELETE audit
// log entry. The row is never removed; existing calendar entries keep
// their reference.
func (s *Store) DisableRule(ctx context.Context, ruleID int64, changedBy string, now time.Time) error {
	old, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE compliance_rules SET is_active = 0 WHERE rule_id = ?`, ruleID,
	); err != nil {
		return fmt.Errorf("disable rule: %w", err)
	}

	updated := old
	updated.Active = false
	return s.writeAuditLog(ctx, auditActionDelete, ruleID, changedBy, now, old, updated)
}

// GetRule returns a single rule by ID, active or not.
func (s *Store) GetRule(ctx context.Context, ruleID int64) (rules.Rule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT rule_id, rule_name, description, industry_type, applicable_states,
		       company_type, min_employees, max_employees, frequency_months,
		       fixed_due_day, fixed_due_month, document_required, penalty_amount,
		       penalty_impact, scope, keywords, is_active
		FROM compliance_rules
		WHERE rule_id = ?
	`, ruleID)

	r, err := scanRule(row)
	if err == sql.ErrNoRows {
		return rules.Rule{}, NewNotFoundError("rule", ruleID)
	}
	if err != nil {
		return rules.Rule{}, fmt.Errorf("get rule: %w", err)
	}
	return r, nil
}

// FindRuleByName returns the newest active rule with the given name.
// Catalog imports use the name as the natural key to skip rules that are
// already present.
func (s *Store) FindRuleByName(ctx context.Context, name string) (rules.Rule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT rule_id, rule_name, description, industry_type, applicable_states,
		       company_type, min_employees, max_employees, frequency_months,
		       fixed_due_day, fixed_due_month, document_required, penalty_amount,
		       penalty_impact, scope, keywords, is_active
		FROM compliance_rules
		WHERE rule_name = ? AND is_active = 1
		ORDER BY rule_id DESC
		LIMIT 1
	`, name)

	r, err := scanRule(row)
	if err == sql.ErrNoRows {
		return rules.Rule{}, &StoreError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("rule %q not found", name),
		}
	}
	if err != nil {
		return rules.Rule{}, fmt.Errorf("find rule: %w", err)
	}
	return r, nil
}

// ListRules returns catalog rules ordered by ID. With activeOnly, soft-
// deleted rules are excluded - this is the set MatchEngine runs against.
func (s *Store) ListRules(ctx context.Context, activeOnly bool) ([]rules.Rule, error) {
	query := `
		SELECT rule_id, rule_name, description, industry_type, applicable_states,
		       company_type, min_employees, max_employees, frequency_months,
		       fixed_due_day, fixed_due_month, document_required, penalty_amount,
		       penalty_impact, scope, keywords, is_active
		FROM compliance_rules
	`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY rule_id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("list rules: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanRule decodes one compliance_rules row.
func scanRule(sc scanner) (rules.Rule, error) {
	var (
		r             rules.Rule
		industries    string
		states        string
		companyTypes  string
		fixedDueMonth int
		impact        string
		scope         string
		keywords      string
	)
	err := sc.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&industries,
		&states,
		&companyTypes,
		&r.MinEmployees,
		&r.MaxEmployees,
		&r.FrequencyMonths,
		&r.FixedDueDay,
		&fixedDueMonth,
		&r.DocumentRequired,
		&r.PenaltyAmount,
		&impact,
		&scope,
		&keywords,
		&r.Active,
	)
	if err != nil {
		return rules.Rule{}, err
	}

	industryTags, err := unmarshalTags(industries)
	if err != nil {
		return rules.Rule{}, err
	}
	stateTags, err := unmarshalTags(states)
	if err != nil {
		return rules.Rule{}, err
	}
	typeTags, err := unmarshalTags(companyTypes)
	if err != nil {
		return rules.Rule{}, err
	}

	keywordList, err := unmarshalTags(keywords)
	if err != nil {
		return rules.Rule{}, err
	}

	r.Industries = rules.DecodeTags(industryTags)
	r.States = rules.DecodeTags(stateTags)
	r.CompanyTypes = rules.DecodeTags(typeTags)
	r.Keywords = keywordList
	r.FixedDueMonth = time.Month(fixedDueMonth)
	r.PenaltyImpact = rules.PenaltyImpact(impact)
	r.Scope = rules.RuleScope(scope)
	return r, nil
}
