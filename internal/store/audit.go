package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
)

// Audit log actions for rule catalog mutations.
const (
	auditActionAdd    = "ADD"
	auditActionUpdate = "UPDATE"
	auditActionDelete = "DELETE"
)

// AuditEntry is one immutable record of a rule catalog mutation. OldValue
// and NewValue hold JSON snapshots of the rule before and after the change
// (OldValue empty for ADD).
type AuditEntry struct {
	ID        int64
	Action    string
	RuleID    int64
	ChangedBy string
	ChangedAt time.Time
	OldValue  string
	NewValue  string
}

// writeAuditLog appends a catalog mutation record. The zero rule marshals
// to '' so ADD entries carry no old value.
func (s *Store) writeAuditLog(ctx context.Context, action string, ruleID int64, changedBy string, at time.Time, old, updated rules.Rule) error {
	oldJSON, err := auditValue(old)
	if err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	newJSON, err := auditValue(updated)
	if err != nil {
		return fmt.Errorf("audit log: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (action, rule_id, changed_by, changed_at, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		action,
		ruleID,
		changedBy,
		marshalTime(at),
		oldJSON,
		newJSON,
	)
	if err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	return nil
}

// auditValue serializes a rule snapshot for the audit log.
func auditValue(r rules.Rule) (string, error) {
	if r.ID == 0 && r.Name == "" {
		return "", nil
	}
	b, err := json.Marshal(struct {
		ID              int64    `json:"rule_id"`
		Name            string   `json:"rule_name"`
		Industries      []string `json:"industry_type"`
		States          []string `json:"applicable_states"`
		CompanyTypes    []string `json:"company_type"`
		MinEmployees    int      `json:"min_employees"`
		MaxEmployees    int      `json:"max_employees"`
		FrequencyMonths int      `json:"frequency_months"`
		PenaltyImpact   string   `json:"penalty_impact"`
		Scope           string   `json:"scope"`
		Active          bool     `json:"is_active"`
	}{
		ID:              r.ID,
		Name:            r.Name,
		Industries:      rules.EncodeTags(r.Industries),
		States:          rules.EncodeTags(r.States),
		CompanyTypes:    rules.EncodeTags(r.CompanyTypes),
		MinEmployees:    r.MinEmployees,
		MaxEmployees:    r.MaxEmployees,
		FrequencyMonths: r.FrequencyMonths,
		PenaltyImpact:   string(r.PenaltyImpact),
		Scope:           string(r.Scope),
		Active:          r.Active,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ListAuditLog returns catalog mutation records, newest first.
func (s *Store) ListAuditLog(ctx context.Context) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT log_id, action, rule_id, changed_by, changed_at, old_value, new_value
		FROM audit_log
		ORDER BY log_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			e         AuditEntry
			changedAt string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.RuleID, &e.ChangedBy, &changedAt, &e.OldValue, &e.NewValue); err != nil {
			return nil, fmt.Errorf("list audit log: %w", err)
		}
		if e.ChangedAt, err = unmarshalTime(changedAt); err != nil {
			return nil, fmt.Errorf("list audit log: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return out, nil
}
