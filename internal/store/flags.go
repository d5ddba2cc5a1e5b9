package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ezcompliance/comptrack/internal/rules"
)

// Flag is one auditor flag raised against a document version.
// Invariant: Resolved=false implies ResolvedBy and ResolvedAt are unset.
// The ledger has no coupling to the calendar state machine beyond the
// document reference.
type Flag struct {
	ID         int64
	CompanyID  int64
	DocID      int64
	FlaggedBy  string
	Reason     string
	FlaggedAt  time.Time
	Resolved   bool
	ResolvedBy string
	ResolvedAt time.Time
}

// RaiseFlag records an auditor flag against a document version and returns
// the stored flag. The referenced document must exist and belong to the
// given company.
func (s *Store) RaiseFlag(ctx context.Context, companyID, docID int64, by, reason string, now time.Time) (Flag, error) {
	if reason == "" {
		return Flag{}, rules.NewValidationError("flag reason must not be empty")
	}

	doc, err := s.GetDocument(ctx, docID)
	if err != nil {
		return Flag{}, err
	}
	if doc.CompanyID != companyID {
		return Flag{}, rules.NewValidationError(
			fmt.Sprintf("document %d does not belong to company %d", docID, companyID))
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_flags (company_id, doc_id, flagged_by, reason, flagged_at, resolved)
		VALUES (?, ?, ?, ?, ?, 0)
	`,
		companyID,
		docID,
		by,
		reason,
		marshalTime(now),
	)
	if err != nil {
		return Flag{}, fmt.Errorf("raise flag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Flag{}, fmt.Errorf("raise flag: last insert id: %w", err)
	}
	return s.GetFlag(ctx, id)
}

// ResolveFlag marks a flag resolved, stamping the resolver identity and
// time. Resolving an already-resolved flag is a validation error, not a
// silent no-op.
func (s *Store) ResolveFlag(ctx context.Context, flagID int64, by string, now time.Time) (Flag, error) {
	flag, err := s.GetFlag(ctx, flagID)
	if err != nil {
		return Flag{}, err
	}
	if flag.Resolved {
		return Flag{}, rules.NewValidationError(fmt.Sprintf("flag %d is already resolved", flagID))
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE audit_flags SET resolved = 1, resolved_by = ?, resolved_at = ?
		WHERE flag_id = ?
	`,
		by,
		marshalTime(now),
		flagID,
	)
	if err != nil {
		return Flag{}, fmt.Errorf("resolve flag: %w", err)
	}
	return s.GetFlag(ctx, flagID)
}

// GetFlag returns a flag by ID.
func (s *Store) GetFlag(ctx context.Context, flagID int64) (Flag, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT flag_id, company_id, doc_id, flagged_by, reason, flagged_at,
		       resolved, resolved_by, resolved_at
		FROM audit_flags
		WHERE flag_id = ?
	`, flagID)

	f, err := scanFlag(row)
	if err == sql.ErrNoRows {
		return Flag{}, NewNotFoundError("flag", flagID)
	}
	if err != nil {
		return Flag{}, fmt.Errorf("get flag: %w", err)
	}
	return f, nil
}

// ListFlags returns all flags raised on a company's documents, newest
// first.
func (s *Store) ListFlags(ctx context.Context, companyID int64) ([]Flag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flag_id, company_id, doc_id, flagged_by, reason, flagged_at,
		       resolved, resolved_by, resolved_at
		FROM audit_flags
		WHERE company_id = ?
		ORDER BY flag_id DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var out []Flag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("list flags: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flags: %w", err)
	}
	return out, nil
}

// scanFlag decodes one audit_flags row.
func scanFlag(sc scanner) (Flag, error) {
	var (
		f          Flag
		flaggedAt  string
		resolvedAt string
	)
	err := sc.Scan(
		&f.ID,
		&f.CompanyID,
		&f.DocID,
		&f.FlaggedBy,
		&f.Reason,
		&flaggedAt,
		&f.Resolved,
		&f.ResolvedBy,
		&resolvedAt,
	)
	if err != nil {
		return Flag{}, err
	}

	if f.FlaggedAt, err = unmarshalTime(flaggedAt); err != nil {
		return Flag{}, err
	}
	if f.ResolvedAt, err = unmarshalTime(resolvedAt); err != nil {
		return Flag{}, err
	}
	return f, nil
}
