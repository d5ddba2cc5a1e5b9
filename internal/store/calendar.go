package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ezcompliance/comptrack/internal/schedule"
)

// InsertEntries persists freshly built calendar entries.
// Uses ON CONFLICT(company_id, rule_id, branch_state) DO NOTHING so that
// re-running calendar construction for an existing company is a no-op
// rather than a duplication - the uniqueness constraint is the idempotency
// backstop. Returns the number of rows actually inserted.
func (s *Store) InsertEntries(ctx context.Context, entries []schedule.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert entries: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	inserted := 0
	for _, e := range entries {
		if !schedule.ValidStored(e.Status) {
			return 0, NewInvariantError(fmt.Sprintf("attempted to store derived status %q", e.Status))
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO compliance_calendar
			(company_id, rule_id, branch_state, due_date, status, next_due_date,
			 ocr_verified, verified_at, note)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(company_id, rule_id, branch_state) DO NOTHING
		`,
			e.CompanyID,
			e.RuleID,
			e.BranchState,
			marshalDate(e.DueDate),
			string(e.Status),
			marshalDate(e.NextDueDate),
			e.OCRVerified,
			marshalTime(e.VerifiedAt),
			e.Note,
		)
		if err != nil {
			return 0, fmt.Errorf("insert entries: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert entries: rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert entries: commit: %w", err)
	}
	return inserted, nil
}

// GetEntry returns a single calendar entry by ID.
func (s *Store) GetEntry(ctx context.Context, calendarID int64) (schedule.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT calendar_id, company_id, rule_id, branch_state, due_date, status,
		       next_due_date, ocr_verified, verified_at, note
		FROM compliance_calendar
		WHERE calendar_id = ?
	`, calendarID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return schedule.Entry{}, NewNotFoundError("calendar entry", calendarID)
	}
	if err != nil {
		return schedule.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns all calendar entries for a company ordered by
// calendar ID for stable display.
func (s *Store) ListEntries(ctx context.Context, companyID int64) ([]schedule.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT calendar_id, company_id, rule_id, branch_state, due_date, status,
		       next_due_date, ocr_verified, verified_at, note
		FROM compliance_calendar
		WHERE company_id = ?
		ORDER BY calendar_id ASC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []schedule.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// UpdateEntry rewrites the mutable lifecycle fields of a calendar entry
// after verification or manual completion. Identity fields (company, rule,
// branch state) never change; entries are never deleted.
func (s *Store) UpdateEntry(ctx context.Context, e schedule.Entry) error {
	if !schedule.ValidStored(e.Status) {
		return NewInvariantError(fmt.Sprintf("attempted to store derived status %q", e.Status))
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE compliance_calendar SET
			due_date = ?, status = ?, next_due_date = ?,
			ocr_verified = ?, verified_at = ?, note = ?
		WHERE calendar_id = ?
	`,
		marshalDate(e.DueDate),
		string(e.Status),
		marshalDate(e.NextDueDate),
		e.OCRVerified,
		marshalTime(e.VerifiedAt),
		e.Note,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry: rows affected: %w", err)
	}
	if n == 0 {
		return NewNotFoundError("calendar entry", e.ID)
	}
	return nil
}

// scanEntry decodes one compliance_calendar row.
func scanEntry(sc scanner) (schedule.Entry, error) {
	var (
		e          schedule.Entry
		due        string
		status     string
		nextDue    string
		verifiedAt string
	)
	err := sc.Scan(
		&e.ID,
		&e.CompanyID,
		&e.RuleID,
		&e.BranchState,
		&due,
		&status,
		&nextDue,
		&e.OCRVerified,
		&verifiedAt,
		&e.Note,
	)
	if err != nil {
		return schedule.Entry{}, err
	}

	if e.DueDate, err = unmarshalDate(due); err != nil {
		return schedule.Entry{}, err
	}
	if e.NextDueDate, err = unmarshalDate(nextDue); err != nil {
		return schedule.Entry{}, err
	}
	if e.VerifiedAt, err = unmarshalTime(verifiedAt); err != nil {
		return schedule.Entry{}, err
	}
	e.Status = schedule.Status(status)
	return e, nil
}
