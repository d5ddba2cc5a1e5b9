package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DocumentVersion is one uploaded evidence document for a (company, rule)
// pair. Version numbers are gap-free and strictly increasing per pair;
// exactly one non-deleted or deleted version per pair is current at any
// time. StorageKey is the opaque key the external object-storage
// collaborator produced - the store never touches file bytes.
type DocumentVersion struct {
	ID            int64
	CompanyID     int64
	RuleID        int64
	CalendarID    int64
	VersionNumber int
	IsCurrent     bool
	StorageKey    string
	FileType      string
	FileSize      int64
	OCRStatus     string
	OCRText       string
	OCRVerified   bool
	RenewalDate   time.Time
	ExpiryDate    time.Time
	IsDeleted     bool
	DeletedReason string
	UploadedBy    string
	UploadedAt    time.Time
}

// NextVersion returns 1 + the highest existing version number for the
// (company, rule) pair, or 1 when no versions exist.
//
// The returned number is only a candidate: the UNIQUE constraint inside
// Promote is what actually claims it. Two concurrent callers can read the
// same candidate; the loser's Promote fails with a ConflictError and must
// recompute.
func (s *Store) NextVersion(ctx context.Context, companyID, ruleID int64) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version_number), 0)
		FROM compliance_documents
		WHERE company_id = ? AND rule_id = ?
	`, companyID, ruleID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}
	return max + 1, nil
}

// Promote inserts a new document version and marks it current, demoting
// the prior current version in the same transaction.
//
// Atomicity: the sequence "demote previous current → insert new as current
// → verify exactly one current" runs in one transaction. The version
// number is claimed via the UNIQUE(company_id, rule_id, version_number)
// constraint with ON CONFLICT DO NOTHING: a lost race surfaces as a
// ConflictError (retry with a fresh NextVersion), never as a collided row.
// A post-condition of anything other than exactly one current version
// aborts with an InvariantError.
//
// Returns the assigned doc ID.
func (s *Store) Promote(ctx context.Context, doc DocumentVersion) (int64, error) {
	if doc.VersionNumber < 1 {
		return 0, NewInvariantError(fmt.Sprintf("version_number %d must be >= 1", doc.VersionNumber))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("promote: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: Demote the prior current version, if any.
	if _, err := tx.ExecContext(ctx, `
		UPDATE compliance_documents SET is_current = 0
		WHERE company_id = ? AND rule_id = ? AND is_current = 1
	`, doc.CompanyID, doc.RuleID); err != nil {
		return 0, fmt.Errorf("promote: demote current: %w", err)
	}

	// Step 2: Claim the version number via the UNIQUE constraint.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO compliance_documents
		(company_id, rule_id, calendar_id, version_number, is_current, storage_key,
		 file_type, file_size, ocr_status, ocr_text, ocr_verified,
		 renewal_date, expiry_date, is_deleted, deleted_reason, uploaded_by, uploaded_at)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, 0, '', ?, ?)
		ON CONFLICT(company_id, rule_id, version_number) DO NOTHING
	`,
		doc.CompanyID,
		doc.RuleID,
		doc.CalendarID,
		doc.VersionNumber,
		doc.StorageKey,
		doc.FileType,
		doc.FileSize,
		doc.OCRStatus,
		doc.OCRText,
		doc.OCRVerified,
		marshalDate(doc.RenewalDate),
		marshalDate(doc.ExpiryDate),
		doc.UploadedBy,
		marshalTime(doc.UploadedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("promote: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("promote: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Another writer claimed this version number first. The demote in
		// step 1 rolls back with the transaction.
		return 0, NewConflictError(doc.CompanyID, doc.RuleID, doc.VersionNumber)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("promote: last insert id: %w", err)
	}

	// Step 3: Post-condition - exactly one current version for the pair.
	var current int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM compliance_documents
		WHERE company_id = ? AND rule_id = ? AND is_current = 1
	`, doc.CompanyID, doc.RuleID).Scan(&current); err != nil {
		return 0, fmt.Errorf("promote: verify current: %w", err)
	}
	if current != 1 {
		return 0, NewInvariantError(fmt.Sprintf(
			"%d current versions for company=%d rule=%d after promotion, want exactly 1",
			current, doc.CompanyID, doc.RuleID))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("promote: commit: %w", err)
	}
	return id, nil
}

// Current returns the current document version for a (company, rule) pair.
// Returns a NotFound error when no version has been promoted yet.
func (s *Store) Current(ctx context.Context, companyID, ruleID int64) (DocumentVersion, error) {
	row := s.db.QueryRowContext(ctx, documentSelect+`
		WHERE company_id = ? AND rule_id = ? AND is_current = 1
	`, companyID, ruleID)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return DocumentVersion{}, &StoreError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("no current document for company=%d rule=%d", companyID, ruleID),
		}
	}
	if err != nil {
		return DocumentVersion{}, fmt.Errorf("current document: %w", err)
	}
	return doc, nil
}

// History returns all non-deleted versions for a (company, rule) pair,
// newest version first.
func (s *Store) History(ctx context.Context, companyID, ruleID int64) ([]DocumentVersion, error) {
	rows, err := s.db.QueryContext(ctx, documentSelect+`
		WHERE company_id = ? AND rule_id = ? AND is_deleted = 0
		ORDER BY version_number DESC
	`, companyID, ruleID)
	if err != nil {
		return nil, fmt.Errorf("document history: %w", err)
	}
	defer rows.Close()

	var out []DocumentVersion
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("document history: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document history: %w", err)
	}
	return out, nil
}

// GetDocument returns a document version by ID, deleted or not.
func (s *Store) GetDocument(ctx context.Context, docID int64) (DocumentVersion, error) {
	row := s.db.QueryRowContext(ctx, documentSelect+` WHERE doc_id = ?`, docID)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return DocumentVersion{}, NewNotFoundError("document", docID)
	}
	if err != nil {
		return DocumentVersion{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Remove soft-deletes a document version with a reason. The row is never
// removed and is_current is deliberately untouched: a caller that needs a
// replacement current version must Promote one explicitly. Role
// restriction is the caller's concern; the store only keeps the data
// invariant.
func (s *Store) Remove(ctx context.Context, docID int64, reason string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE compliance_documents SET is_deleted = 1, deleted_reason = ?
		WHERE doc_id = ?
	`, reason, docID)
	if err != nil {
		return fmt.Errorf("remove document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove document: rows affected: %w", err)
	}
	if n == 0 {
		return NewNotFoundError("document", docID)
	}
	return nil
}

const documentSelect = `
	SELECT doc_id, company_id, rule_id, calendar_id, version_number, is_current,
	       storage_key, file_type, file_size, ocr_status, ocr_text, ocr_verified,
	       renewal_date, expiry_date, is_deleted, deleted_reason, uploaded_by, uploaded_at
	FROM compliance_documents
`

// scanDocument decodes one compliance_documents row.
func scanDocument(sc scanner) (DocumentVersion, error) {
	var (
		doc        DocumentVersion
		renewal    string
		expiry     string
		uploadedAt string
	)
	err := sc.Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.RuleID,
		&doc.CalendarID,
		&doc.VersionNumber,
		&doc.IsCurrent,
		&doc.StorageKey,
		&doc.FileType,
		&doc.FileSize,
		&doc.OCRStatus,
		&doc.OCRText,
		&doc.OCRVerified,
		&renewal,
		&expiry,
		&doc.IsDeleted,
		&doc.DeletedReason,
		&doc.UploadedBy,
		&uploadedAt,
	)
	if err != nil {
		return DocumentVersion{}, err
	}

	if doc.RenewalDate, err = unmarshalDate(renewal); err != nil {
		return DocumentVersion{}, err
	}
	if doc.ExpiryDate, err = unmarshalDate(expiry); err != nil {
		return DocumentVersion{}, err
	}
	if doc.UploadedAt, err = unmarshalTime(uploadedAt); err != nil {
		return DocumentVersion{}, err
	}
	return doc, nil
}
