package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM compliance_rules").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{
		"compliance_rules", "companies", "compliance_calendar",
		"compliance_documents", "audit_flags", "audit_log",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	// Second close should not panic.
	_ = s.Close()
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createTestStore(t)
	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Schema tests

func TestSchema_CalendarTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "compliance_calendar")
	expected := []string{
		"calendar_id", "company_id", "rule_id", "branch_state", "due_date",
		"status", "next_due_date", "ocr_verified", "verified_at", "note",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("compliance_calendar table missing column %q", col)
		}
	}
}

func TestSchema_DocumentsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "compliance_documents")
	expected := []string{
		"doc_id", "company_id", "rule_id", "calendar_id", "version_number",
		"is_current", "storage_key", "ocr_status", "ocr_text", "ocr_verified",
		"is_deleted", "deleted_reason", "uploaded_by", "uploaded_at",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("compliance_documents table missing column %q", col)
		}
	}
}

func TestSchema_OneCurrentPartialIndex(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "compliance_documents")
	if !contains(indexes, "idx_documents_one_current") {
		t.Errorf("compliance_documents missing partial unique index, indexes: %v", indexes)
	}
}

func TestConstraint_CalendarUniqueObligation(t *testing.T) {
	s := createTestStore(t)
	companyID, ruleID, _ := seedEntry(t, s)

	// Same (company, rule, branch_state) must be rejected by the constraint.
	_, err := s.db.Exec(`
		INSERT INTO compliance_calendar
		(company_id, rule_id, branch_state, due_date, status, next_due_date,
		 ocr_verified, verified_at, note)
		VALUES (?, ?, '', '2027-01-01', 'PENDING', '', 0, '', '')
	`, companyID, ruleID)
	if err == nil {
		t.Error("expected UNIQUE constraint violation, got nil")
	}
}

func TestConstraint_DocumentUniqueVersion(t *testing.T) {
	s := createTestStore(t)
	companyID, ruleID, calendarID := seedEntry(t, s)

	doc := createTestDocument(companyID, ruleID, calendarID, 1)
	if _, err := s.Promote(context.Background(), doc); err != nil {
		t.Fatalf("Promote() failed: %v", err)
	}

	// Raw insert with the same version number must hit the constraint.
	_, err := s.db.Exec(`
		INSERT INTO compliance_documents
		(company_id, rule_id, calendar_id, version_number, is_current, storage_key,
		 file_type, file_size, ocr_status, ocr_text, ocr_verified,
		 renewal_date, expiry_date, is_deleted, deleted_reason, uploaded_by, uploaded_at)
		VALUES (?, ?, ?, 1, 0, 'k', 'pdf', 1, 'completed', '', 0, '', '', 0, '', 'x', '')
	`, companyID, ruleID, calendarID)
	if err == nil {
		t.Error("expected UNIQUE constraint violation on version_number, got nil")
	}
}

func TestConstraint_TwoCurrentVersionsRejected(t *testing.T) {
	s := createTestStore(t)
	companyID, ruleID, calendarID := seedEntry(t, s)

	if _, err := s.Promote(context.Background(), createTestDocument(companyID, ruleID, calendarID, 1)); err != nil {
		t.Fatalf("Promote() failed: %v", err)
	}

	// A second row with is_current=1 for the same pair must violate the
	// partial unique index even with a fresh version number.
	_, err := s.db.Exec(`
		INSERT INTO compliance_documents
		(company_id, rule_id, calendar_id, version_number, is_current, storage_key,
		 file_type, file_size, ocr_status, ocr_text, ocr_verified,
		 renewal_date, expiry_date, is_deleted, deleted_reason, uploaded_by, uploaded_at)
		VALUES (?, ?, ?, 2, 1, 'k', 'pdf', 1, 'completed', '', 0, '', '', 0, '', 'x', '')
	`, companyID, ruleID, calendarID)
	if err == nil {
		t.Error("expected partial unique index violation on is_current, got nil")
	}
}

func TestConstraint_ForeignKeyCalendarToCompany(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO compliance_calendar
		(company_id, rule_id, branch_state, due_date, status, next_due_date,
		 ocr_verified, verified_at, note)
		VALUES (999, 999, '', '2027-01-01', 'PENDING', '', 0, '', '')
	`)
	if err == nil {
		t.Error("expected foreign key constraint violation, got nil")
	}
}

// Migration tests

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestMigration_IdempotentUpgrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}

		var version int
		if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			t.Fatalf("failed to get user_version: %v", err)
		}
		if version != currentSchemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, version, currentSchemaVersion)
		}
		s.Close()
	}
}

// Helper functions

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
