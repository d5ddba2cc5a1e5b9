// Package store provides SQLite-backed persistence for the compliance
// tracker: the rule catalog, company profiles, the per-company compliance
// calendar, document versions, auditor flags, and the catalog audit log.
//
// # Invariants enforced at the schema level
//
//   - One calendar entry per (company, rule, branch_state):
//     UNIQUE(company_id, rule_id, branch_state). Calendar construction is
//     idempotent through INSERT ... ON CONFLICT DO NOTHING.
//   - Gap-free document versions: UNIQUE(company_id, rule_id,
//     version_number). A lost insert race surfaces as a ConflictError the
//     caller retries with a fresh next-version computation.
//   - At most one current document version per (company, rule): partial
//     unique index on is_current=1. Promotion demotes the prior current row
//     and verifies the post-condition inside one transaction; a violation
//     is an InvariantError, never silently repaired.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Dates are stored as ISO-8601 TEXT (date columns day-granular, timestamps
// RFC 3339 UTC); tag arrays are stored as JSON text.
package store
