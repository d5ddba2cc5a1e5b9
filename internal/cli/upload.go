package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ezcompliance/comptrack/internal/rules"
	"github.com/ezcompliance/comptrack/internal/schedule"
	"github.com/ezcompliance/comptrack/internal/store"
	"github.com/ezcompliance/comptrack/internal/verify"
)

// promoteRetries bounds the recompute-and-retry loop on a version
// promotion conflict.
const promoteRetries = 3

// UploadOptions holds flags for the upload command.
type UploadOptions struct {
	*RootOptions
	OCRText     string
	OCRTextFile string
	OCRDate     string
	Keywords    string
	FileType    string
	FileSize    int64
	UploadedBy  string
}

// NewUploadCommand creates the upload command.
//
// OCR extraction and blob storage are external collaborators: this command
// takes their already-resolved outputs (extracted text, detected date, an
// opaque storage key is generated here in their stead) and drives the
// verification state machine with them.
func NewUploadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UploadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "upload <calendar-id>",
		Short: "Register a document version for a calendar entry and verify it",
		Long: `Register an uploaded evidence document against a calendar entry.

A new document version is always created (prior versions are never
mutated) and promoted to current. The OCR text is checked against the
rule's keyword policy from the catalog (--keywords overrides it): missing
keywords grade the entry FAILED with the missing list in the verification
note; otherwise the entry grades COMPLETED (issued on or before the due
date) or OVERDUE-PASS (late but valid) and its due date advances to the
next cycle.

Example:
  comptrack upload 12 --ocr-text-file scan.txt --ocr-date 2026-02-10 \
      --keywords "GST Registration,GSTIN" --by admin@example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OCRText, "ocr-text", "", "extracted OCR text")
	cmd.Flags().StringVar(&opts.OCRTextFile, "ocr-text-file", "", "file containing extracted OCR text")
	cmd.Flags().StringVar(&opts.OCRDate, "ocr-date", "", "OCR-extracted renewal date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Keywords, "keywords", "", "comma-separated required keywords (overrides the rule's catalog keywords)")
	cmd.Flags().StringVar(&opts.FileType, "file-type", "pdf", "declared file type")
	cmd.Flags().Int64Var(&opts.FileSize, "file-size", 0, "declared file size in bytes")
	cmd.Flags().StringVar(&opts.UploadedBy, "by", "", "uploader identity")

	return cmd
}

func runUpload(opts *UploadOptions, idArg string, cmd *cobra.Command) error {
	calendarID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid calendar id %q: %w", idArg, err)
	}

	ocrText := opts.OCRText
	if opts.OCRTextFile != "" {
		data, err := os.ReadFile(opts.OCRTextFile)
		if err != nil {
			return fmt.Errorf("read ocr text: %w", err)
		}
		ocrText = string(data)
	}

	var extracted *time.Time
	if opts.OCRDate != "" {
		t, err := time.Parse("2006-01-02", opts.OCRDate)
		if err != nil {
			return fmt.Errorf("invalid --ocr-date %q: %w", opts.OCRDate, err)
		}
		extracted = &t
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	now := time.Now().UTC()

	entry, err := st.GetEntry(ctx, calendarID)
	if err != nil {
		return err
	}
	rule, err := st.GetRule(ctx, entry.RuleID)
	if err != nil {
		return err
	}
	company, err := st.GetCompany(ctx, entry.CompanyID)
	if err != nil {
		return err
	}

	policy := keywordPolicyFor(rule, opts.Keywords)
	sub := verify.Submission{
		OCRText:       ocrText,
		ExtractedDate: extracted,
		UploadedAt:    now,
	}
	updated := verify.Verify(entry, rule, company, policy, sub)

	doc := store.DocumentVersion{
		CompanyID:   entry.CompanyID,
		RuleID:      entry.RuleID,
		CalendarID:  entry.ID,
		StorageKey:  uuid.Must(uuid.NewV7()).String(),
		FileType:    opts.FileType,
		FileSize:    opts.FileSize,
		OCRStatus:   "extracted",
		OCRText:     ocrText,
		OCRVerified: updated.Status != schedule.StatusFailed,
		UploadedBy:  opts.UploadedBy,
		UploadedAt:  now,
	}
	if extracted != nil {
		doc.RenewalDate = *extracted
	}
	if updated.HasNextDue() {
		doc.ExpiryDate = updated.NextDueDate
	}

	docID, err := promoteWithRetry(cmd, st, doc)
	if err != nil {
		return err
	}

	if err := st.UpdateEntry(ctx, updated); err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"calendar_id":   updated.ID,
			"doc_id":        docID,
			"status":        string(updated.Status),
			"due_date":      marshalDateForDisplay(updated.DueDate),
			"next_due_date": marshalDateForDisplay(updated.NextDueDate),
			"note":          updated.Note,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "document %d (version) registered for entry %d\n", docID, updated.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", updated.Status)
	if updated.Note != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "note: %s\n", updated.Note)
	}
	if updated.HasNextDue() {
		fmt.Fprintf(cmd.OutOrStdout(), "next due: %s\n", updated.NextDueDate.Format("2006-01-02"))
	}
	return nil
}

// promoteWithRetry runs the compute-next-version/promote sequence,
// recomputing on a version conflict. Conflicts are retryable by contract;
// anything else aborts immediately.
func promoteWithRetry(cmd *cobra.Command, st *store.Store, doc store.DocumentVersion) (int64, error) {
	ctx := cmd.Context()
	for attempt := 0; attempt < promoteRetries; attempt++ {
		version, err := st.NextVersion(ctx, doc.CompanyID, doc.RuleID)
		if err != nil {
			return 0, err
		}
		doc.VersionNumber = version

		id, err := st.Promote(ctx, doc)
		if err == nil {
			return id, nil
		}
		if !store.IsConflictError(err) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("version promotion kept conflicting after %d attempts", promoteRetries)
}

// keywordPolicyFor resolves the verification policy for an upload: the
// rule's stored catalog keywords, unless the --keywords flag overrides
// them for this invocation.
func keywordPolicyFor(r rules.Rule, flagValue string) verify.KeywordPolicy {
	if flagValue != "" {
		return verify.NewKeywordPolicy(splitKeywords(flagValue)...)
	}
	return verify.NewKeywordPolicy(r.Keywords...)
}

// splitKeywords parses the comma-separated --keywords flag.
func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// marshalDateForDisplay renders a date for JSON output, empty when unset.
func marshalDateForDisplay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
