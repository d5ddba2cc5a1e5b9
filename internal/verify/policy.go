package verify

import (
	"strings"

	"golang.org/x/text/cases"
)

// KeywordPolicy is the set of substrings that must all appear in a
// document's OCR text for the document to pass verification.
//
// Matching is case-insensitive under Unicode case folding, so scanned text
// with inconsistent capitalization ("gst registration", "GST REGISTRATION")
// still satisfies a "GST Registration" requirement.
type KeywordPolicy struct {
	Required []string
}

// NewKeywordPolicy creates a policy over the given required keywords.
// Blank keywords are dropped.
func NewKeywordPolicy(required ...string) KeywordPolicy {
	var kept []string
	for _, k := range required {
		if strings.TrimSpace(k) != "" {
			kept = append(kept, k)
		}
	}
	return KeywordPolicy{Required: kept}
}

// Missing returns the required keywords absent from the OCR text, in policy
// order. An empty result means the text satisfies the policy.
func (p KeywordPolicy) Missing(ocrText string) []string {
	folder := cases.Fold()
	folded := folder.String(ocrText)

	var missing []string
	for _, k := range p.Required {
		if !strings.Contains(folded, folder.String(k)) {
			missing = append(missing, k)
		}
	}
	return missing
}
