package rules

// AllSentinel is the catalog wire value meaning "matches unconditionally".
// A dimension stored as ["ALL"] decodes to TagSet{All: true}.
const AllSentinel = "ALL"

// TagSet is one set-valued matching dimension of a rule: either the ALL
// sentinel (unconditional match) or a concrete set of tags.
//
// Modeling the sentinel as a tagged variant keeps the "ALL" string out of
// the matching logic - it exists only at the storage/decoding boundary.
type TagSet struct {
	// All marks the unconditional variant. When true, Tags is ignored.
	All bool

	// Tags is the concrete tag set. An empty concrete set matches
	// nothing; that is intentional, not an error.
	Tags []string
}

// AllTags returns the unconditional TagSet.
func AllTags() TagSet {
	return TagSet{All: true}
}

// Specific returns a concrete TagSet over the given tags.
func Specific(tags ...string) TagSet {
	return TagSet{Tags: tags}
}

// Matches reports whether the set intersects the candidate values
// non-emptily, or is the ALL variant.
func (ts TagSet) Matches(values []string) bool {
	if ts.All {
		return true
	}
	for _, tag := range ts.Tags {
		for _, v := range values {
			if tag == v {
				return true
			}
		}
	}
	return false
}

// DecodeTags converts a stored tag list into a TagSet, recognizing the ALL
// sentinel anywhere in the list (mirrors the catalog's array semantics where
// 'ALL' = ANY(column) short-circuits the overlap test).
func DecodeTags(stored []string) TagSet {
	for _, t := range stored {
		if t == AllSentinel {
			return AllTags()
		}
	}
	return TagSet{Tags: stored}
}

// EncodeTags converts a TagSet back to its stored list form.
func EncodeTags(ts TagSet) []string {
	if ts.All {
		return []string{AllSentinel}
	}
	return ts.Tags
}
