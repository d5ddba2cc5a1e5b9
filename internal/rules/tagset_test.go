package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagSet_AllMatchesAnything(t *testing.T) {
	ts := AllTags()

	assert.True(t, ts.Matches([]string{"AI"}))
	assert.True(t, ts.Matches([]string{"Transport", "Goa"}))
	assert.True(t, ts.Matches(nil), "ALL matches even an empty candidate set")
}

func TestTagSet_SpecificIntersection(t *testing.T) {
	ts := Specific("AI", "Pharma")

	assert.True(t, ts.Matches([]string{"AI"}))
	assert.True(t, ts.Matches([]string{"Logistics", "Pharma"}))
	assert.False(t, ts.Matches([]string{"Logistics"}))
	assert.False(t, ts.Matches(nil))
}

func TestTagSet_EmptyConcreteSetMatchesNothing(t *testing.T) {
	// An empty concrete set (not ALL) is intentional: it matches nothing.
	ts := Specific()

	assert.False(t, ts.Matches([]string{"AI"}))
	assert.False(t, ts.Matches(nil))
}

func TestDecodeTags_SentinelAnywhere(t *testing.T) {
	testCases := []struct {
		name    string
		stored  []string
		wantAll bool
	}{
		{"sentinel alone", []string{"ALL"}, true},
		{"sentinel mixed in", []string{"Gujarat", "ALL"}, true},
		{"concrete set", []string{"Gujarat", "Goa"}, false},
		{"empty", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := DecodeTags(tc.stored)
			assert.Equal(t, tc.wantAll, ts.All)
		})
	}
}

func TestEncodeTags_RoundTrip(t *testing.T) {
	assert.Equal(t, []string{"ALL"}, EncodeTags(AllTags()))
	assert.Equal(t, []string{"Gujarat", "Goa"}, EncodeTags(Specific("Gujarat", "Goa")))
}
