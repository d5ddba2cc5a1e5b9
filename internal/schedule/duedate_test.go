package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezcompliance/comptrack/internal/rules"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func makeRule() rules.Rule {
	return rules.Rule{
		ID:              1,
		Name:            "GST Filing",
		FrequencyMonths: 1,
		Scope:           rules.ScopeCompany,
		Active:          true,
	}
}

func makeCompany(createdAt time.Time) rules.Company {
	return rules.Company{
		ID:           1,
		Name:         "TechAI Solutions Pvt Ltd",
		HQState:      "Gujarat",
		Subscription: rules.SubscriptionBasic,
		CreatedAt:    createdAt,
	}
}

func TestNextDue_FixedDeadlineCurrentYear(t *testing.T) {
	// Rule(frequency=1, fixed 20 Feb), company created 2026-01-01:
	// the current-year fixed deadline has not yet passed.
	r := makeRule()
	r.FixedDueDay = 20
	r.FixedDueMonth = time.February

	c := makeCompany(date(2026, time.January, 1))
	due := NextDue(r, c, nil, date(2026, time.January, 1))

	assert.Equal(t, date(2026, time.February, 20), due)
}

func TestNextDue_FixedDeadlineRollsForwardWhenPassed(t *testing.T) {
	// A fixed deadline already behind the evaluation time rolls to next
	// year's occurrence immediately, at calendar-build time.
	r := makeRule()
	r.FixedDueDay = 20
	r.FixedDueMonth = time.February

	c := makeCompany(date(2026, time.March, 1))
	due := NextDue(r, c, nil, date(2026, time.March, 1))

	assert.Equal(t, date(2027, time.February, 20), due)
}

func TestNextDue_FixedDeadlineOnEvaluationDayDoesNotRoll(t *testing.T) {
	r := makeRule()
	r.FixedDueDay = 20
	r.FixedDueMonth = time.October

	due := NextDue(r, makeCompany(date(2026, time.January, 1)), nil, date(2026, time.October, 20))
	assert.Equal(t, date(2026, time.October, 20), due)
}

func TestNextDue_FixedDeadlineIgnoresExtractedDate(t *testing.T) {
	r := makeRule()
	r.FixedDueDay = 20
	r.FixedDueMonth = time.October

	extracted := date(2026, time.March, 5)
	due := NextDue(r, makeCompany(date(2026, time.January, 1)), &extracted, date(2026, time.January, 15))

	assert.Equal(t, date(2026, time.October, 20), due,
		"a fixed government deadline beats any OCR-extracted date")
}

func TestNextDue_ExtractedDatePlusFrequency(t *testing.T) {
	r := makeRule()
	r.FrequencyMonths = 3

	extracted := date(2026, time.February, 10)
	due := NextDue(r, makeCompany(date(2026, time.January, 1)), &extracted, date(2026, time.February, 12))

	assert.Equal(t, date(2026, time.May, 10), due)
}

func TestNextDue_FallbackFromCreation(t *testing.T) {
	r := makeRule()
	r.FrequencyMonths = 12

	due := NextDue(r, makeCompany(date(2026, time.January, 1)), nil, date(2026, time.January, 1))
	assert.Equal(t, date(2027, time.January, 1), due)
}

func TestAddMonths(t *testing.T) {
	testCases := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"plain month", date(2026, time.January, 15), 1, date(2026, time.February, 15)},
		{"year wrap", date(2026, time.November, 10), 3, date(2027, time.February, 10)},
		{"clamps to short month", date(2026, time.January, 31), 1, date(2026, time.February, 28)},
		{"clamps to leap february", date(2028, time.January, 31), 1, date(2028, time.February, 29)},
		{"clamp then plain", date(2026, time.March, 31), 1, date(2026, time.April, 30)},
		{"twelve months", date(2026, time.June, 30), 12, date(2027, time.June, 30)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AddMonths(tc.start, tc.n))
		})
	}
}

func TestNextDue_PureFunction(t *testing.T) {
	r := makeRule()
	c := makeCompany(date(2026, time.January, 1))
	now := date(2026, time.April, 7)

	first := NextDue(r, c, nil, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, NextDue(r, c, nil, now))
	}
}
