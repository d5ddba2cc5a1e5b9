package rules

// Match selects the rules applicable to a company.
//
// A rule matches when ALL of the following hold:
//  1. Industries: ALL sentinel, or non-empty intersection with the
//     company's industries.
//  2. States: ALL sentinel, or non-empty intersection with the company's
//     effective state set (HQ only for Basic, HQ+branches for Enterprise).
//  3. CompanyTypes: ALL sentinel, or contains the company's type.
//  4. EmployeeCount falls within [MinEmployees, MaxEmployees] inclusive.
//  5. The rule is active (soft-deleted rules never match).
//
// Match is pure and deterministic: same inputs always yield the same subset,
// in catalog order. An empty result is a valid outcome.
func Match(catalog []Rule, c Company) []Rule {
	effectiveStates := c.EffectiveStates()

	var matched []Rule
	for _, r := range catalog {
		if matchRule(r, c, effectiveStates) {
			matched = append(matched, r)
		}
	}
	return matched
}

// matchRule evaluates a single rule against a company snapshot.
// effectiveStates is precomputed by the caller so the resolution happens
// once per Match call, not once per rule.
func matchRule(r Rule, c Company, effectiveStates []string) bool {
	if !r.Active {
		return false
	}
	if c.EmployeeCount < r.MinEmployees || c.EmployeeCount > r.MaxEmployees {
		return false
	}
	if !r.Industries.Matches(c.Industries) {
		return false
	}
	if !r.States.Matches(effectiveStates) {
		return false
	}
	if !r.CompanyTypes.Matches([]string{c.CompanyType}) {
		return false
	}
	return true
}
