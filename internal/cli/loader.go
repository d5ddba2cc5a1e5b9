package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ezcompliance/comptrack/internal/rules"
)

// ruleSpec is the YAML authoring form of a catalog rule. Tag-set fields use
// the list form with the ALL sentinel, matching the stored representation.
type ruleSpec struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description,omitempty"`
	Industries       []string `yaml:"industries"`
	States           []string `yaml:"states"`
	CompanyTypes     []string `yaml:"company_types"`
	MinEmployees     int      `yaml:"min_employees"`
	MaxEmployees     int      `yaml:"max_employees"`
	FrequencyMonths  int      `yaml:"frequency_months"`
	FixedDueDay      int      `yaml:"fixed_due_day,omitempty"`
	FixedDueMonth    int      `yaml:"fixed_due_month,omitempty"`
	DocumentRequired bool     `yaml:"document_required"`
	PenaltyAmount    string   `yaml:"penalty_amount,omitempty"`
	PenaltyImpact    string   `yaml:"penalty_impact"`
	Scope            string   `yaml:"scope"`
	Keywords         []string `yaml:"keywords,omitempty"`
}

// catalogFile is the top-level structure of a rule catalog YAML file.
type catalogFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// companySpec is the YAML authoring form of a company profile.
type companySpec struct {
	Name          string   `yaml:"name"`
	Industries    []string `yaml:"industries"`
	CompanyType   string   `yaml:"company_type"`
	HQState       string   `yaml:"hq_state"`
	BranchStates  []string `yaml:"branch_states,omitempty"`
	EmployeeCount int      `yaml:"employee_count"`
	Subscription  string   `yaml:"subscription"`
}

// companiesFile is the top-level structure of a companies YAML file.
type companiesFile struct {
	Companies []companySpec `yaml:"companies"`
}

// LoadCatalog reads a rule catalog YAML file. Keywords authored on a rule
// become its stored verification policy, enforced by the upload command.
func LoadCatalog(path string) ([]rules.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	var out []rules.Rule
	for i, spec := range file.Rules {
		r := rules.Rule{
			Name:             spec.Name,
			Description:      spec.Description,
			Industries:       rules.DecodeTags(spec.Industries),
			States:           rules.DecodeTags(spec.States),
			CompanyTypes:     rules.DecodeTags(spec.CompanyTypes),
			MinEmployees:     spec.MinEmployees,
			MaxEmployees:     spec.MaxEmployees,
			FrequencyMonths:  spec.FrequencyMonths,
			FixedDueDay:      spec.FixedDueDay,
			FixedDueMonth:    time.Month(spec.FixedDueMonth),
			DocumentRequired: spec.DocumentRequired,
			PenaltyAmount:    spec.PenaltyAmount,
			PenaltyImpact:    rules.PenaltyImpact(spec.PenaltyImpact),
			Scope:            rules.RuleScope(spec.Scope),
			Keywords:         spec.Keywords,
			Active:           true,
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("catalog %s, rule %d (%s): %w", path, i+1, spec.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadCompanies reads a companies YAML file.
func LoadCompanies(path string, createdAt time.Time) ([]rules.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read companies: %w", err)
	}

	var file companiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse companies %s: %w", path, err)
	}

	var out []rules.Company
	for i, spec := range file.Companies {
		c := rules.Company{
			Name:          spec.Name,
			Industries:    spec.Industries,
			CompanyType:   spec.CompanyType,
			HQState:       spec.HQState,
			BranchStates:  spec.BranchStates,
			EmployeeCount: spec.EmployeeCount,
			Subscription:  rules.Subscription(spec.Subscription),
			CreatedAt:     createdAt,
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("companies %s, entry %d (%s): %w", path, i+1, spec.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}
