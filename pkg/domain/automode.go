package domain

import "context"

// IssueSeverity grades auto-mode findings.
type IssueSeverity string

// Issue severities: blocking findings disable auto mode, warnings do not.
const (
	IssueBlock IssueSeverity = "block"
	IssueWarn  IssueSeverity = "warn"
)

// Issue reports a single auto-mode completeness finding.
type Issue struct {
	Check    string        `json:"check"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
	RuleID   string        `json:"rule_id,omitempty"`
}

// AutoModeReport summarizes whether unattended demand computation is safe
// for a sector.
type AutoModeReport struct {
	CanUseAutoMode bool    `json:"can_use_auto_mode"`
	Issues         []Issue `json:"issues"`
}

// HasBlocking reports whether any finding disables auto mode.
func (r AutoModeReport) HasBlocking() bool {
	for _, issue := range r.Issues {
		if issue.Severity == IssueBlock {
			return true
		}
	}
	return false
}

// AutoModeCheck is one pluggable completeness predicate run against a
// sector's active calculation rules. Business-policy specific checks are
// registered alongside the built-in ones.
type AutoModeCheck interface {
	Name() string
	Check(ctx context.Context, sectorID string, rules []Rule) ([]Issue, error)
}

// AutoModeEngine runs registered checks and aggregates their findings.
type AutoModeEngine struct {
	checks []AutoModeCheck
}

// NewAutoModeEngine constructs an engine with no checks registered.
func NewAutoModeEngine() *AutoModeEngine {
	return &AutoModeEngine{}
}

// Register appends a check to the engine.
func (e *AutoModeEngine) Register(check AutoModeCheck) {
	e.checks = append(e.checks, check)
}

// Checks returns the registered checks in registration order.
func (e *AutoModeEngine) Checks() []AutoModeCheck {
	return append([]AutoModeCheck(nil), e.checks...)
}

// Run executes all checks against the sector's rules and aggregates the
// findings into a report.
func (e *AutoModeEngine) Run(ctx context.Context, sectorID string, rules []Rule) (AutoModeReport, error) {
	report := AutoModeReport{}
	for _, check := range e.checks {
		issues, err := check.Check(ctx, sectorID, rules)
		if err != nil {
			return AutoModeReport{}, err
		}
		report.Issues = append(report.Issues, issues...)
	}
	report.CanUseAutoMode = !report.HasBlocking()
	return report, nil
}
