// Package advisor produces rule-based warnings over a finished grouping
// run, the LIPO analogue of the teacher's profiling-suggestion rules:
// the same threshold-driven Rule/RuleCheckFunc shape, re-targeted from
// CPU/GC/lock hotspots to budget and inclusion diagnostics. Advisory
// only — nothing here changes an export.Result.
package advisor

import (
	"fmt"

	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/internal/groupingctx"
)

// Severity classifies how urgent a Finding is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Finding is one advisory diagnostic attached to a module.
type Finding struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	ModuleID uint32   `json:"module_id"`
	Message  string   `json:"message"`
}

// Rule inspects a finished run and reports zero or more Findings.
type Rule struct {
	Name  string
	Check RuleCheckFunc
}

// RuleCheckFunc is a single advisory check.
type RuleCheckFunc func(ctx *RuleContext) []Finding

// RuleContext is the input a Rule inspects.
type RuleContext struct {
	Result *export.Result
	Config *groupingctx.Context
}

// Advisor runs a configured set of Rules against a RuleContext.
type Advisor struct {
	rules []Rule
}

// NewAdvisor creates an Advisor with the default rule set.
func NewAdvisor() *Advisor {
	return &Advisor{rules: defaultRules()}
}

// NewAdvisorWithRules creates an Advisor with a caller-supplied rule set,
// for tests or a CLI --rules override.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{rules: rules}
}

// Advise runs every configured rule and concatenates their Findings.
func (a *Advisor) Advise(ctx *RuleContext) []Finding {
	findings := make([]Finding, 0)
	for _, rule := range a.rules {
		if rule.Check != nil {
			findings = append(findings, rule.Check(ctx)...)
		}
	}
	return findings
}

func defaultRules() []Rule {
	return []Rule{
		{Name: "empty_aux_list", Check: checkEmptyAuxList},
		{Name: "budget_near_limit", Check: checkBudgetNearLimit},
		{Name: "unexported_with_aux", Check: checkUnexportedWithAux},
	}
}

// checkEmptyAuxList flags exported modules whose aux list came back empty,
// which usually means no outgoing edge cleared the cutoff.
func checkEmptyAuxList(ctx *RuleContext) []Finding {
	findings := make([]Finding, 0)
	if ctx.Result == nil {
		return findings
	}
	for _, m := range ctx.Result.Modules {
		if m.IsExported && len(m.Aux) == 0 {
			findings = append(findings, Finding{
				Type:     "empty_aux_list",
				Severity: SeverityInfo,
				ModuleID: m.ModuleID,
				Message: fmt.Sprintf(
					"module %d (%s) is exported but has no aux modules; no outgoing edge met the hot-edge cutoff",
					m.ModuleID, m.SourceFilename,
				),
			})
		}
	}
	return findings
}

// checkBudgetNearLimit flags modules whose aux-list weight sum is within
// 10% of the effective memory budget, a signal the budget is the binding
// constraint rather than the cutoff.
func checkBudgetNearLimit(ctx *RuleContext) []Finding {
	findings := make([]Finding, 0)
	if ctx.Result == nil || ctx.Config == nil {
		return findings
	}
	budget := ctx.Config.EffectiveMemBudget()
	if budget == 0 {
		return findings
	}
	threshold := int64(budget) * 9 / 10
	for _, m := range ctx.Result.Modules {
		var total int64
		for _, aux := range m.Aux {
			total += aux.Weight
		}
		if total >= threshold {
			findings = append(findings, Finding{
				Type:     "budget_near_limit",
				Severity: SeverityWarning,
				ModuleID: m.ModuleID,
				Message: fmt.Sprintf(
					"module %d (%s) aux weight %d is within 10%% of the %d kB memory budget",
					m.ModuleID, m.SourceFilename, total, budget,
				),
			})
		}
	}
	return findings
}

// checkUnexportedWithAux flags a module that has an aux list but is not
// itself exported, i.e. it imports other modules while no module imports
// it.
func checkUnexportedWithAux(ctx *RuleContext) []Finding {
	findings := make([]Finding, 0)
	if ctx.Result == nil {
		return findings
	}
	for _, m := range ctx.Result.Modules {
		if !m.IsExported && len(m.Aux) > 0 {
			findings = append(findings, Finding{
				Type:     "unexported_with_aux",
				Severity: SeverityWarning,
				ModuleID: m.ModuleID,
				Message: fmt.Sprintf(
					"module %d (%s) has %d aux entries but is not exported",
					m.ModuleID, m.SourceFilename, len(m.Aux),
				),
			})
		}
	}
	return findings
}
