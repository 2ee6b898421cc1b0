package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lipo-groupgen/internal/export"
	"github.com/lipo-groupgen/internal/groupingctx"
)

func TestNewAdvisor(t *testing.T) {
	advisor := NewAdvisor()
	assert.NotNil(t, advisor)
	assert.NotEmpty(t, advisor.rules)
}

func TestNewAdvisorWithRules(t *testing.T) {
	rules := []Rule{{Name: "test_rule"}}
	advisor := NewAdvisorWithRules(rules)
	assert.Len(t, advisor.rules, 1)
	assert.Equal(t, "test_rule", advisor.rules[0].Name)
}

func TestAdvisor_Advise_EmptyAuxList(t *testing.T) {
	advisor := NewAdvisor()
	ctx := &RuleContext{
		Result: &export.Result{
			Modules: []export.ModuleExport{
				{ModuleID: 1, SourceFilename: "a.c", IsExported: true},
			},
		},
		Config: groupingctx.Default(),
	}

	findings := advisor.Advise(ctx)
	var found bool
	for _, f := range findings {
		if f.Type == "empty_aux_list" && f.ModuleID == 1 {
			found = true
		}
	}
	assert.True(t, found, "should flag exported module with empty aux list")
}

func TestAdvisor_Advise_BudgetNearLimit(t *testing.T) {
	advisor := NewAdvisor()
	cctx := groupingctx.Default()
	cctx.MaxMemKB = 100
	ctx := &RuleContext{
		Result: &export.Result{
			Modules: []export.ModuleExport{
				{
					ModuleID:       1,
					SourceFilename: "a.c",
					IsExported:     true,
					Aux:            []export.AuxModule{{ModuleID: 2, Weight: 120}},
				},
			},
		},
		Config: cctx,
	}

	findings := advisor.Advise(ctx)
	var found bool
	for _, f := range findings {
		if f.Type == "budget_near_limit" {
			found = true
		}
	}
	assert.True(t, found, "should flag module whose aux weight nears the effective budget")
}

func TestAdvisor_Advise_UnexportedWithAux(t *testing.T) {
	advisor := NewAdvisor()
	ctx := &RuleContext{
		Result: &export.Result{
			Modules: []export.ModuleExport{
				{
					ModuleID:   1,
					IsExported: false,
					Aux:        []export.AuxModule{{ModuleID: 2, Weight: 10}},
				},
			},
		},
		Config: groupingctx.Default(),
	}

	findings := advisor.Advise(ctx)
	var found bool
	for _, f := range findings {
		if f.Type == "unexported_with_aux" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAdvisor_Advise_NilResult(t *testing.T) {
	advisor := NewAdvisor()
	assert.Empty(t, advisor.Advise(&RuleContext{}))
}
