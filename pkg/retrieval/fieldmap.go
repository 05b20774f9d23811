package retrieval

import (
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/planner"
	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/vector"
)

// fieldMap translates a logical filter field to the physical payload fields
// OR-matched in each vertical. A missing entry means the filter does not
// apply in that vertical and is silently skipped.
var fieldMap = map[string]map[planner.Vertical][]string{
	"sections": {
		planner.VerticalLegal:    {"section", "sections", "mentioned_sections"},
		planner.VerticalGO:       {"mentioned_sections"},
		planner.VerticalJudicial: {"mentioned_sections"},
	},
	"go_number": {
		planner.VerticalLegal:    {"mentioned_gos"},
		planner.VerticalGO:       {"go_number"},
		planner.VerticalJudicial: {"mentioned_gos"},
	},
	"year": {
		planner.VerticalLegal:    {"year"},
		planner.VerticalGO:       {"year"},
		planner.VerticalJudicial: {"year"},
		planner.VerticalData:     {"year"},
		planner.VerticalSchemes:  {"year"},
	},
	"department": {
		planner.VerticalGO:      {"department", "departments"},
		planner.VerticalData:    {"departments"},
		planner.VerticalSchemes: {"departments"},
	},
}

// MapFilters builds the store filter for one vertical from the plan's
// logical filters. Each logical filter becomes one conjunction clause whose
// physical fields are OR-matched. Returns nil when nothing applies.
func MapFilters(logical map[string][]string, v planner.Vertical) *vector.Filter {
	if len(logical) == 0 {
		return nil
	}
	var clauses []vector.Clause
	for field, values := range logical {
		physical, ok := fieldMap[field][v]
		if !ok || len(values) == 0 {
			continue
		}
		clause := vector.Clause{}
		for _, pf := range physical {
			clause.Any = append(clause.Any, vector.FieldMatch{Field: pf, Values: values})
		}
		clauses = append(clauses, clause)
	}
	if len(clauses) == 0 {
		return nil
	}
	return &vector.Filter{All: clauses}
}
