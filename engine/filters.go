package engine

import (
	"sort"
)

// ============================================================================
// FILTERS — Strict-Equality Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
// ============================================================================

// ApplyFilters returns a view of records matching every filter entry.
// Entries set to Text(AllValues) are ignored. A record missing a filtered
// field never matches that entry, even when the filter value is Null.
func ApplyFilters(view RecordView, filters map[string]Value) RecordView {
	constraints := make([]constraint, 0, len(filters))
	for field, want := range filters {
		if isUnconstrained(want) {
			continue
		}
		constraints = append(constraints, constraint{field: field, want: want})
	}

	if len(constraints) == 0 {
		return view
	}
	// Stable evaluation order keeps short-circuiting reproducible.
	sort.Slice(constraints, func(i, j int) bool { return constraints[i].field < constraints[j].field })

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if matchesAll(view, i, constraints) {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

type constraint struct {
	field string
	want  Value
}

func matchesAll(view RecordView, i int, constraints []constraint) bool {
	for _, c := range constraints {
		got, ok := view.Value(i, c.field)
		if !ok || !got.Equal(c.want) {
			return false
		}
	}
	return true
}
