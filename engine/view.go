package engine

import (
	"sort"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns caller data. It reads through this interface.
//
// Implementations:
//   SliceView      — wraps a Dataset
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
//   SubView        — filtered subset (indices into parent, zero-copy)
//
// The engine calls Value in tight loops — keep implementations fast.
// ============================================================================

// RecordView provides indexed access to a dataset.
type RecordView interface {
	Len() int
	// Value returns the field's value for record i and whether the record has it.
	Value(index int, field string) (Value, bool)
	// Fields lists every field name seen, in first-occurrence order.
	Fields() []string
}

// ============================================================================
// SLICE VIEW — wraps a Dataset
// ============================================================================

// SliceView wraps a Dataset as a RecordView.
type SliceView struct {
	records Dataset
	fields  []string
}

// NewSliceView creates a RecordView over ds. The Dataset is not copied.
func NewSliceView(ds Dataset) *SliceView {
	v := &SliceView{records: ds}
	v.cacheFields()
	return v
}

// cacheFields records field names by first occurrence. Keys inside a single
// record are sorted first since map order is not stable.
func (v *SliceView) cacheFields() {
	seen := make(map[string]bool)
	for _, r := range v.records {
		keys := make([]string, 0, len(r))
		for k := range r {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			v.fields = append(v.fields, k)
		}
	}
}

func (v *SliceView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.records)
}

func (v *SliceView) Value(i int, field string) (Value, bool) {
	if i < 0 || i >= v.Len() {
		return Null(), false
	}
	val, ok := v.records[i][field]
	return val, ok
}

func (v *SliceView) Fields() []string {
	if v == nil {
		return nil
	}
	return v.fields
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) *SubView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.indices)
}

func (v *SubView) Value(i int, field string) (Value, bool) {
	if i < 0 || i >= v.Len() {
		return Null(), false
	}
	return v.parent.Value(v.indices[i], field)
}

func (v *SubView) Fields() []string {
	if v == nil {
		return nil
	}
	return v.parent.Fields()
}

// ParentIndex maps a sub-view index back to the parent's index.
func (v *SubView) ParentIndex(i int) int { return v.indices[i] }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Trade]().
//	    Field("region", func(t Trade) engine.Value { return engine.Text(t.Region) }).
//	    Field("amount", func(t Trade) engine.Value { return engine.Number(t.Amount) })
//
//	view := adapter.Bind(trades)
//	result, _ := engine.ExecuteView(view, cfg)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	order     []string
	accessors map[string]func(T) Value
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{accessors: make(map[string]func(T) Value)}
}

// Field registers an accessor. Registering a name twice replaces the accessor.
func (a *DomainAdapter[T]) Field(name string, fn func(T) Value) *DomainAdapter[T] {
	if _, exists := a.accessors[name]; !exists {
		a.order = append(a.order, name)
	}
	a.accessors[name] = fn
	return a
}

// Bind creates a RecordView from a data slice. Zero-copy — holds reference.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{data: data, accessors: a.accessors, fields: a.order}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data      []T
	accessors map[string]func(T) Value
	fields    []string
}

func (v *DomainView[T]) Len() int {
	if v == nil {
		return 0
	}
	return len(v.data)
}

func (v *DomainView[T]) Value(i int, field string) (Value, bool) {
	if i < 0 || i >= v.Len() {
		return Null(), false
	}
	fn, ok := v.accessors[field]
	if !ok {
		return Null(), false
	}
	return fn(v.data[i]), true
}

func (v *DomainView[T]) Fields() []string {
	if v == nil {
		return nil
	}
	return v.fields
}
