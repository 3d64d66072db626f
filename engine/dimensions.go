package engine

// ============================================================================
// DIMENSION ANALYZER — distinct values per field, first-occurrence order
// ============================================================================
// Always runs on the unfiltered view so axes stay stable while filters change.
// Null (including an absent field) is a distinct value like any other.
// ============================================================================

// Dimension is the analyzed value universe of one field.
type Dimension struct {
	Field  string
	Values []Value
	// Present reports whether any record carries the field at all.
	Present bool
	// Missing counts records that lack the field.
	Missing int
	// FirstMissing is the index of the first record lacking the field, or -1.
	FirstMissing int
}

// OrderedSet keeps distinct Values in insertion order.
type OrderedSet struct {
	index  map[string]int
	values []Value
}

// NewOrderedSet returns an empty set.
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{index: make(map[string]int)}
}

// Add inserts v if absent and reports whether it was new.
func (s *OrderedSet) Add(v Value) bool {
	k := v.Key()
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.values)
	s.values = append(s.values, v)
	return true
}

// Index returns the insertion position of v, or -1.
func (s *OrderedSet) Index(v Value) int {
	if i, ok := s.index[v.Key()]; ok {
		return i
	}
	return -1
}

func (s *OrderedSet) Len() int { return len(s.values) }

// Values returns a copy of the members in insertion order.
func (s *OrderedSet) Values() []Value {
	return append([]Value(nil), s.values...)
}

// AnalyzeDimensions scans view once per field and returns each field's
// distinct values in order of first occurrence.
func AnalyzeDimensions(view RecordView, fields []string) []Dimension {
	dims := make([]Dimension, len(fields))
	for i, f := range fields {
		dims[i] = analyzeField(view, f)
	}
	return dims
}

func analyzeField(view RecordView, field string) Dimension {
	set := NewOrderedSet()
	dim := Dimension{Field: field, FirstMissing: -1}
	for i := 0; i < view.Len(); i++ {
		v, ok := view.Value(i, field)
		if ok {
			dim.Present = true
		} else {
			v = Null()
			dim.Missing++
			if dim.FirstMissing < 0 {
				dim.FirstMissing = i
			}
		}
		set.Add(v)
	}
	dim.Values = set.values
	return dim
}

// clone returns a Dimension whose Values slice is not shared with d.
func (d Dimension) clone() Dimension {
	d.Values = append([]Value(nil), d.Values...)
	return d
}
