package engine

// ============================================================================
// COMBINATION GENERATOR — iterative cartesian product
// ============================================================================
// Folds field by field: start from the single empty tuple, then extend every
// tuple with each value of the next field. The first field varies slowest.
// A field with no values empties the product.
// ============================================================================

// Combinations returns the ordered cartesian product of dims' values.
// The result size is the product of per-field cardinalities; no cap is applied.
func Combinations(dims []Dimension) []Combination {
	if len(dims) == 0 {
		return nil
	}

	combos := []Combination{{}}
	for _, d := range dims {
		if len(d.Values) == 0 {
			return []Combination{}
		}
		next := make([]Combination, 0, len(combos)*len(d.Values))
		for _, prefix := range combos {
			for _, v := range d.Values {
				c := make(Combination, len(prefix)+1)
				copy(c, prefix)
				c[len(prefix)] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}

// Cardinality returns the number of combinations Combinations would produce.
func Cardinality(dims []Dimension) int {
	if len(dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range dims {
		n *= len(d.Values)
	}
	return n
}

// headersFor turns combinations into Headers with keys and labels.
func headersFor(combos []Combination, sep string) []Header {
	headers := make([]Header, len(combos))
	for i, c := range combos {
		headers[i] = Header{Key: c.Key(), Values: c, Label: c.Label(sep)}
	}
	return headers
}

// positionIndex resolves a record's combination position without building
// keys: each field's value index is looked up in its ordered set and the
// positions are combined in mixed radix, first field most significant.
type positionIndex struct {
	sets []*OrderedSet
}

func newPositionIndex(dims []Dimension) positionIndex {
	sets := make([]*OrderedSet, len(dims))
	for i, d := range dims {
		s := NewOrderedSet()
		for _, v := range d.Values {
			s.Add(v)
		}
		sets[i] = s
	}
	return positionIndex{sets: sets}
}

// locate returns the combination index for the given per-field values,
// or -1 if any value is outside its field's universe.
func (p positionIndex) locate(values []Value) int {
	pos := 0
	for i, s := range p.sets {
		j := s.Index(values[i])
		if j < 0 {
			return -1
		}
		pos = pos*s.Len() + j
	}
	return pos
}
