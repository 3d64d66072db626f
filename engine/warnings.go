package engine

import "fmt"

// warningSet aggregates anomalies per (kind, field), keeping first-seen order.
type warningSet struct {
	index map[warningKey]int
	list  []Warning
}

type warningKey struct {
	kind  WarningKind
	field string
}

func newWarningSet() *warningSet {
	return &warningSet{index: make(map[warningKey]int)}
}

// note records one occurrence at record index rec.
func (s *warningSet) note(kind WarningKind, field string, rec int) {
	s.add(kind, field, 1, rec)
}

func (s *warningSet) add(kind WarningKind, field string, count, first int) {
	k := warningKey{kind: kind, field: field}
	if i, ok := s.index[k]; ok {
		s.list[i].Count += count
		return
	}
	s.index[k] = len(s.list)
	s.list = append(s.list, Warning{Kind: kind, Field: field, Count: count, FirstRecord: first})
}

// warnings returns the collected warnings with messages filled in.
func (s *warningSet) warnings() []Warning {
	if len(s.list) == 0 {
		return nil
	}
	out := make([]Warning, len(s.list))
	for i, w := range s.list {
		w.Message = describe(w)
		out[i] = w
	}
	return out
}

func describe(w Warning) string {
	switch w.Kind {
	case WarnUnknownField:
		return fmt.Sprintf("field %q does not occur in any record; treated as a single null value", w.Field)
	case WarnMissingField:
		return fmt.Sprintf("%d record(s) lack field %q and are grouped under null (first at record %d)",
			w.Count, w.Field, w.FirstRecord)
	case WarnNonNumericMeasure:
		return fmt.Sprintf("%d value(s) of measure %q were not numeric and counted as 0 (first at record %d)",
			w.Count, w.Field, w.FirstRecord)
	default:
		return fmt.Sprintf("%s on field %q", w.Kind, w.Field)
	}
}
