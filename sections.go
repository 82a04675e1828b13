package wasmast

// SectionType identifies which binary section a node serializes to.
//
// AllowGrouping reports whether consecutive sections of this type may be
// merged into a single binary section. Section types that must stay as one
// binary section per occurrence (nested modules and components, start
// sections, custom sections) return false.
type SectionType interface {
	comparable
	AllowGrouping() bool
}

// Section is a typed AST node stored in a Sections container. Every section
// occupies a position in exactly one index space and serializes to exactly
// one binary section type.
//
// A section's index within its index space is implicit: it is the Nth
// section among all sections sharing that index space, in AST order.
type Section[IS comparable, ST SectionType] interface {
	IndexSpace() IS
	SectionType() ST
}

// Grouped is one run of consecutive sections sharing a section type, as
// emitted into a single binary section.
type Grouped[IS comparable, ST SectionType, S Section[IS, ST]] struct {
	Type     ST
	Sections []S
}

// Sections is an ordered sequence of section nodes.
//
// Nodes are shared and treated as immutable once added; mutation APIs append
// or replace whole nodes, never edit one in place. An append never moves or
// rewrites previously stored nodes, so slices handed out earlier stay valid.
type Sections[IS comparable, ST SectionType, S Section[IS, ST]] struct {
	sections []S
}

// NewSections creates a container from a flat, already ordered section list.
func NewSections[IS comparable, ST SectionType, S Section[IS, ST]](sections ...S) *Sections[IS, ST, S] {
	return &Sections[IS, ST, S]{sections: sections}
}

// FromGrouped creates a container by flattening grouped sections in order.
func FromGrouped[IS comparable, ST SectionType, S Section[IS, ST]](groups []Grouped[IS, ST, S]) *Sections[IS, ST, S] {
	var flat []S
	for _, g := range groups {
		flat = append(flat, g.Sections...)
	}
	return &Sections[IS, ST, S]{sections: flat}
}

// Len returns the number of stored sections.
func (s *Sections[IS, ST, S]) Len() int {
	return len(s.sections)
}

// All returns the stored sections in order. The returned slice must not be
// mutated by the caller.
func (s *Sections[IS, ST, S]) All() []S {
	return s.sections
}

// Add appends a section at the end.
func (s *Sections[IS, ST, S]) Add(section S) {
	s.sections = append(s.sections, section)
}

// AddToLastGroup inserts a section immediately after the last existing
// section of the same section type, or at the end if none exists. This
// preserves binary grouping when incrementally building an AST.
func (s *Sections[IS, ST, S]) AddToLastGroup(section S) {
	st := section.SectionType()
	last := -1
	for i, existing := range s.sections {
		if existing.SectionType() == st {
			last = i
		}
	}
	if last == -1 {
		s.sections = append(s.sections, section)
		return
	}
	s.sections = append(s.sections, section)
	copy(s.sections[last+2:], s.sections[last+1:len(s.sections)-1])
	s.sections[last+1] = section
}

// AddToFirstGroupStart inserts a section immediately before the first
// existing section of the same section type, or at the end if none exists.
func (s *Sections[IS, ST, S]) AddToFirstGroupStart(section S) {
	st := section.SectionType()
	first := -1
	for i, existing := range s.sections {
		if existing.SectionType() == st {
			first = i
			break
		}
	}
	if first == -1 {
		s.sections = append(s.sections, section)
		return
	}
	s.sections = append(s.sections, section)
	copy(s.sections[first+1:], s.sections[first:len(s.sections)-1])
	s.sections[first] = section
}

// ClearGroup removes all sections of the given section type.
func (s *Sections[IS, ST, S]) ClearGroup(st ST) {
	filtered := s.sections[:0:0]
	for _, section := range s.sections {
		if section.SectionType() != st {
			filtered = append(filtered, section)
		}
	}
	s.sections = filtered
}

// Replace substitutes the idx-th section of the given index space. The index
// must exist; Replace reports whether it did.
func (s *Sections[IS, ST, S]) Replace(space IS, idx int, section S) bool {
	n := 0
	for i, existing := range s.sections {
		if existing.IndexSpace() == space {
			if n == idx {
				s.sections[i] = section
				return true
			}
			n++
		}
	}
	return false
}

// Filter returns the sections satisfying the predicate, in order.
func (s *Sections[IS, ST, S]) Filter(pred func(S) bool) []S {
	var result []S
	for _, section := range s.sections {
		if pred(section) {
			result = append(result, section)
		}
	}
	return result
}

// FilterBySectionType returns all sections of one section type, in order.
func (s *Sections[IS, ST, S]) FilterBySectionType(st ST) []S {
	return s.Filter(func(section S) bool { return section.SectionType() == st })
}

// FilterByIndexSpace returns all sections of one index space, in order. The
// Nth returned section is index N in that space.
func (s *Sections[IS, ST, S]) FilterByIndexSpace(space IS) []S {
	return s.Filter(func(section S) bool { return section.IndexSpace() == space })
}

// Indexed returns the sections of one index space keyed by their index.
func (s *Sections[IS, ST, S]) Indexed(space IS) map[uint32]S {
	result := make(map[uint32]S)
	for i, section := range s.FilterByIndexSpace(space) {
		result[uint32(i)] = section
	}
	return result
}

// CountByIndexSpace returns the number of sections in one index space.
func (s *Sections[IS, ST, S]) CountByIndexSpace(space IS) int {
	n := 0
	for _, section := range s.sections {
		if section.IndexSpace() == space {
			n++
		}
	}
	return n
}

// IntoGrouped reconstructs the binary section ordering: consecutive sections
// of one groupable type form a single group, while sections of an
// ungroupable type each form their own group in original position.
func (s *Sections[IS, ST, S]) IntoGrouped() []Grouped[IS, ST, S] {
	var groups []Grouped[IS, ST, S]
	for _, section := range s.sections {
		st := section.SectionType()
		n := len(groups)
		if n > 0 && groups[n-1].Type == st && st.AllowGrouping() {
			groups[n-1].Sections = append(groups[n-1].Sections, section)
			continue
		}
		groups = append(groups, Grouped[IS, ST, S]{Type: st, Sections: []S{section}})
	}
	return groups
}
