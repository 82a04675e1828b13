package wasmast

import "sync"

// SectionCache is a lazily populated, invalidatable projection of all
// sections of one section type into a target type T. It avoids re-scanning
// the full section list on every typed accessor call.
//
// The cache must be invalidated whenever the underlying Sections container
// is mutated. Population is guarded by a mutex so concurrent readers over an
// otherwise unchanging container are safe.
type SectionCache[T any, IS comparable, ST SectionType, S Section[IS, ST]] struct {
	mu      sync.Mutex
	valid   bool
	items   []T
	kind    ST
	convert func(S) T
}

// NewSectionCache creates a cache over sections of the given type, projected
// through convert.
func NewSectionCache[T any, IS comparable, ST SectionType, S Section[IS, ST]](kind ST, convert func(S) T) *SectionCache[T, IS, ST, S] {
	return &SectionCache[T, IS, ST, S]{kind: kind, convert: convert}
}

// All returns the projected sections, populating the cache on first use.
func (c *SectionCache[T, IS, ST, S]) All(sections *Sections[IS, ST, S]) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		matching := sections.FilterBySectionType(c.kind)
		c.items = make([]T, len(matching))
		for i, section := range matching {
			c.items[i] = c.convert(section)
		}
		c.valid = true
	}
	return c.items
}

// Count returns the number of cached sections.
func (c *SectionCache[T, IS, ST, S]) Count(sections *Sections[IS, ST, S]) int {
	return len(c.All(sections))
}

// Invalidate drops the cached projection. The next All call repopulates it.
func (c *SectionCache[T, IS, ST, S]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	c.items = nil
}

// SectionIndex is a lazily populated, invalidatable index-space lookup over
// a Sections container.
type SectionIndex[IS comparable, ST SectionType, S Section[IS, ST]] struct {
	mu    sync.Mutex
	valid bool
	space IS
	items []S
}

// NewSectionIndex creates an index over one index space.
func NewSectionIndex[IS comparable, ST SectionType, S Section[IS, ST]](space IS) *SectionIndex[IS, ST, S] {
	return &SectionIndex[IS, ST, S]{space: space}
}

func (i *SectionIndex[IS, ST, S]) populate(sections *Sections[IS, ST, S]) {
	if !i.valid {
		i.items = sections.FilterByIndexSpace(i.space)
		i.valid = true
	}
}

// Get returns the section at the given index-space position.
func (i *SectionIndex[IS, ST, S]) Get(sections *Sections[IS, ST, S], idx uint32) (S, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.populate(sections)
	if int(idx) >= len(i.items) {
		var zero S
		return zero, false
	}
	return i.items[idx], true
}

// Count returns the number of sections in the index space.
func (i *SectionIndex[IS, ST, S]) Count(sections *Sections[IS, ST, S]) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.populate(sections)
	return len(i.items)
}

// Invalidate drops the index. The next access repopulates it.
func (i *SectionIndex[IS, ST, S]) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.valid = false
	i.items = nil
}
