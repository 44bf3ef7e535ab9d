package symbol

// Set is an insertion-ordered, duplicate-free collection of symbols.
//
// A nil *Set is a valid empty set for every read method, which lets pure
// functions accept "nothing discovered yet" without allocating.
type Set struct {
	order []Symbol
	index map[Symbol]struct{}
}

// NewSet builds a set from syms, dropping duplicates and zero symbols.
func NewSet(syms ...Symbol) *Set {
	s := &Set{index: make(map[Symbol]struct{}, len(syms))}
	for _, sym := range syms {
		s.Add(sym)
	}
	return s
}

// SetOf builds a set from canonical strings, as stored in a profile.
func SetOf(items []string) *Set {
	return NewSet(List(items)...)
}

// Add inserts sym and reports whether it was new.
func (s *Set) Add(sym Symbol) bool {
	if sym.IsZero() {
		return false
	}
	if s.index == nil {
		s.index = make(map[Symbol]struct{})
	}
	if _, ok := s.index[sym]; ok {
		return false
	}
	s.index[sym] = struct{}{}
	s.order = append(s.order, sym)
	return true
}

// Has reports membership.
func (s *Set) Has(sym Symbol) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[sym]
	return ok
}

// HasAll reports whether every symbol of syms is a member.
// An empty syms is trivially contained.
func (s *Set) HasAll(syms []Symbol) bool {
	for _, sym := range syms {
		if !s.Has(sym) {
			return false
		}
	}
	return true
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Symbols returns the members in insertion order. The slice is a copy.
func (s *Set) Symbols() []Symbol {
	if s == nil {
		return []Symbol{}
	}
	out := make([]Symbol, len(s.order))
	copy(out, s.order)
	return out
}

// Strings returns the canonical strings of the members in insertion order.
func (s *Set) Strings() []string {
	if s == nil {
		return []string{}
	}
	return Strings(s.order)
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	if s == nil {
		return NewSet()
	}
	return NewSet(s.order...)
}

// With returns a copy of s that also contains syms.
func (s *Set) With(syms ...Symbol) *Set {
	c := s.Clone()
	for _, sym := range syms {
		c.Add(sym)
	}
	return c
}
