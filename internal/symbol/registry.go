package symbol

// UnknownName is returned by Registry.Name for symbols without an entry.
const UnknownName = "Unknown Symbol"

// Entry describes a symbol for display.
type Entry struct {
	Symbol      Symbol
	Name        string
	Description string
}

// Registry is the static catalog of known symbols.
// It is built once at start and never mutated afterwards.
type Registry struct {
	basic   []Symbol
	entries map[Symbol]Entry
	order   []Symbol
}

// NewRegistry builds a registry. The first entry for a symbol wins.
func NewRegistry(basic []Symbol, entries []Entry) *Registry {
	r := &Registry{
		basic:   make([]Symbol, len(basic)),
		entries: make(map[Symbol]Entry, len(entries)),
	}
	copy(r.basic, basic)
	for _, e := range entries {
		if _, ok := r.entries[e.Symbol]; ok {
			continue
		}
		r.entries[e.Symbol] = e
		r.order = append(r.order, e.Symbol)
	}
	return r
}

// Basic returns the always-available symbols.
func (r *Registry) Basic() []Symbol {
	out := make([]Symbol, len(r.basic))
	copy(out, r.basic)
	return out
}

// IsBasic reports whether sym is always available.
func (r *Registry) IsBasic(sym Symbol) bool {
	for _, b := range r.basic {
		if b == sym {
			return true
		}
	}
	return false
}

// Lookup returns the entry for sym.
func (r *Registry) Lookup(sym Symbol) (Entry, bool) {
	e, ok := r.entries[sym]
	return e, ok
}

// Name returns the display name of sym. Fused symbols are named after
// their parts.
func (r *Registry) Name(sym Symbol) string {
	if e, ok := r.entries[sym]; ok && e.Name != "" {
		return e.Name
	}
	if left, right, ok := sym.Parts(); ok {
		if sym.IsEvolution() {
			return "Evolved " + r.Name(left)
		}
		return "Fusion of " + r.Name(left) + " and " + r.Name(right)
	}
	return UnknownName
}

// Describe returns the description of sym, or "" if none is known.
func (r *Registry) Describe(sym Symbol) string {
	return r.entries[sym].Description
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, sym := range r.order {
		out = append(out, r.entries[sym])
	}
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.order)
}
