package queryexpr

// Params holds parameter bindings keyed by name or by position.
//
// The zero value is an empty binding set. An empty set keeps a compilation
// re-bindable; any substituted value makes the text specific to those values.
type Params struct {
	Named      map[string]any
	Positional map[int]any
}

// NewParams creates an empty binding set.
func NewParams() Params {
	return Params{
		Named:      make(map[string]any),
		Positional: make(map[int]any),
	}
}

// Bind sets a named parameter and returns the receiver for chaining.
func (p Params) Bind(name string, value any) Params {
	if p.Named == nil {
		p.Named = make(map[string]any)
	}
	p.Named[name] = value
	return p
}

// BindPos sets a positional parameter and returns the receiver for chaining.
func (p Params) BindPos(pos int, value any) Params {
	if p.Positional == nil {
		p.Positional = make(map[int]any)
	}
	p.Positional[pos] = value
	return p
}

// Len returns the total number of bindings.
func (p Params) Len() int {
	return len(p.Named) + len(p.Positional)
}

// Lookup returns the value bound to name.
func (p Params) Lookup(name string) (any, bool) {
	v, ok := p.Named[name]
	return v, ok
}

// LookupPos returns the value bound to position pos.
func (p Params) LookupPos(pos int) (any, bool) {
	v, ok := p.Positional[pos]
	return v, ok
}
