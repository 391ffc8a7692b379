package queryexpr

// Deref returns the value form of pointer node types so that switches over
// node kinds only need the value cases. Nil pointers become nil.
func Deref(e Expr) Expr {
	switch n := e.(type) {
	case *Primary:
		if n == nil {
			return nil
		}
		return *n
	case *Literal:
		if n == nil {
			return nil
		}
		return *n
	case *Parameter:
		if n == nil {
			return nil
		}
		return *n
	case *Dyadic:
		if n == nil {
			return nil
		}
		return *n
	case *Not:
		if n == nil {
			return nil
		}
		return *n
	case *Invoke:
		if n == nil {
			return nil
		}
		return *n
	}
	return e
}
