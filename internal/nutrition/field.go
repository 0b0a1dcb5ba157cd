package nutrition

// Outcome records how a single field was resolved while reading model output.
type Outcome int

const (
	// Missing means no pattern matched the field.
	Missing Outcome = iota
	// Extracted means a pattern matched and the value passed its sanity bound.
	Extracted
	// OutOfBounds means a value was found but rejected by its sanity bound.
	OutOfBounds
)

func (o Outcome) String() string {
	switch o {
	case Extracted:
		return "extracted"
	case OutOfBounds:
		return "out_of_bounds"
	default:
		return "missing"
	}
}

// Field is one extracted value together with how it was obtained. Value is
// only meaningful when Outcome is Extracted.
type Field[T any] struct {
	Value   T
	Outcome Outcome
}

func found[T any](v T) Field[T] {
	return Field[T]{Value: v, Outcome: Extracted}
}

// OK reports whether the field was extracted.
func (f Field[T]) OK() bool {
	return f.Outcome == Extracted
}

// Or returns the extracted value, or def when the field is missing or out of bounds.
func (f Field[T]) Or(def T) T {
	if f.OK() {
		return f.Value
	}
	return def
}

// merge keeps the strongest outcome seen so far: an extracted value wins,
// and a rejected value is remembered over a plain miss.
func merge[T any](a, b Field[T]) Field[T] {
	if a.OK() || b.Outcome == Missing {
		return a
	}
	if b.OK() || a.Outcome == Missing {
		return b
	}
	return a
}
