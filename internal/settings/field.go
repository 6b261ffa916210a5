package settings

// EditableField holds a draft value next to the last committed baseline.
type EditableField[T any] struct {
	value    T
	baseline T
	equal    func(a, b T) bool
}

// NewField returns a field for a comparable type, compared with ==.
func NewField[T comparable](v T) EditableField[T] {
	return EditableField[T]{value: v, baseline: v, equal: func(a, b T) bool { return a == b }}
}

// NewFieldFunc returns a field compared with the given equality function.
func NewFieldFunc[T any](v T, equal func(a, b T) bool) EditableField[T] {
	return EditableField[T]{value: v, baseline: v, equal: equal}
}

func (f *EditableField[T]) Value() T    { return f.value }
func (f *EditableField[T]) Baseline() T { return f.baseline }

// Set updates the draft value only.
func (f *EditableField[T]) Set(v T) { f.value = v }

// SetBaseline snapshots v as both draft and baseline.
func (f *EditableField[T]) SetBaseline(v T) {
	f.value = v
	f.baseline = v
}

// Reset discards the draft value.
func (f *EditableField[T]) Reset() { f.value = f.baseline }

func (f *EditableField[T]) IsDirty() bool {
	return !f.equal(f.value, f.baseline)
}
