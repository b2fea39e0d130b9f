package reactive

import "sort"

// Array is an observable ordered sequence.
//
// Structural operations (Push, Pop, Unshift, Shift, Splice, Sort, Reverse)
// always emit exactly one Change tagged with the operation name, even when
// nothing moved. Element assignment through Set behaves like Object.Set.
type Array struct {
	items []any
	path  string
	obs   *Observer
}

// NewArray creates an Array holding items.
func NewArray(items ...any) *Array {
	return ArrayFrom(items)
}

// ArrayFrom converts s (recursively) into an Array.
func ArrayFrom(s []any) *Array {
	a := &Array{items: make([]any, len(s))}
	for i, v := range s {
		a.items[i] = Wrap(v)
	}
	return a
}

// Path returns the access path of the sequence.
func (a *Array) Path() string {
	return a.path
}

// Len returns the length and records a dependency on the sequence path.
func (a *Array) Len() int {
	if a.obs != nil {
		a.obs.record(a.path)
	}
	return len(a.items)
}

// Get returns element i (nil when out of range) and records the read.
func (a *Array) Get(i int) any {
	if a.obs != nil {
		a.obs.record(IndexPath(a.path, i))
	}
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Peek returns element i without recording.
func (a *Array) Peek(i int) any {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Items returns a shallow copy of the elements.
func (a *Array) Items() []any {
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

// IndexOf returns the first index holding v, comparing containers by
// identity and scalars by value, or -1.
func (a *Array) IndexOf(v any) int {
	for i, el := range a.items {
		if sameValue(el, v) {
			return i
		}
	}
	return -1
}

// Set assigns element i. Out of range indices are ignored.
func (a *Array) Set(i int, value any) {
	if i < 0 || i >= len(a.items) {
		return
	}
	value = Wrap(value)
	old := a.items[i]
	if sameValue(old, value) {
		return
	}
	a.items[i] = value
	if a.obs != nil {
		path := IndexPath(a.path, i)
		if a.obs.Ignored(path) {
			return
		}
		a.obs.observeValue(value, path)
		a.obs.emit(Change{Path: path, Op: OpSet, New: value, Old: old})
	}
}

// Push appends values and returns the new length.
func (a *Array) Push(values ...any) int {
	for _, v := range values {
		a.items = append(a.items, Wrap(v))
	}
	a.structural(OpPush, values)
	return len(a.items)
}

// Pop removes and returns the last element.
func (a *Array) Pop() any {
	var out any
	var args []any
	if n := len(a.items); n > 0 {
		out = a.items[n-1]
		args = []any{out}
		a.items[n-1] = nil
		a.items = a.items[:n-1]
	}
	a.structural(OpPop, args)
	return out
}

// Unshift prepends values and returns the new length.
func (a *Array) Unshift(values ...any) int {
	head := make([]any, 0, len(values)+len(a.items))
	for _, v := range values {
		head = append(head, Wrap(v))
	}
	a.items = append(head, a.items...)
	a.structural(OpUnshift, values)
	return len(a.items)
}

// Shift removes and returns the first element.
func (a *Array) Shift() any {
	var out any
	var args []any
	if len(a.items) > 0 {
		out = a.items[0]
		args = []any{out}
		a.items = append([]any(nil), a.items[1:]...)
	}
	a.structural(OpShift, args)
	return out
}

// Splice removes deleteCount elements at start, inserts values there and
// returns the removed elements. A negative start counts from the end.
func (a *Array) Splice(start, deleteCount int, values ...any) []any {
	n := len(a.items)
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := append([]any(nil), a.items[start:start+deleteCount]...)
	next := make([]any, 0, n-deleteCount+len(values))
	next = append(next, a.items[:start]...)
	for _, v := range values {
		next = append(next, Wrap(v))
	}
	next = append(next, a.items[start+deleteCount:]...)
	a.items = next

	args := append([]any{start, deleteCount}, values...)
	a.structural(OpSplice, args)
	return removed
}

// Sort sorts the sequence in place with less. The sort is stable.
func (a *Array) Sort(less func(x, y any) bool) {
	sort.SliceStable(a.items, func(i, j int) bool {
		return less(a.items[i], a.items[j])
	})
	a.structural(OpSort, nil)
}

// Reverse reverses the sequence in place.
func (a *Array) Reverse() {
	for i, j := 0, len(a.items)-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
	a.structural(OpReverse, nil)
}

// ToPlain returns a deep copy as []any without recording reads.
func (a *Array) ToPlain() []any {
	out := make([]any, len(a.items))
	for i, v := range a.items {
		out[i] = Plain(v)
	}
	return out
}

func (a *Array) structural(op Op, args []any) {
	if a.obs == nil {
		return
	}
	a.obs.observeElements(a)
	a.obs.emit(Change{Path: a.path, Op: op, New: a, Args: args})
}

// holdsAt reports whether path designates an index of a that holds v.
func (a *Array) holdsAt(path string, v any) bool {
	i, tail, ok := IndexUnder(a.path, path)
	if !ok || tail != "" || i >= len(a.items) {
		return false
	}
	return a.items[i] == v
}
