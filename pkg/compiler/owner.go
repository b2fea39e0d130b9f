package compiler

// Owner is a disposal scope. Bindings, listeners and nested repeat blocks
// register cleanups with the owner they were compiled under; disposing an
// owner releases all of them and every child owner.
//
// Owners form a hierarchy that mirrors the compiled structure: the engine
// holds the root owner, each v-if branch and each repeat block gets a child.
type Owner struct {
	parent   *Owner
	children []*Owner
	cleanups []func()
	disposed bool
}

// NewOwner creates an Owner registered as a child of parent. A nil parent
// creates a root Owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{parent: parent}
	if parent != nil {
		parent.children = append(parent.children, o)
	}
	return o
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// Disposed reports whether Dispose has run.
func (o *Owner) Disposed() bool {
	return o.disposed
}

// OnCleanup registers fn to run when the owner is disposed. On a disposed
// owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
}

// Dispose removes the owner from its parent, disposes children in reverse
// order and then runs cleanups in reverse order. Safe to call more than once.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	children := o.children
	o.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	cleanups := o.cleanups
	o.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (o *Owner) removeChild(child *Owner) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}
