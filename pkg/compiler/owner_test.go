package compiler

import (
	"strings"
	"testing"
)

func TestOwnerDisposeOrder(t *testing.T) {
	var order []string
	root := NewOwner(nil)
	root.OnCleanup(func() { order = append(order, "root1") })
	root.OnCleanup(func() { order = append(order, "root2") })

	a := NewOwner(root)
	a.OnCleanup(func() { order = append(order, "a") })
	b := NewOwner(root)
	b.OnCleanup(func() { order = append(order, "b") })
	NewOwner(b).OnCleanup(func() { order = append(order, "b.child") })

	root.Dispose()
	want := "b.child,b,a,root2,root1"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if !a.Disposed() || !b.Disposed() {
		t.Error("expected children to be disposed")
	}
}

func TestOwnerDisposeDetachesFromParent(t *testing.T) {
	root := NewOwner(nil)
	calls := 0
	child := NewOwner(root)
	child.OnCleanup(func() { calls++ })

	child.Dispose()
	child.Dispose()
	root.Dispose()
	if calls != 1 {
		t.Errorf("expected 1 cleanup call, got %d", calls)
	}
	if child.Parent() != root {
		t.Error("expected parent to be kept")
	}
}

func TestOwnerCleanupAfterDispose(t *testing.T) {
	o := NewOwner(nil)
	o.Dispose()
	ran := false
	o.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("expected cleanup to run immediately on a disposed owner")
	}
}
