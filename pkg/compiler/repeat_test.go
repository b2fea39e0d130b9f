package compiler

import (
	"strings"
	"testing"

	"github.com/vango-dev/vbind/pkg/reactive"
)

func items(e *env, field string) *reactive.Array {
	return e.model.Get(field).(*reactive.Array)
}

func expectTexts(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRepeatInitialRender(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x", "y"},
	}, nil)
	if got := e.html(); got != "<ul><li>x</li><li>y</li><!--v-for--></ul>" {
		t.Fatalf("unexpected %q", got)
	}
	if e.rec.last() != strategyInitial {
		t.Errorf("expected initial, got %q", e.rec.last())
	}
}

func TestRepeatPushKeepsExistingBlocks(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x", "y"},
	}, nil)
	before := e.findAll("li")

	items(e, "items").Push("z")
	expectTexts(t, e.texts("li"), "x", "y", "z")
	after := e.findAll("li")
	if after[0] != before[0] || after[1] != before[1] {
		t.Error("expected existing blocks to be kept")
	}
	if e.rec.last() != strategyPush {
		t.Errorf("expected push, got %q", e.rec.last())
	}
}

func TestRepeatShiftRemapsIndexes(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item.text }}</li></ul>`, map[string]any{
		"items": []any{
			map[string]any{"text": "x"},
			map[string]any{"text": "y"},
			map[string]any{"text": "z"},
		},
	}, nil)
	before := e.findAll("li")

	list := items(e, "items")
	list.Shift()
	expectTexts(t, e.texts("li"), "y", "z")
	after := e.findAll("li")
	if after[0] != before[1] || after[1] != before[2] {
		t.Error("expected surviving blocks to be kept")
	}
	if e.rec.last() != strategyShift {
		t.Errorf("expected shift, got %q", e.rec.last())
	}

	// The callbacks of z's block now live under index 1.
	if n := e.w.CountAt("items*1*text"); n != 1 {
		t.Errorf("expected 1 subscription at items*1*text, got %d", n)
	}
	if n := e.w.CountAt("items*2*text"); n != 0 {
		t.Errorf("expected no subscription at items*2*text, got %d", n)
	}

	list.Get(1).(*reactive.Object).Set("text", "Z")
	list.Get(0).(*reactive.Object).Set("text", "Y")
	expectTexts(t, e.texts("li"), "Y", "Z")
}

func TestRepeatUnshiftRemapsIndexes(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ $index }}:{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x", "y"},
	}, nil)
	before := e.findAll("li")

	items(e, "items").Unshift("v", "w")
	expectTexts(t, e.texts("li"), "0:v", "1:w", "2:x", "3:y")
	after := e.findAll("li")
	if after[2] != before[0] || after[3] != before[1] {
		t.Error("expected existing blocks to be kept")
	}
	if e.rec.last() != strategyUnshift {
		t.Errorf("expected unshift, got %q", e.rec.last())
	}

	items(e, "items").Set(3, "Y")
	expectTexts(t, e.texts("li"), "0:v", "1:w", "2:x", "3:Y")
}

func TestRepeatPop(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x", "y", "z"},
	}, nil)
	bindings := e.c.Bindings()

	items(e, "items").Pop()
	if got := e.html(); got != "<ul><li>x</li><li>y</li><!--v-for--></ul>" {
		t.Errorf("unexpected %q", got)
	}
	if e.rec.last() != strategyPop {
		t.Errorf("expected pop, got %q", e.rec.last())
	}
	if e.c.Bindings() != bindings-1 {
		t.Errorf("expected %d bindings, got %d", bindings-1, e.c.Bindings())
	}
}

func TestRepeatSpliceRebuilds(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x", "y", "z"},
	}, nil)
	before := e.findAll("li")

	items(e, "items").Splice(1, 1, "Y")
	expectTexts(t, e.texts("li"), "x", "Y", "z")
	if e.findAll("li")[0] == before[0] {
		t.Error("expected every block to be rebuilt")
	}
	if e.rec.last() != strategyRebuild {
		t.Errorf("expected rebuild, got %q", e.rec.last())
	}
}

func TestRepeatSortAndReverseRebuild(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"b", "c", "a"},
	}, nil)

	items(e, "items").Sort(func(x, y any) bool { return x.(string) < y.(string) })
	expectTexts(t, e.texts("li"), "a", "b", "c")
	items(e, "items").Reverse()
	expectTexts(t, e.texts("li"), "c", "b", "a")
	if e.rec.last() != strategyRebuild {
		t.Errorf("expected rebuild, got %q", e.rec.last())
	}
}

func TestRepeatElementReplacement(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x", "y", "z"},
	}, nil)
	before := e.findAll("li")

	items(e, "items").Set(1, "Y")
	expectTexts(t, e.texts("li"), "x", "Y", "z")
	if e.findAll("li")[1] != before[1] {
		t.Error("expected the block to be updated in place")
	}
	if len(e.rec.strategies) != 1 {
		t.Errorf("expected no list patch, got %v", e.rec.strategies)
	}
}

func TestRepeatSequenceReassigned(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x"},
	}, nil)

	e.model.Set("items", []any{"a", "b"})
	expectTexts(t, e.texts("li"), "a", "b")

	// The new sequence gets the fast paths too.
	items(e, "items").Push("c")
	expectTexts(t, e.texts("li"), "a", "b", "c")
	if e.rec.last() != strategyPush {
		t.Errorf("expected push, got %q", e.rec.last())
	}

	e.model.Set("items", nil)
	if got := e.html(); got != "<ul><!--v-for--></ul>" {
		t.Errorf("unexpected %q", got)
	}
}

func TestRepeatEmptyThenPush(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{},
	}, nil)
	items(e, "items").Push("a")
	items(e, "items").Unshift("z")
	expectTexts(t, e.texts("li"), "z", "a")
	items(e, "items").Shift()
	items(e, "items").Pop()
	items(e, "items").Pop()
	if got := e.html(); got != "<ul><!--v-for--></ul>" {
		t.Errorf("unexpected %q", got)
	}
}

func TestRepeatNumericRange(t *testing.T) {
	e := setup(t, `<p><span v-for="n in count">{{ n }}</span></p>`, map[string]any{"count": 3}, nil)
	expectTexts(t, e.texts("span"), "0", "1", "2")
	e.model.Set("count", 1)
	expectTexts(t, e.texts("span"), "0")
}

func TestRepeatMultipleNodesPerBlock(t *testing.T) {
	e := setup(t, `<dl><div v-for="p in pairs"><dt>{{ p.k }}</dt><dd>{{ p.v }}</dd></div></dl>`, map[string]any{
		"pairs": []any{
			map[string]any{"k": "a", "v": 1},
			map[string]any{"k": "b", "v": 2},
		},
	}, nil)
	items(e, "pairs").Shift()
	expectTexts(t, e.texts("dt"), "b")
	expectTexts(t, e.texts("dd"), "2")
}

func TestNestedRepeatParentIndex(t *testing.T) {
	e := setup(t,
		`<div v-for="g in groups"><span v-for="i in g.items">{{ $parent.$index }}-{{ $index }}:{{ i }}</span></div>`,
		map[string]any{
			"groups": []any{
				map[string]any{"items": []any{"a", "b"}},
				map[string]any{"items": []any{"c"}},
			},
		}, nil)
	expectTexts(t, e.texts("span"), "0-0:a", "0-1:b", "1-0:c")

	items(e, "groups").Unshift(map[string]any{"items": []any{"z"}})
	expectTexts(t, e.texts("span"), "0-0:z", "1-0:a", "1-1:b", "2-0:c")

	// Inner sequences keep working after the outer remap.
	inner := items(e, "groups").Get(1).(*reactive.Object).Get("items").(*reactive.Array)
	inner.Shift()
	expectTexts(t, e.texts("span"), "0-0:z", "1-0:b", "2-0:c")
}

func TestRepeatOuterAliasInInnerBlock(t *testing.T) {
	e := setup(t,
		`<div v-for="g in groups"><b v-for="i in g.items">{{ g.name }}.{{ i }}</b></div>`,
		map[string]any{
			"groups": []any{
				map[string]any{"name": "g0", "items": []any{"a"}},
			},
		}, nil)
	expectTexts(t, e.texts("b"), "g0.a")
	items(e, "groups").Get(0).(*reactive.Object).Set("name", "G")
	expectTexts(t, e.texts("b"), "G.a")
}

func TestRepeatSharedElement(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item.text }}</li></ul>`, map[string]any{
		"items": []any{},
	}, nil)
	shared := reactive.ObjectFrom(map[string]any{"text": "old"})
	items(e, "items").Push(shared, shared)
	expectTexts(t, e.texts("li"), "old", "old")

	shared.Set("text", "new")
	expectTexts(t, e.texts("li"), "new", "new")
}

func TestRepeatSharedElementAfterShift(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item.text }}</li></ul>`, map[string]any{
		"items": []any{},
	}, nil)
	a := reactive.ObjectFrom(map[string]any{"text": "a"})
	b := reactive.ObjectFrom(map[string]any{"text": "b"})
	list := items(e, "items")
	list.Push(a, b, a)

	list.Shift()
	expectTexts(t, e.texts("li"), "b", "a")
	if e.rec.last() != strategyRebuild {
		t.Errorf("expected rebuild, got %q", e.rec.last())
	}

	a.Set("text", "Z")
	expectTexts(t, e.texts("li"), "b", "Z")
}

func TestRepeatSharedElementAfterUnshift(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item.text }}</li></ul>`, map[string]any{
		"items": []any{},
	}, nil)
	a := reactive.ObjectFrom(map[string]any{"text": "a"})
	list := items(e, "items")
	list.Push(a)

	list.Unshift(a)
	expectTexts(t, e.texts("li"), "a", "a")

	a.Set("text", "Z")
	expectTexts(t, e.texts("li"), "Z", "Z")
}

func TestRepeatDistinctElementsKeepFastPath(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item.text }}</li></ul>`, map[string]any{
		"items": []any{map[string]any{"text": "a"}, map[string]any{"text": "b"}},
	}, nil)
	list := items(e, "items")
	list.Unshift(map[string]any{"text": "c"})
	if e.rec.last() != strategyUnshift {
		t.Errorf("expected unshift, got %q", e.rec.last())
	}
	list.Shift()
	if e.rec.last() != strategyShift {
		t.Errorf("expected shift, got %q", e.rec.last())
	}
	expectTexts(t, e.texts("li"), "a", "b")
}

func TestRepeatDisposeClearsBlocks(t *testing.T) {
	e := setup(t, `<ul><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"items": []any{"x", "y"},
	}, nil)
	e.owner.Dispose()
	if got := e.html(); got != "<ul><!--v-for--></ul>" {
		t.Errorf("unexpected %q", got)
	}
	if e.c.Bindings() != 0 {
		t.Errorf("expected 0 bindings, got %d", e.c.Bindings())
	}
	items(e, "items").Push("z")
	if got := e.html(); got != "<ul><!--v-for--></ul>" {
		t.Errorf("expected disposed list to stay inert, got %q", got)
	}
}

func TestRepeatInsideIf(t *testing.T) {
	e := setup(t, `<ul v-if="on"><li v-for="item in items">{{ item }}</li></ul>`, map[string]any{
		"on": true, "items": []any{"x"},
	}, nil)
	expectTexts(t, e.texts("li"), "x")
	e.model.Set("on", false)
	items(e, "items").Push("y")
	e.model.Set("on", true)
	expectTexts(t, e.texts("li"), "x", "y")
}
