package expr

import (
	"fmt"
	"math"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// Evaluator compiles binding expressions and evaluates them against one
// reactive model. Every model read goes through the tracked accessors, so an
// evaluation run under Observer.Track discovers its dependencies.
//
// An Evaluator is not safe for concurrent use.
type Evaluator struct {
	vm      *goja.Runtime
	obs     *reactive.Observer
	model   *reactive.Object
	root    *goja.Object
	objects map[*reactive.Object]*goja.Object
	arrays  map[*reactive.Array]*goja.Object
	cache   map[string]*Expr
}

// New creates an Evaluator over model.
func New(obs *reactive.Observer, model *reactive.Object) *Evaluator {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	ev := &Evaluator{
		vm:      vm,
		obs:     obs,
		model:   model,
		objects: make(map[*reactive.Object]*goja.Object),
		arrays:  make(map[*reactive.Array]*goja.Object),
		cache:   make(map[string]*Expr),
	}
	ev.root = vm.NewDynamicObject(&objectAdapter{ev: ev, o: model})
	// Keep Object.prototype members out of with-scope lookups.
	ev.root.SetPrototype(nil)
	return ev
}

// Expr is a compiled expression.
type Expr struct {
	Source string
	fn     goja.Callable
	ev     *Evaluator
}

// Compile compiles src once. Subsequent calls with the same source return
// the cached Expr. The error is an E112 or E115 *errors.VangoError.
func (ev *Evaluator) Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if x, ok := ev.cache[src]; ok {
		return x, nil
	}
	if src == "" {
		return nil, errors.New("E115").WithContext("(empty)")
	}
	if err := checkDenied(src); err != nil {
		return nil, errors.New("E112").WithContext(src).Wrap(err)
	}

	prg, err := goja.Parse("expr", "("+src+"\n)")
	if err != nil {
		return nil, errors.New("E115").WithContext(src).Wrap(err)
	}
	if len(prg.Body) != 1 {
		return nil, errors.New("E115").WithContext(src)
	}
	if _, ok := prg.Body[0].(*ast.ExpressionStatement); !ok {
		return nil, errors.New("E115").WithContext(src)
	}

	wrapped := "(function(__m, __s) { with (__m) { with (__s) { return (" + src + "\n); } } })"
	p, err := goja.Compile("expr", wrapped, false)
	if err != nil {
		return nil, errors.New("E115").WithContext(src).Wrap(err)
	}
	v, err := ev.vm.RunProgram(p)
	if err != nil {
		return nil, errors.New("E115").WithContext(src).Wrap(err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errors.New("E115").WithContext(src)
	}

	x := &Expr{Source: src, fn: fn, ev: ev}
	ev.cache[src] = x
	return x, nil
}

// Eval evaluates x with scope (nil outside repeat blocks). Exceptions and
// panics are returned as errors and the value is nil.
func (x *Expr) Eval(scope *Scope) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%s: %v", x.Source, r)
		}
	}()
	res, err := x.fn(goja.Undefined(), x.ev.root, x.ev.scopeValue(scope))
	if err != nil {
		return nil, err
	}
	return x.ev.export(res), nil
}

// Model returns the model the evaluator reads from.
func (ev *Evaluator) Model() *reactive.Object {
	return ev.model
}

// Truthy reports whether v is truthy under JavaScript rules.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case uint:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case float64:
		return x != 0 && !math.IsNaN(x)
	}
	return true
}

func (ev *Evaluator) toJS(v any) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Null()
	case *reactive.Object:
		return ev.object(x)
	case *reactive.Array:
		return ev.array(x)
	}
	return ev.vm.ToValue(v)
}

func (ev *Evaluator) export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return unwrap(v.Export())
}

// unwrap replaces exported adapters by the reactive values they front.
func unwrap(v any) any {
	switch x := v.(type) {
	case *objectAdapter:
		return x.o
	case *arrayAdapter:
		return x.a
	case map[string]any:
		for k, el := range x {
			x[k] = unwrap(el)
		}
	case []any:
		for i, el := range x {
			x[i] = unwrap(el)
		}
	}
	return v
}

func (ev *Evaluator) object(o *reactive.Object) *goja.Object {
	if o == ev.model {
		return ev.root
	}
	if w, ok := ev.objects[o]; ok {
		return w
	}
	w := ev.vm.NewDynamicObject(&objectAdapter{ev: ev, o: o})
	ev.objects[o] = w
	return w
}

func (ev *Evaluator) array(a *reactive.Array) *goja.Object {
	if w, ok := ev.arrays[a]; ok {
		return w
	}
	w := ev.vm.NewDynamicArray(&arrayAdapter{ev: ev, a: a})
	ev.arrays[a] = w
	return w
}

func (ev *Evaluator) scopeValue(s *Scope) *goja.Object {
	w := ev.vm.NewDynamicObject(&scopeAdapter{ev: ev, s: s})
	w.SetPrototype(nil)
	return w
}

type objectAdapter struct {
	ev *Evaluator
	o  *reactive.Object
}

func (a *objectAdapter) Get(key string) goja.Value {
	v := a.o.Get(key)
	if v == nil && !a.o.Has(key) {
		return nil
	}
	return a.ev.toJS(v)
}

func (a *objectAdapter) Set(key string, val goja.Value) bool {
	a.o.Set(key, a.ev.export(val))
	return true
}

func (a *objectAdapter) Has(key string) bool {
	return a.o.Has(key)
}

func (a *objectAdapter) Delete(key string) bool {
	a.o.Delete(key)
	return true
}

func (a *objectAdapter) Keys() []string {
	return a.o.Keys()
}

type arrayAdapter struct {
	ev *Evaluator
	a  *reactive.Array
}

func (a *arrayAdapter) Len() int {
	return a.a.Len()
}

func (a *arrayAdapter) Get(idx int) goja.Value {
	if idx < 0 || idx >= a.a.Len() {
		return nil
	}
	return a.ev.toJS(a.a.Get(idx))
}

func (a *arrayAdapter) Set(idx int, val goja.Value) bool {
	switch n := a.a.Len(); {
	case idx >= 0 && idx < n:
		a.a.Set(idx, a.ev.export(val))
	case idx == n:
		a.a.Push(a.ev.export(val))
	default:
		return false
	}
	return true
}

func (a *arrayAdapter) SetLen(n int) bool {
	cur := a.a.Len()
	switch {
	case n < 0:
		return false
	case n < cur:
		a.a.Splice(n, cur-n)
	case n > cur:
		a.a.Push(make([]any, n-cur)...)
	}
	return true
}

type scopeAdapter struct {
	ev *Evaluator
	s  *Scope
}

func (a *scopeAdapter) Get(key string) goja.Value {
	s := a.s
	switch key {
	case Event:
		if s == nil {
			return nil
		}
		return a.ev.vm.ToValue(s.Event)
	case Index:
		if s == nil || s.Array == nil {
			return nil
		}
		a.ev.obs.RecordIndex(s.Key())
		return a.ev.vm.ToValue(s.Index)
	case Parent:
		if s == nil || s.Parent == nil {
			return nil
		}
		return a.ev.scopeValue(s.Parent)
	}
	if owner := s.Lookup(key); owner != nil {
		return a.ev.toJS(owner.Value())
	}
	return nil
}

func (a *scopeAdapter) Set(string, goja.Value) bool { return false }

func (a *scopeAdapter) Has(key string) bool {
	switch key {
	case Event, Index, Parent:
		return true
	}
	return a.s.Lookup(key) != nil
}

func (a *scopeAdapter) Delete(string) bool { return false }

func (a *scopeAdapter) Keys() []string {
	var keys []string
	for x := a.s; x != nil; x = x.Parent {
		if x.Array != nil {
			keys = append(keys, x.Alias)
		}
	}
	return append(keys, Event, Index, Parent)
}
