// Package expr is the restricted expression evaluator used by bindings.
//
// Expressions are small JavaScript expressions compiled once by goja into a
// function of the model and a synthetic scope. The model is exposed through
// dynamic objects whose property reads go through the reactive accessors,
// which is how bindings discover the fields they depend on.
//
// Assignment, declarations and constructs that create functions or objects
// with behavior are rejected at compile time:
//
//	ev := expr.New(obs, model)
//	x, err := ev.Compile("user.first + ' ' + user.last")
//	v, err := x.Eval(nil)
//
// Inside a repeat block, the scope exposes the loop alias, $index and
// $parent. Handler arguments may also use $event.
package expr
