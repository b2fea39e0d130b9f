// Package vbind is a reactive data-binding engine for HTML documents.
//
// An Engine observes a keyed model, compiles directive-annotated markup
// against it and keeps the nodes in sync with every later mutation:
//
//	doc, _ := html.Parse(strings.NewReader(`<ul id="app">
//	    <li v-for="item in items">{{ item.text }}</li>
//	</ul>`))
//	root := dom.FindByID(doc, "app")
//
//	e, err := vbind.New(root, map[string]any{
//	    "items": []any{map[string]any{"text": "x"}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	e.Model().Get("items").(*reactive.Array).Push(map[string]any{"text": "y"})
//
// # Markup
//
//	{{ expr }}                 escaped text
//	{{{ expr }}}               raw markup (must be alone in its text node)
//	v-text, v-html             element content
//	v-show, v-if, v-else       visibility
//	v-bind:attr, v-bind="{}"   attributes, with class/style flag objects
//	v-on:event.mods            listeners (self, stop, prevent, capture)
//	v-model                    two-way form binding
//	v-for="alias in expr"      repeated blocks
//	v-el="field"               node capture
//	v-pre                      skip compilation
//
// Expressions may use $event, $index and $parent.
//
// # Errors
//
// Every problem is a coded *errors.VangoError delivered through one
// reporter. Only construction errors (E100, E101) fail New; compile and
// runtime errors are reported and the engine keeps working.
package vbind
