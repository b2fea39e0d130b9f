package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Severity Severity
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Construction Errors (E100-E109)
	// ============================================

	"E100": {
		Category: CategoryConstruction,
		Severity: SeverityError,
		Message:  "Model must be an object",
		Detail:   "The engine observes a keyed model. Pass a map, a JSON-encodable struct or a *reactive.Object.",
		DocURL:   "https://vbind.dev/docs/errors/E100",
	},
	"E101": {
		Category: CategoryConstruction,
		Severity: SeverityError,
		Message:  "Root must be an element or document node",
		Detail:   "Bindings are compiled from the children of the mount node, which must be an element or a document.",
		DocURL:   "https://vbind.dev/docs/errors/E101",
	},
	"E102": {
		Category: CategoryConstruction,
		Severity: SeverityError,
		Message:  "Engine destroyed",
		Detail:   "The engine has been destroyed and released its model. Create a new engine.",
		DocURL:   "https://vbind.dev/docs/errors/E102",
	},

	// ============================================
	// Compile Errors (E110-E119)
	// ============================================

	"E110": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Unknown directive",
		Detail:   "The attribute uses the directive prefix but names no known directive. It was removed and ignored.",
		DocURL:   "https://vbind.dev/docs/errors/E110",
	},
	"E111": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Raw markup shares a text node with literal text",
		Detail:   "A {{{ }}} marker must be the only content of its text node. Wrap it in its own element.",
		DocURL:   "https://vbind.dev/docs/errors/E111",
	},
	"E112": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Disallowed keyword in expression",
		Detail:   "Binding expressions may not assign, declare or construct. Move the logic into a handler.",
		DocURL:   "https://vbind.dev/docs/errors/E112",
	},
	"E113": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Malformed repeat expression",
		Detail:   "v-for expects \"alias in expression\".",
		DocURL:   "https://vbind.dev/docs/errors/E113",
	},
	"E114": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Element capture outside the current loop scope",
		Detail:   "Inside a repeat block v-el may only target a field of the current loop variable.",
		DocURL:   "https://vbind.dev/docs/errors/E114",
	},
	"E115": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Invalid expression",
		Detail:   "The expression could not be parsed.",
		DocURL:   "https://vbind.dev/docs/errors/E115",
	},
	"E116": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Expression is not assignable",
		Detail:   "v-model needs a property path such as user.name or item.done.",
		DocURL:   "https://vbind.dev/docs/errors/E116",
	},
	"E117": {
		Category: CategoryCompile,
		Severity: SeverityWarning,
		Message:  "Unknown event handler",
		Detail:   "The handler is neither a registered method nor a model field holding a handler.",
		DocURL:   "https://vbind.dev/docs/errors/E117",
	},

	// ============================================
	// Runtime Errors (E200-E209)
	// ============================================

	"E200": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Expression evaluation failed",
		Detail:   "The expression threw against the current model. The bound value is treated as undefined for this pass.",
		DocURL:   "https://vbind.dev/docs/errors/E200",
	},
	"E201": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Subscriber panicked",
		Detail:   "A change callback panicked. The remaining subscribers were still notified.",
		DocURL:   "https://vbind.dev/docs/errors/E201",
	},
	"E202": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Event handler failed",
		Detail:   "An event handler panicked or its arguments could not be evaluated.",
		DocURL:   "https://vbind.dev/docs/errors/E202",
	},

	// ============================================
	// Subscription Errors (E300-E309)
	// ============================================

	"E300": {
		Category: CategorySubscription,
		Severity: SeverityWarning,
		Message:  "Field does not exist",
		Detail:   "Only existing top-level fields can be watched. Set the field first or watch a deep access path.",
		DocURL:   "https://vbind.dev/docs/errors/E300",
	},
	"E301": {
		Category: CategorySubscription,
		Severity: SeverityWarning,
		Message:  "Field name contains the path delimiter",
		Detail:   "The '*' character separates access path segments and cannot appear in a field name.",
		DocURL:   "https://vbind.dev/docs/errors/E301",
	},

	// ============================================
	// Config / Source / CLI Errors (E400-E429)
	// ============================================

	"E400": {
		Category: CategoryConfig,
		Severity: SeverityError,
		Message:  "Invalid configuration",
		Detail:   "The vbind.json file could not be parsed or failed validation.",
		DocURL:   "https://vbind.dev/docs/errors/E400",
	},
	"E401": {
		Category: CategoryConfig,
		Severity: SeverityError,
		Message:  "Configuration not found",
		Detail:   "No vbind.json exists in the directory or any parent.",
		DocURL:   "https://vbind.dev/docs/errors/E401",
	},
	"E410": {
		Category: CategorySource,
		Severity: SeverityError,
		Message:  "Source not found",
		Detail:   "The template or model source could not be read.",
		DocURL:   "https://vbind.dev/docs/errors/E410",
	},
	"E411": {
		Category: CategorySource,
		Severity: SeverityError,
		Message:  "Unsupported source scheme",
		Detail:   "Sources are local paths, file:// or s3:// URLs.",
		DocURL:   "https://vbind.dev/docs/errors/E411",
	},
	"E412": {
		Category: CategorySource,
		Severity: SeverityError,
		Message:  "Model could not be decoded",
		Detail:   "Model files must be JSON or YAML documents with an object at the top level.",
		DocURL:   "https://vbind.dev/docs/errors/E412",
	},
	"E420": {
		Category: CategoryCLI,
		Severity: SeverityError,
		Message:  "Mount node not found",
		Detail:   "No element with the configured id exists in the template.",
		DocURL:   "https://vbind.dev/docs/errors/E420",
	},
	"E421": {
		Category: CategoryCLI,
		Severity: SeverityError,
		Message:  "Session rejected",
		Detail:   "The live server refused to open a session for this connection.",
		DocURL:   "https://vbind.dev/docs/errors/E421",
	},
	"E422": {
		Category: CategoryCLI,
		Severity: SeverityWarning,
		Message:  "Unknown event target",
		Detail:   "The client addressed a node that is no longer mounted. The view is sent again.",
		DocURL:   "https://vbind.dev/docs/errors/E422",
	},
	"E423": {
		Category: CategoryCLI,
		Severity: SeverityWarning,
		Message:  "Malformed frame",
		Detail:   "A message from the client could not be decoded.",
		DocURL:   "https://vbind.dev/docs/errors/E423",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
