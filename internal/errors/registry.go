package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

const docBase = "https://reactor.vango.dev/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Render Errors (R001-R009)
	// ============================================

	"R001": {
		Category:   CategoryRender,
		Message:    "Render function failed",
		Detail:     "The render function returned an error or panicked. The instance keeps showing its last successfully rendered tree.",
		Suggestion: "Check the render function for nil dereferences and unchecked type assertions on cell values.",
		DocURL:     docBase + "R001",
	},
	"R002": {
		Category:   CategoryMisuse,
		Message:    "Multiple root nodes returned from render",
		Detail:     "A render function must return exactly one root node. A slice is only accepted when it has length 1; anything else is replaced by an empty node.",
		Suggestion: "Wrap the nodes in a single element.",
		DocURL:     docBase + "R002",
	},

	// ============================================
	// Hook and Callback Errors (R010-R019)
	// ============================================

	"R010": {
		Category: CategoryHook,
		Message:  "Lifecycle hook failed",
		Detail:   "A lifecycle hook returned an error or panicked. Remaining hooks for the same phase still ran and the lifecycle transition completed.",
		DocURL:   docBase + "R010",
	},
	"R011": {
		Category: CategoryHook,
		Message:  "Event handler failed",
		Detail:   "An event listener returned an error or panicked. Remaining listeners for the event still ran.",
		DocURL:   docBase + "R011",
	},
	"R012": {
		Category: CategoryHook,
		Message:  "Watcher callback failed",
		Detail:   "A watcher callback returned an error or panicked.",
		DocURL:   docBase + "R012",
	},
	"R013": {
		Category: CategoryHook,
		Message:  "Watcher getter failed",
		Detail:   "The getter of a watcher or computed value returned an error or panicked. Its previous value is kept.",
		DocURL:   docBase + "R013",
	},
	"R014": {
		Category: CategoryHook,
		Message:  "NextTick callback failed",
		Detail:   "A callback scheduled with NextTick returned an error or panicked.",
		DocURL:   docBase + "R014",
	},

	// ============================================
	// Scheduler Errors (R020-R029)
	// ============================================

	"R020": {
		Category:   CategoryScheduler,
		Message:    "Possible infinite update loop",
		Detail:     "A computation was re-queued during the same flush more times than the configured maximum. The flush was aborted and the pending queue discarded.",
		Suggestion: "Look for a watcher or updated hook that writes to a cell the same computation reads.",
		DocURL:     docBase + "R020",
	},

	// ============================================
	// Injection Errors (R030-R039)
	// ============================================

	"R030": {
		Category:   CategoryInject,
		Message:    "Injection not found",
		Detail:     "No ancestor provides the requested key and no default was declared.",
		Suggestion: "Provide the key from an ancestor or declare a Default on the injection.",
		DocURL:     docBase + "R030",
	},
	"R031": {
		Category: CategoryMisuse,
		Message:  "Injected value mutated",
		Detail:   "Injected values are read-only projections of ancestor state. The write was applied to the injecting instance's own cell; the provider's value is unchanged.",
		DocURL:   docBase + "R031",
	},

	// ============================================
	// Misuse (R050-R059)
	// ============================================

	"R050": {
		Category: CategoryMisuse,
		Message:  "Operation on destroyed instance",
		Detail:   "The instance has been destroyed and removed from the runtime.",
		DocURL:   docBase + "R050",
	},
	"R051": {
		Category:   CategoryMisuse,
		Message:    "Unknown state key",
		Detail:     "The key is not a declared prop, data field, injection, computed value or shared store entry of the instance.",
		Suggestion: "Declare the key in Options.Data or Options.Props.",
		DocURL:     docBase + "R051",
	},
	"R052": {
		Category: CategoryMisuse,
		Message:  "Invalid component definition",
		Detail:   "A component placeholder node did not carry a *component.Options definition and was rendered as an empty node.",
		DocURL:   docBase + "R052",
	},

	// ============================================
	// Config / CLI Errors (R100-R119)
	// ============================================

	"R100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The reactor.json file contains invalid JSON or unsupported values.",
		DocURL:   docBase + "R100",
	},
	"R101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No reactor.json file was found in the current directory or any parent directory.",
		DocURL:   docBase + "R101",
	},
	"R110": {
		Category: CategoryCLI,
		Message:  "Snapshot export failed",
		Detail:   "The instance tree snapshot could not be written to its destination.",
		DocURL:   docBase + "R110",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
