// Package dom is the adapter boundary between the reconciliation engine
// and the external application's markup. The engine only ever sees the
// Document and Node interfaces; the concrete Page implementation drives a
// parsed HTML tree (goquery) with bindable behaviors, which doubles as the
// snapshot driver and the test harness. The target application's markup is
// uncontrolled, so every lookup is allowed to fail.
package dom

// Node is a handle on one element of the page.
type Node interface {
	// Tag returns the lowercase element name.
	Tag() string
	// Attr returns an attribute value; ok is false when absent.
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	// Text returns the element's text content including descendants.
	Text() string
	SetText(text string)
	// Value reads the form value (value attribute, or text for textareas).
	Value() string
	// SetValue writes the form value. It does not dispatch events; callers
	// dispatch explicitly, matching how the driven application listens.
	SetValue(value string)
	// Dispatch fires synthetic events (input, change, blur) on the node.
	Dispatch(events ...string)
	// Click activates the node: bound behaviors run, then default ARIA
	// semantics (switch toggling, expanded toggling).
	Click()
	Parent() (Node, bool)
	Closest(selector string) (Node, bool)
	Query(selector string) (Node, bool)
	QueryAll(selector string) []Node
	Matches(selector string) bool
	// Width returns the layout width in pixels as far as the adapter can
	// tell (inline style, else data-width), 0 when unknown.
	Width() int
	// AppendHTML parses html and appends it under the node.
	AppendHTML(html string)
	// Remove detaches the node's subtree from the document.
	Remove()
}

// Document is the page-level surface the engine reconciles against.
type Document interface {
	Query(selector string) (Node, bool)
	QueryAll(selector string) []Node
	// SetMarker toggles a class-like flag on the document root; the
	// suppression style rule keys off it.
	SetMarker(name string, on bool)
	HasMarker(name string) bool
	// SetStyleRule installs (or replaces) an injected style block by id.
	SetStyleRule(id, css string)
	// Location returns the page URL as last observed.
	Location() string
	// Observe registers a callback fired after every mutation (click,
	// value write, attribute change, subtree change). The returned func
	// unregisters it.
	Observe(fn func()) (stop func())
}

// Op identifies a recorded mutation kind.
type Op string

const (
	OpClick    Op = "click"
	OpSetValue Op = "set-value"
	OpSetAttr  Op = "set-attr"
	OpSetText  Op = "set-text"
	OpDispatch Op = "dispatch"
	OpAppend   Op = "append"
	OpRemove   Op = "remove"
)

// Mutation is one recorded page-changing operation. The engine's
// idempotence guarantee is expressed over this log: applying an already
// conformant configuration records nothing.
type Mutation struct {
	Op     Op
	Target string // short description: tag plus aria-label or id when present
	Detail string
}
