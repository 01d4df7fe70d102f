package config

// Tool identifies one of the toggleable tools.
type Tool string

const (
	ToolSearch     Tool = "search"
	ToolURLContext Tool = "url"
	ToolCode       Tool = "code"
	ToolStructured Tool = "structured"
	ToolFunctions  Tool = "functions"
)

// Tools lists every tool in toggle order.
var Tools = []Tool{ToolSearch, ToolURLContext, ToolCode, ToolStructured, ToolFunctions}

// ApplyToolToggle sets one tool flag and enforces mutual exclusivity.
//
// The rule is transition-based: the clearing precedence is evaluated
// against the flag that was just turned on, never recomputed globally, so
// the order of prior toggles affects the result (search on, then code on,
// then search on again leaves code enabled).
//
//   - functions ON clears search, url, code, structured
//   - structured ON clears code and functions
//   - code ON clears structured and functions
//   - search or url ON clears functions only
//
// Turning a tool off clears nothing else. After the transition the result
// is gated against the active model's capabilities.
func ApplyToolToggle(c *Configuration, tool Tool, on bool) {
	switch tool {
	case ToolSearch:
		c.Search = on
	case ToolURLContext:
		c.URLContext = on
	case ToolCode:
		c.Code = on
	case ToolStructured:
		c.Structured = on
	case ToolFunctions:
		c.Functions = on
	}

	if on {
		switch tool {
		case ToolFunctions:
			c.Search = false
			c.URLContext = false
			c.Code = false
			c.Structured = false
		case ToolStructured:
			c.Code = false
			c.Functions = false
		case ToolCode:
			c.Structured = false
			c.Functions = false
		case ToolSearch, ToolURLContext:
			c.Functions = false
		}
	}

	GateToModel(c)
}

// ToolEnabled reads one tool flag.
func ToolEnabled(c Configuration, tool Tool) bool {
	switch tool {
	case ToolSearch:
		return c.Search
	case ToolURLContext:
		return c.URLContext
	case ToolCode:
		return c.Code
	case ToolStructured:
		return c.Structured
	case ToolFunctions:
		return c.Functions
	}
	return false
}
