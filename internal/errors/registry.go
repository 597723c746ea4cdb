package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No urlstate.json was found. Defaults are used unless a path is given explicitly.",
		DocURL:   "https://github.com/vango-dev/urlstate#configuration",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "urlstate.json could not be read or is not valid JSON.",
		DocURL:   "https://github.com/vango-dev/urlstate#configuration",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "server.port must be between 0 and 65535.",
		DocURL:   "https://github.com/vango-dev/urlstate#configuration",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid quiet window",
		Detail:   "commit.quietWindow must be a positive Go duration such as \"100ms\".",
		DocURL:   "https://github.com/vango-dev/urlstate#configuration",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "log.level must be one of debug, info, warn or error.",
		DocURL:   "https://github.com/vango-dev/urlstate#configuration",
	},

	// ============================================
	// Server Errors (E200-E219)
	// ============================================

	"E200": {
		Category: CategoryServer,
		Message:  "Server failed to start",
		Detail:   "The HTTP listener could not be started. The address may already be in use.",
		DocURL:   "https://github.com/vango-dev/urlstate#serve",
	},
	"E201": {
		Category: CategoryProtocol,
		Message:  "WebSocket upgrade failed",
		Detail:   "The client request could not be upgraded to a WebSocket connection.",
		DocURL:   "https://github.com/vango-dev/urlstate#protocol",
	},
	"E202": {
		Category: CategoryProtocol,
		Message:  "Invalid client frame",
		Detail:   "A frame from the client was not valid JSON or had an unknown type.",
		DocURL:   "https://github.com/vango-dev/urlstate#protocol",
	},
	"E203": {
		Category: CategoryProtocol,
		Message:  "Unknown key",
		Detail:   "The client referenced a query key the catalog does not bind.",
		DocURL:   "https://github.com/vango-dev/urlstate#protocol",
	},

	// ============================================
	// CLI Errors (E300-E319)
	// ============================================

	"E300": {
		Category: CategoryCLI,
		Message:  "Invalid assignment",
		Detail:   "Assignments must have the form key=value.",
		DocURL:   "https://github.com/vango-dev/urlstate#cli",
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
