// Package errors provides coded, actionable error messages for the urlstate
// server and CLI.
//
// The state engine itself never fails: invalid input falls back to defaults.
// Errors only arise at the edges, loading configuration, serving clients and
// parsing command-line input.
//
// # Error Codes
//
// Each error has a unique code that maps to a short message, a detailed
// explanation and a documentation URL:
//   - E100-E119: configuration
//   - E200-E219: server and protocol
//   - E300-E319: command line
//
// # Usage
//
//	err := errors.New("E102").
//	    WithDetail("port 70000 is out of range").
//	    WithSuggestion("Use a port between 1 and 65535")
//
//	errors.PrintError(err)
package errors
