// Package validation provides input validation run before any network call.
package validation
