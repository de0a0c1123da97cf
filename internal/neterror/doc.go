// Package neterror classifies errors returned by NewsBlur requests so that
// callers can decide whether a failed page fetch is worth repeating without
// string matching scattered across the codebase.
package neterror
