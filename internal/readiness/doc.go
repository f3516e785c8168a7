// Package readiness recognizes the worker's readiness line and holds the
// discovered port.
//
// A worker announces that it is listening by writing a single line of the
// form "PORT:<n>" to its standard output. Parse extracts n from such a line.
// Cell stores the first port published into it and ignores every later one,
// so once a port is observed it never changes for the lifetime of the worker.
package readiness
