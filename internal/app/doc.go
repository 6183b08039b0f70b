// Package app wires the application together: logger construction, suite
// loading, keyword module registration, and the per-test run loop.
package app
