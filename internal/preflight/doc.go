// Package preflight provides readiness checks for the paths and services a
// matching run depends on. The run command executes RunAll before any data
// loads; a failed check stops the run before hours of blocking work start on
// a doomed configuration.
package preflight
