// Package blocking decides which record pairs are compared at all. It owns
// the pass plan (ground-truth passes followed by numbered passes), the
// exclusion state guaranteeing each pair is offered exactly once across
// passes, and two interchangeable candidate generators: a relational backend
// that materializes pass-scoped join tables, and an in-memory merge index.
// Both yield identical pairings over identical data.
package blocking
