// Package compare scores candidate-pair chunks against both record sets.
// Each configured comparison variable yields one similarity score per pair;
// the scores decide the pair's strictness tiers (strict, moderate, relaxed,
// review). Workers call Score concurrently: the scorer holds only read-only
// state, so no synchronization is needed.
package compare
