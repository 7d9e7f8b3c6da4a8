// Package match orchestrates a full matching run: it drives the blocking
// passes in order, fans scored chunks out to a bounded worker pool, weights
// every result, and assembles weight-sorted shards into the final output
// file. Ground-truth passes run first, then numbered passes ascending; each
// pass sees the exclusion state committed by every pass before it, so a pair
// is offered for comparison exactly once per run.
package match
