// Package output writes match results. Each scored batch becomes one CSV
// shard sorted by weight; after all passes finish the shards are merged into
// a single weight-ordered result file and removed. Shards and the final file
// are optionally gzip-compressed.
package output
