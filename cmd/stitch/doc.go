// Command stitch is the CLI for the stitch matching engine: run a matching
// job, inspect the pass plan, and manage configuration files.
package main
