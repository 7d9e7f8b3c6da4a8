package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation marks configuration validation failures so callers can
// distinguish them from I/O and parse errors.
var ErrValidation = errors.New("invalid configuration")

var validMatchTypes = map[string]struct{}{
	MatchOneToOne:   {},
	MatchOneToMany:  {},
	MatchManyToMany: {},
	MatchDedup:      {},
}

// Validate checks the configuration for contradictions and missing values.
// It collects every problem found rather than stopping at the first.
func (c *Config) Validate() error {
	var problems []string

	if _, ok := validMatchTypes[c.Match.Type]; !ok {
		problems = append(problems, fmt.Sprintf("match.type %q is not one of one-to-one, one-to-many, many-to-many, dedup", c.Match.Type))
	}
	if c.Match.Workers <= 0 {
		problems = append(problems, "match.workers must be positive")
	}

	if c.DatasetA.Name == "" {
		problems = append(problems, "dataset_a.name is required")
	}
	if c.DatasetA.IDColumn == "" {
		problems = append(problems, "dataset_a.id_column is required")
	}
	if c.Dedup() {
		if c.DatasetB.Name != "" || c.DatasetB.Path != "" {
			problems = append(problems, "dataset_b must be absent in dedup mode")
		}
	} else {
		if c.DatasetB.Name == "" {
			problems = append(problems, "dataset_b.name is required unless deduplicating")
		}
		if c.DatasetB.IDColumn == "" {
			problems = append(problems, "dataset_b.id_column is required unless deduplicating")
		}
	}

	if c.Database != nil {
		switch c.Database.Driver {
		case "sqlite", "postgres":
		default:
			problems = append(problems, fmt.Sprintf("database.driver %q is not one of sqlite, postgres", c.Database.Driver))
		}
		if c.Database.Driver == "postgres" && c.Database.DSN == "" {
			problems = append(problems, "database.dsn is required for the postgres driver")
		}
	}

	for key := range c.Passes {
		if _, err := strconv.Atoi(strings.TrimSpace(key)); err != nil {
			problems = append(problems, fmt.Sprintf("passes.%s: pass keys must be numeric", key))
		}
	}
	if len(c.Passes) == 0 && len(c.Match.GroundTruthIDs) == 0 {
		problems = append(problems, "at least one pass or ground truth ID is required")
	}

	for name, cmp := range c.Comparers {
		switch strings.ToLower(cmp.Method) {
		case "", "exact", "jarowinkler":
		default:
			problems = append(problems, fmt.Sprintf("comparers.%s.method %q is not one of exact, jarowinkler", name, cmp.Method))
		}
	}

	if c.Output.Dir == "" {
		problems = append(problems, "output.dir is required")
	}

	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of auto, console, json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
