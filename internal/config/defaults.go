package config

// Default chunk size applied to passes that do not configure one.
const defaultChunkSize = 50000

// Default returns a configuration populated with repository defaults.
func Default() Config {
	return Config{
		Match: Match{
			Type:    MatchOneToOne,
			Workers: 4,
		},
		Output: Output{
			Dir: "stitch-output",
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}

// DefaultComparer returns comparer parameters used when a comparison variable
// has no explicit [comparers.<name>] section.
func DefaultComparer() Comparer {
	return Comparer{
		Method:       "jarowinkler",
		MissingValue: -1,
		Strict:       1.0,
		Moderate:     0.9,
		Relaxed:      0.8,
		Review:       0.7,
	}
}

// ComparerFor returns the comparer parameters for a comparison variable,
// falling back to defaults for absent sections or unset thresholds.
func (c *Config) ComparerFor(name string) Comparer {
	base := DefaultComparer()
	cmp, ok := c.Comparers[name]
	if !ok {
		return base
	}
	if cmp.Method == "" {
		cmp.Method = base.Method
	}
	if cmp.Strict == 0 {
		cmp.Strict = base.Strict
	}
	if cmp.Moderate == 0 {
		cmp.Moderate = base.Moderate
	}
	if cmp.Relaxed == 0 {
		cmp.Relaxed = base.Relaxed
	}
	if cmp.Review == 0 {
		cmp.Review = base.Review
	}
	return cmp
}
