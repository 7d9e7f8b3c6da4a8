package config

import "strings"

func (c *Config) normalize() error {
	c.Match.Type = strings.ToLower(strings.TrimSpace(c.Match.Type))
	if c.Match.Type == "" {
		c.Match.Type = MatchOneToOne
	}
	if c.Match.Workers <= 0 {
		c.Match.Workers = 4
	}
	for i, id := range c.Match.GroundTruthIDs {
		c.Match.GroundTruthIDs[i] = strings.TrimSpace(id)
	}

	if err := normalizeDataset(&c.DatasetA); err != nil {
		return err
	}
	if err := normalizeDataset(&c.DatasetB); err != nil {
		return err
	}

	if c.Database != nil {
		c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
		c.Database.DSN = strings.TrimSpace(c.Database.DSN)
		if c.Database.Driver == "" {
			c.Database.Driver = "sqlite"
		}
	}

	for key, pass := range c.Passes {
		for i, v := range pass.Block {
			pass.Block[i] = strings.TrimSpace(v)
		}
		for i, v := range pass.Compare {
			pass.Compare[i] = strings.TrimSpace(v)
		}
		if pass.ChunkSize <= 0 {
			pass.ChunkSize = defaultChunkSize
		}
		c.Passes[key] = pass
	}

	var err error
	c.Output.Dir, err = expandPath(strings.TrimSpace(c.Output.Dir))
	if err != nil {
		return err
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

func normalizeDataset(ds *Dataset) error {
	ds.Name = strings.TrimSpace(ds.Name)
	ds.IDColumn = strings.TrimSpace(ds.IDColumn)
	if ds.Path != "" {
		expanded, err := expandPath(strings.TrimSpace(ds.Path))
		if err != nil {
			return err
		}
		ds.Path = expanded
	}
	for logical, column := range ds.Fields {
		ds.Fields[logical] = strings.TrimSpace(column)
	}
	return nil
}
