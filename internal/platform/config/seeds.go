package config

import (
	"os"

	"gopkg.in/yaml.v3"

	perr "vaktpost/internal/platform/errors"
)

// Seeds is the optional YAML seed file declaring watched facilities and RSS
// sources. It is loaded once at boot and upserted into the store so the
// running system is driven from Postgres, not the file.
type Seeds struct {
	Facilities []FacilitySeed `yaml:"facilities"`
	Sources    []SourceSeed   `yaml:"sources"`
}

// FacilitySeed is a fixed installation vessels are watched against
type FacilitySeed struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// SourceSeed is an RSS feed to pull articles from
type SourceSeed struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// LoadSeeds parses a YAML seed file
func LoadSeeds(path string) (Seeds, error) {
	var s Seeds
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read seed file %s", path)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse seed file %s", path)
	}
	return s, nil
}
