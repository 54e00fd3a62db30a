// Package config loads the optional .codex/index.yaml override file.
// Its only job is to supply defaults for values that are otherwise CLI
// flag defaults; an explicit CLI flag always wins over a config value,
// and a missing file is not an error.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults holds the subset of build parameters that .codex/index.yaml
// may override.
type Defaults struct {
	Model   string `yaml:"model"`
	Chunk   string `yaml:"chunk"`
	Lines   int    `yaml:"lines"`
	Overlap int    `yaml:"overlap"`
}

// FileName is the path, relative to the repository root, of the
// optional override file.
const FileName = ".codex/index.yaml"

// Load reads .codex/index.yaml under root. A missing file returns a
// zero-value Defaults and no error.
func Load(root string) (Defaults, error) {
	path := filepath.Join(root, filepath.FromSlash(FileName))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Defaults{}, nil
	}
	if err != nil {
		return Defaults{}, err
	}

	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, err
	}
	return d, nil
}

// ApplyTo fills zero-valued fields of the given build parameters from
// the config's defaults, leaving explicitly-set (non-zero) values
// untouched. Call this after parsing CLI flags so a flag the user
// actually passed always wins.
func (d Defaults) ApplyTo(model, chunk *string, lines, overlap *int) {
	if *model == "" && d.Model != "" {
		*model = d.Model
	}
	if *chunk == "" && d.Chunk != "" {
		*chunk = d.Chunk
	}
	if *lines == 0 && d.Lines != 0 {
		*lines = d.Lines
	}
	if *overlap == 0 && d.Overlap != 0 {
		*overlap = d.Overlap
	}
}
