package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

const (
	yamlManifest = "taipan.yaml"
	tomlManifest = "taipan.toml"
)

// manifest describes a project directory. Flags given on the command line
// win over it.
type manifest struct {
	Package string `yaml:"package" toml:"package"`
	Entry   string `yaml:"entry,omitempty" toml:"entry"`
	Builtin string `yaml:"builtin,omitempty" toml:"builtin"`
	Output  string `yaml:"output,omitempty" toml:"output"`
	Library bool   `yaml:"library,omitempty" toml:"library"`

	dir string
}

// loadManifest reads taipan.yaml, or taipan.toml when there is no YAML
// manifest. A directory without either yields the zero manifest.
func loadManifest(dir string) (manifest, error) {
	m := manifest{dir: dir}

	path := filepath.Join(dir, yamlManifest)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.UnmarshalStrict(data, &m); err != nil {
			return m, fmt.Errorf("parse error in %s: %w", path, err)
		}
		return m, nil
	}
	if !os.IsNotExist(err) {
		return m, fmt.Errorf("cannot read %s: %w", path, err)
	}

	path = filepath.Join(dir, tomlManifest)
	data, err = os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &m); err != nil {
		return m, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return m, nil
}

func (m manifest) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.dir, p)
}

func writeManifest(dir string, m manifest) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, yamlManifest), out, 0644)
}
