package cyext

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes a set of extension targets declaratively, for
// orchestrators that prefer a config file over linking against this
// package.
//
// Example extensions.yaml:
//
//	extensions:
//	  - name: folly.iobuf
//	    source: folly/iobuf.pyx
//	  - name: folly.executor
//	    source: folly/executor.pyx
//	    extra_sources:
//	      - folly/executor_detail.cpp
//	    libraries: [glog, folly]
//
// Library lists, search paths and compile flags given in the manifest are
// merged with the environment-derived FlagSet by Targets.
type Manifest struct {
	Extensions []ManifestExtension `yaml:"extensions"`
}

// ManifestExtension is the YAML form of one extension target.
type ManifestExtension struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	ExtraSources []string `yaml:"extra_sources"`
	Libraries    []string `yaml:"libraries"`
	LibraryDirs  []string `yaml:"library_dirs"`
	IncludeDirs  []string `yaml:"include_dirs"`
	CompileArgs  []string `yaml:"compile_args"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses manifest YAML and validates it.
//
// Every entry must carry a name and a source; an empty extension list is
// an error, since a manifest that builds nothing is always a mistake.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if len(m.Extensions) == 0 {
		return nil, fmt.Errorf("manifest declares no extensions")
	}

	for i, ext := range m.Extensions {
		if ext.Name == "" {
			return nil, fmt.Errorf("manifest extension %d has no name", i)
		}
		if ext.Source == "" {
			return nil, fmt.Errorf("manifest extension %q has no source", ext.Name)
		}
	}

	return &m, nil
}

// Targets converts the manifest entries into Extension targets, merging
// the environment-derived FlagSet into each one. Manifest-local values
// come first so they take precedence in search order; fs may be nil.
func (m *Manifest) Targets(fs *FlagSet) []Extension {
	targets := make([]Extension, 0, len(m.Extensions))

	for _, ext := range m.Extensions {
		target := Extension{
			Name:         ext.Name,
			Source:       ext.Source,
			ExtraSources: append([]string{}, ext.ExtraSources...),
			Libraries:    append([]string{}, ext.Libraries...),
			LibraryDirs:  append([]string{}, ext.LibraryDirs...),
			IncludeDirs:  append([]string{}, ext.IncludeDirs...),
			CompileArgs:  append([]string{}, ext.CompileArgs...),
		}

		if fs != nil {
			target.Libraries = append(target.Libraries, fs.Libraries...)
			target.LibraryDirs = append(target.LibraryDirs, fs.LibraryDirs...)
			target.IncludeDirs = append(target.IncludeDirs, fs.IncludeDirs...)
			target.CompileArgs = append(target.CompileArgs, fs.CompileArgs...)
		}

		targets = append(targets, target)
	}

	return targets
}
