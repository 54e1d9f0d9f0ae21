package cyext

import (
	"os"
	"path/filepath"
	"testing"
)

const manifestYAML = `
extensions:
  - name: folly.iobuf
    source: folly/iobuf.pyx
  - name: folly.executor
    source: folly/executor.pyx
    extra_sources:
      - folly/executor_detail.cpp
    libraries: [rt]
    compile_args: ["-DNDEBUG"]
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(manifestYAML))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if len(m.Extensions) != 2 {
		t.Fatalf("expected 2 extensions, got %d", len(m.Extensions))
	}
	if m.Extensions[0].Name != "folly.iobuf" {
		t.Errorf("unexpected first name: %s", m.Extensions[0].Name)
	}
	if len(m.Extensions[1].ExtraSources) != 1 {
		t.Errorf("expected extra source on second extension, got %v", m.Extensions[1].ExtraSources)
	}
}

func TestParseManifestValidation(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no extensions", "extensions: []"},
		{"missing name", "extensions:\n  - source: a.pyx"},
		{"missing source", "extensions:\n  - name: folly.iobuf"},
		{"invalid yaml", "{unclosed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tc.yaml)); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestManifestTargetsMergesFlagSet(t *testing.T) {
	m, err := ParseManifest([]byte(manifestYAML))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	fs := DeriveFlags(fakeEnv(map[string]string{
		EnvCxxFlags:    "-O2",
		EnvCondaPrefix: "/opt/conda",
	}))

	targets := m.Targets(fs)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}

	executor := targets[1]

	// Manifest-local values come first, derived values follow
	if executor.Libraries[0] != "rt" {
		t.Errorf("expected manifest library first, got %v", executor.Libraries)
	}
	if !containsString(executor.Libraries, "folly") {
		t.Errorf("derived libraries missing: %v", executor.Libraries)
	}
	if executor.CompileArgs[0] != "-DNDEBUG" || !containsString(executor.CompileArgs, "-O2") {
		t.Errorf("unexpected compile args: %v", executor.CompileArgs)
	}
	if !containsString(executor.IncludeDirs, "/opt/conda/include") {
		t.Errorf("derived include dirs missing: %v", executor.IncludeDirs)
	}
}

func TestManifestTargetsNilFlagSet(t *testing.T) {
	m, err := ParseManifest([]byte(manifestYAML))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	targets := m.Targets(nil)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if len(targets[0].Libraries) != 0 {
		t.Errorf("expected no libraries without a FlagSet, got %v", targets[0].Libraries)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extensions.yaml")
	if err := os.WriteFile(path, []byte(manifestYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if len(m.Extensions) != 2 {
		t.Errorf("expected 2 extensions, got %d", len(m.Extensions))
	}

	if _, err := LoadManifest(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing manifest file")
	}
}
