package cyext

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPackagePath(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{"folly.iobuf", "folly"},
		{"folly.python.iobuf", filepath.FromSlash("folly/python")},
		{"toplevel", ""},
	}

	for _, tc := range testCases {
		if got := packagePath(tc.name); got != tc.expected {
			t.Errorf("packagePath(%s) = %q, expected %q", tc.name, got, tc.expected)
		}
	}
}

func TestIsNativeModule(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"iobuf.so", true},
		{"iobuf.cpython-312-x86_64-linux-gnu.so", true},
		{"iobuf.pyd", true},
		{"iobuf.dylib", true},
		{"iobuf.cpp", false},
		{"iobuf.pxd", false},
	}

	for _, tc := range testCases {
		if got := isNativeModule(tc.path); got != tc.expected {
			t.Errorf("isNativeModule(%s) = %v, expected %v", tc.path, got, tc.expected)
		}
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFinalizeExtensions(t *testing.T) {
	projectDir := t.TempDir()
	destDir := t.TempDir()
	extensionDir := filepath.Join(projectDir, "folly")

	writeFiles(t, extensionDir,
		"iobuf.so",
		"iobuf.pxd",
		"iobuf_api.h",
		"iobuf.cpp", // generated unit, not package data
	)

	config := DefaultBuildConfig()
	config.ProjectDir = projectDir
	config.DestPath = destDir

	target := Extension{Name: "folly.iobuf", Source: "folly/iobuf.pyx"}

	installed, err := FinalizeExtensions(config, target, extensionDir, []string{"iobuf.so"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"folly/iobuf.so", "folly/iobuf.pxd", "folly/iobuf_api.h"}
	for _, want := range expected {
		if !containsString(installed, want) {
			t.Errorf("installed list %v missing %s", installed, want)
		}
		if _, err := os.Stat(filepath.Join(destDir, filepath.FromSlash(want))); err != nil {
			t.Errorf("expected %s in destination: %v", want, err)
		}
	}

	// The generated translation unit stays behind
	if containsString(installed, "folly/iobuf.cpp") {
		t.Error("translation unit should not be installed")
	}
}

func TestFinalizeExtensionsNoDest(t *testing.T) {
	projectDir := t.TempDir()
	extensionDir := filepath.Join(projectDir, "folly")
	writeFiles(t, extensionDir, "iobuf.so")

	config := DefaultBuildConfig()
	config.ProjectDir = projectDir

	target := Extension{Name: "folly.iobuf", Source: "folly/iobuf.pyx"}

	installed, err := FinalizeExtensions(config, target, extensionDir, []string{"iobuf.so"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(installed) != 1 || installed[0] != "folly/iobuf.so" {
		t.Errorf("expected project-relative path, got %v", installed)
	}
}

func TestFinalizeExtensionsEmpty(t *testing.T) {
	config := DefaultBuildConfig()
	installed, err := FinalizeExtensions(config, Extension{}, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if installed != nil {
		t.Errorf("expected nil for empty build list, got %v", installed)
	}
}

func TestUniqueStrings(t *testing.T) {
	input := []string{"a", "b", "a", "", "c", "b"}
	expected := []string{"a", "b", "c"}

	result := uniqueStrings(input)
	if len(result) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, result)
	}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, result)
		}
	}
}
