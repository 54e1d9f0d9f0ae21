package cyext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenericBuilderCanBuild(t *testing.T) {
	meson := NewMesonBuilder()
	cffi := NewCFFIBuilder()

	testCases := []struct {
		builder  *GenericBuilder
		file     string
		expected bool
	}{
		{meson, "meson.build", true},
		{meson, "bindings/meson.build", true},
		{meson, "setup.py", false},
		{cffi, "iobuf_build.py", true},
		{cffi, "build.py", false},
		{cffi, "setup.py", false},
	}

	for _, tc := range testCases {
		if got := tc.builder.CanBuild(tc.file); got != tc.expected {
			t.Errorf("%s.CanBuild(%s) = %v, expected %v", tc.builder.Name(), tc.file, got, tc.expected)
		}
	}
}

func TestGenericBuilderBuild(t *testing.T) {
	projectDir := t.TempDir()
	extensionDir := filepath.Join(projectDir, "bindings")
	writeFiles(t, extensionDir, "meson.build")

	builder := NewGenericBuilder(&GenericBuilderConfig{
		Name:           "Touch",
		Patterns:       []string{"meson.build"},
		BuildCommand:   []string{"sh", "-c", "touch fake.so"},
		OutputPatterns: []string{"*.so"},
	})

	config := DefaultBuildConfig()
	config.ProjectDir = projectDir

	result, err := builder.Build(context.Background(), config, "bindings/meson.build")
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected successful build")
	}
	if !containsString(result.Extensions, "fake.so") {
		t.Errorf("expected fake.so in built extensions, got %v", result.Extensions)
	}
}

func TestGenericBuilderConfigureThenBuild(t *testing.T) {
	projectDir := t.TempDir()
	extensionDir := filepath.Join(projectDir, "bindings")
	writeFiles(t, extensionDir, "meson.build")

	// The build command only succeeds if the configure step ran first
	builder := NewGenericBuilder(&GenericBuilderConfig{
		Name:             "Staged",
		Patterns:         []string{"meson.build"},
		ConfigureCommand: []string{"sh", "-c", "touch configured"},
		BuildCommand:     []string{"sh", "-c", "test -f configured && touch fake.so"},
		OutputPatterns:   []string{"*.so"},
	})

	config := DefaultBuildConfig()
	config.ProjectDir = projectDir

	result, err := builder.Build(context.Background(), config, "bindings/meson.build")
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected successful build")
	}
	if !containsString(result.Extensions, "fake.so") {
		t.Errorf("expected fake.so in built extensions, got %v", result.Extensions)
	}
}

func TestMesonBuilderCompiles(t *testing.T) {
	// A configure-only run would leave no artifacts; the builder must
	// invoke both meson setup and meson compile.
	stubTool(t, "meson",
		`echo "$@" >> meson.log
if [ "$1" = "compile" ]; then mkdir -p builddir; : > builddir/fake.so; fi`)

	projectDir := t.TempDir()
	extensionDir := filepath.Join(projectDir, "bindings")
	writeFiles(t, extensionDir, "meson.build")

	config := DefaultBuildConfig()
	config.ProjectDir = projectDir

	result, err := NewMesonBuilder().Build(context.Background(), config, "bindings/meson.build")
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected successful build")
	}
	if !containsString(result.Extensions, filepath.Join("builddir", "fake.so")) {
		t.Errorf("expected compiled module in %v", result.Extensions)
	}

	log, err := os.ReadFile(filepath.Join(extensionDir, "meson.log"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"setup builddir", "compile -C builddir"} {
		if !strings.Contains(string(log), want) {
			t.Errorf("meson invocations %q missing %q", log, want)
		}
	}
}

func TestGenericBuilderNoCommand(t *testing.T) {
	builder := NewGenericBuilder(&GenericBuilderConfig{
		Name:     "Empty",
		Patterns: []string{"build.txt"},
	})

	config := DefaultBuildConfig()
	config.ProjectDir = t.TempDir()

	result, err := builder.Build(context.Background(), config, "build.txt")
	if err == nil {
		t.Fatal("expected error for missing build command")
	}
	if result.Success {
		t.Error("expected failed result")
	}
}

func TestGenericBuilderTools(t *testing.T) {
	meson := NewMesonBuilder()

	var names []string
	for _, req := range meson.RequiredTools() {
		names = append(names, req.Name)
	}

	for _, want := range []string{"meson", "ninja"} {
		if !containsString(names, want) {
			t.Errorf("RequiredTools %v missing %s", names, want)
		}
	}
}
