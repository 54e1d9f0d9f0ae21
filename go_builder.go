package cyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// GoBuilder compiles Go code into loadable extension modules using CGO's
// c-shared build mode.
//
// The produced shared library is loadable from a Python runtime through
// ctypes or cffi. The target's dotted module name picks the artifact base
// name, so building "folly.native" from native/go.mod produces native.so
// next to the Go sources, and the module is installed into the destination
// package layout like any other extension.
type GoBuilder struct{}

// Name returns the builder name
func (b *GoBuilder) Name() string {
	return "Go"
}

// RequiredTools returns the tools needed for Go builds
func (b *GoBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "go",
			Purpose: "Go compiler and toolchain",
		},
		{
			Name:         "gcc",
			Alternatives: []string{"clang", "cc"},
			Purpose:      "C compiler (required for CGO)",
		},
	}
}

// CheckTools verifies that the Go toolchain is available
func (b *GoBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *GoBuilder) CanBuild(extensionFile string) bool {
	ext := strings.ToLower(filepath.Ext(extensionFile))
	base := strings.ToLower(filepath.Base(extensionFile))
	return ext == ".go" || base == "go.mod"
}

// Build compiles a bare Go source tree with no target definition.
//
// The artifact name is derived from the source path: the file name for
// *.go sources, the enclosing directory for go.mod. Use BuildTarget to
// name the module explicitly.
func (b *GoBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	target := Extension{
		Name:   b.moduleName(config, extensionFile),
		Source: extensionFile,
	}
	return b.BuildTarget(ctx, config, target)
}

// BuildTarget compiles the target into a c-shared module.
//
// When config.DestPath is set, the built module is installed into the
// destination package layout alongside any package data found next to the
// sources.
func (b *GoBuilder) BuildTarget(ctx context.Context, config *BuildConfig, target Extension) (*BuildResult, error) {
	result, err := runCommonBuild(ctx, config, target.Source, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc: func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
			return b.runGoBuild(ctx, config, extensionDir, target, result)
		},
		FindFunc: b.findBuiltExtensions,
	})
	if err != nil || !result.Success {
		return result, err
	}

	if config.DestPath != "" {
		extensionDir := filepath.Dir(filepath.Join(config.ProjectDir, target.Source))
		installed, installErr := FinalizeExtensions(config, target, extensionDir, result.Extensions)
		if installErr != nil {
			result.Success = false
			result.Error = installErr
			return result, installErr
		}
		result.Extensions = installed
	}

	return result, nil
}

// Clean removes the built module and the generated CGO header
func (b *GoBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.ProjectDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)
	base := b.moduleName(config, extensionFile)

	// c-shared builds leave the module plus a generated header behind
	for _, suffix := range []string{".so", ".pyd", ".dylib", ".h"} {
		_ = os.Remove(filepath.Join(extensionDir, base+suffix))
	}

	cleanCmd := exec.CommandContext(ctx, "go", "clean")
	cleanCmd.Dir = extensionDir

	// Ignore errors - clean may not be necessary
	_ = cleanCmd.Run()
	return nil
}

// noConfigure is a no-op since Go doesn't need configuration
func (b *GoBuilder) noConfigure(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	if config.Verbose {
		result.Output = append(result.Output, "Go modules, no configuration needed")
	}
	return nil
}

// runGoBuild executes go build to compile the shared module
func (b *GoBuilder) runGoBuild(ctx context.Context, config *BuildConfig, extensionDir string, target Extension, result *BuildResult) error {
	artifact := target.ArtifactName() + b.moduleSuffix()

	args := []string{"build", "-buildmode=c-shared", "-o", artifact}
	args = append(args, config.BuildArgs...)

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = extensionDir

	// Set environment variables
	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	// Enable CGO
	cmd.Env = append(cmd.Env, "CGO_ENABLED=1")

	output, err := cmd.CombinedOutput()
	outputLines := strings.Split(string(output), "\n")
	result.Output = append(result.Output, outputLines...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: go %s", strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	if err != nil {
		return BuildError("Go", result.Output, err)
	}

	return nil
}

// findBuiltExtensions locates the compiled module files
func (b *GoBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	var extensions []string

	// Common module file patterns
	patterns := []string{
		"*.so",    // Linux/Unix shared modules
		"*.pyd",   // Windows Python modules
		"*.dylib", // macOS dynamic libraries
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(extensionDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, extensionDir, err)
		}

		for _, match := range matches {
			// Convert to relative path
			relPath, err := filepath.Rel(extensionDir, match)
			if err == nil {
				extensions = append(extensions, relPath)
			}
		}
	}

	return extensions, nil
}

// moduleName derives the artifact base name for a bare source path: the
// file name for *.go sources, the enclosing directory for go.mod.
func (b *GoBuilder) moduleName(config *BuildConfig, extensionFile string) string {
	base := filepath.Base(extensionFile)
	if strings.EqualFold(base, "go.mod") {
		return filepath.Base(filepath.Dir(filepath.Join(config.ProjectDir, extensionFile)))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// moduleSuffix returns the loadable-module suffix for the platform. The
// Windows artifact is named .pyd directly so the import machinery and the
// install step both recognize it.
func (b *GoBuilder) moduleSuffix() string {
	if runtime.GOOS == platformWindows {
		return ".pyd"
	}
	return ".so"
}
