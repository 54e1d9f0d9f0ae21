package cyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Platform constants
const (
	platformWindows = "windows"
)

// SetupBuilder handles setup.py files - setuptools-driven extension
// builds.
//
// The script is expected to be the kind that an orchestrator invokes
// ("do not call directly, use cmake"): it already describes its extension
// targets, so this builder only supplies the interpreter, the environment
// and the build_ext invocation.
type SetupBuilder struct{}

// Name returns the builder name
func (b *SetupBuilder) Name() string {
	return "Setup"
}

// RequiredTools returns the tools needed for setup.py builds
func (b *SetupBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         "python3",
			Alternatives: []string{"python"},
			Purpose:      "Python interpreter for setup.py",
		},
		{
			Name:         "g++",
			Alternatives: []string{"clang++", "c++", "cl"},
			Purpose:      "C++ compiler for native extensions",
		},
	}
}

// CheckTools verifies that the interpreter and compiler are available
func (b *SetupBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *SetupBuilder) CanBuild(extensionFile string) bool {
	return MatchesPattern(extensionFile, `^setup\.py$`, `/setup\.py$`)
}

// Build compiles the extensions using python setup.py build_ext
func (b *SetupBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.checkInterpreter,
		BuildFunc:     b.runBuildExt,
		FindFunc:      b.findBuiltExtensions,
	})
}

// Clean removes setuptools build artifacts
func (b *SetupBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.ProjectDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	python := b.getPython(config)
	cmd := exec.CommandContext(ctx, python, "setup.py", "clean", "--all")
	cmd.Dir = extensionDir

	// Ignore errors - there may be nothing to clean
	_ = cmd.Run()
	return nil
}

// checkInterpreter verifies the configured interpreter actually runs
func (b *SetupBuilder) checkInterpreter(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	python := b.getPython(config)

	cmd := exec.CommandContext(ctx, python, "--version")
	output, err := cmd.CombinedOutput()
	result.Output = append(result.Output, strings.TrimSpace(string(output)))

	if err != nil {
		result.MissingDependencies = append(result.MissingDependencies, python)
		return BuildError("Setup", result.Output, fmt.Errorf("python interpreter %q not usable: %v", python, err))
	}

	return nil
}

// runBuildExt executes setup.py build_ext --inplace
func (b *SetupBuilder) runBuildExt(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	python := b.getPython(config)

	args := []string{"setup.py", "build_ext", "--inplace"}

	// Add parallel jobs if specified
	if config.Parallel > 0 {
		args = append(args, fmt.Sprintf("--parallel=%d", config.Parallel))
	}

	args = append(args, config.BuildArgs...)

	// Clean first if requested
	if config.CleanFirst {
		cleanCmd := exec.CommandContext(ctx, python, "setup.py", "clean", "--all")
		cleanCmd.Dir = extensionDir
		cleanOutput, _ := cleanCmd.CombinedOutput()
		result.Output = append(result.Output, strings.Split(string(cleanOutput), "\n")...)
	}

	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Dir = extensionDir

	// Set environment variables
	cmd.Env = os.Environ()
	for key, value := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	output, err := cmd.CombinedOutput()
	outputLines := strings.Split(string(output), "\n")
	result.Output = append(result.Output, outputLines...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", python, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	if err != nil {
		return BuildError("Setup", result.Output, err)
	}

	return nil
}

// findBuiltExtensions locates the compiled module files
func (b *SetupBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	var extensions []string

	// build_ext --inplace drops modules next to their packages, but older
	// setuptools layouts leave them under build/lib.*
	searchDirs := []string{".", "folly"}
	if buildDirs, err := filepath.Glob(filepath.Join(extensionDir, "build", "lib.*")); err == nil {
		for _, d := range buildDirs {
			if rel, err := filepath.Rel(extensionDir, d); err == nil {
				searchDirs = append(searchDirs, rel)
			}
		}
	}

	patterns := []string{
		"*.so",  // Linux/Unix shared modules
		"*.pyd", // Windows Python modules
	}

	for _, searchDir := range searchDirs {
		fullSearchDir := filepath.Join(extensionDir, searchDir)
		if _, err := os.Stat(fullSearchDir); os.IsNotExist(err) {
			continue
		}

		for _, pattern := range patterns {
			matches, err := filepath.Glob(filepath.Join(fullSearchDir, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, fullSearchDir, err)
			}

			for _, match := range matches {
				relPath, err := filepath.Rel(extensionDir, match)
				if err == nil {
					extensions = append(extensions, relPath)
				}
			}
		}
	}

	return extensions, nil
}

// getPython returns the interpreter to use
func (b *SetupBuilder) getPython(config *BuildConfig) string {
	if config.PythonPath != "" {
		return config.PythonPath
	}
	return "python3"
}
