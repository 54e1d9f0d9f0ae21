package cyext

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GenericBuilder provides a configurable builder for any binding
// generator that can produce a loadable module.
//
// This builder supports generators beyond the built-in set (meson-driven
// pybind11 trees, cffi build scripts, maturin) without requiring a new Go
// file for each one.
//
// # Configuration
//
// GenericBuilder is configured with:
//   - File patterns to detect (e.g. "meson.build", "*_build.py")
//   - Required tools and alternatives
//   - Optional configure command plus build command template
//   - Output file patterns
//
// # Example: meson/pybind11
//
//	meson := NewGenericBuilder(&GenericBuilderConfig{
//	    Name:     "Meson",
//	    Patterns: []string{"meson.build"},
//	    Tools: []ToolRequirement{
//	        {Name: "meson", Purpose: "Meson build system"},
//	        {Name: "ninja", Purpose: "Ninja build tool"},
//	    },
//	    ConfigureCommand: []string{"meson", "setup", "builddir"},
//	    BuildCommand:     []string{"meson", "compile", "-C", "builddir"},
//	    OutputPatterns:   []string{"builddir/*.so"},
//	})
type GenericBuilder struct {
	name             string
	patterns         []string
	tools            []ToolRequirement
	configureCommand []string
	buildCommand     []string
	cleanCommand     []string
	outputPatterns   []string
}

// GenericBuilderConfig defines configuration for a GenericBuilder.
type GenericBuilderConfig struct {
	// Name is the human-readable builder name (e.g. "Meson", "CFFI")
	Name string

	// Patterns are file patterns to match (e.g. "meson.build")
	Patterns []string

	// Tools are the required build tools
	Tools []ToolRequirement

	// ConfigureCommand is an optional command run before BuildCommand
	// (e.g. "meson setup builddir"). Supports the same placeholders as
	// BuildCommand.
	ConfigureCommand []string

	// BuildCommand is the command template to build the extension.
	// Supports placeholders:
	//   {{input}}  - The input file
	//   {{output}} - The output file (e.g. extension.so)
	//   {{dir}}    - The extension directory
	BuildCommand []string

	// CleanCommand is an optional command to clean build artifacts
	CleanCommand []string

	// OutputPatterns are glob patterns to find built modules
	// (e.g. "*.so", "builddir/*.so")
	OutputPatterns []string
}

// NewGenericBuilder creates a new GenericBuilder from configuration.
func NewGenericBuilder(config *GenericBuilderConfig) *GenericBuilder {
	return &GenericBuilder{
		name:             config.Name,
		patterns:         config.Patterns,
		tools:            config.Tools,
		configureCommand: config.ConfigureCommand,
		buildCommand:     config.BuildCommand,
		cleanCommand:     config.CleanCommand,
		outputPatterns:   config.OutputPatterns,
	}
}

// Name returns the builder name
func (b *GenericBuilder) Name() string {
	return b.name
}

// RequiredTools returns the tools needed for this builder
func (b *GenericBuilder) RequiredTools() []ToolRequirement {
	return b.tools
}

// CheckTools verifies that all required tools are available
func (b *GenericBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *GenericBuilder) CanBuild(extensionFile string) bool {
	filename := strings.ToLower(filepath.Base(extensionFile))

	for _, pattern := range b.patterns {
		// Support both exact matches and glob patterns
		if matched, _ := filepath.Match(strings.ToLower(pattern), filename); matched {
			return true
		}
	}

	return false
}

// Build compiles the extension using the configured commands
func (b *GenericBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	return runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.runConfigure,
		BuildFunc:     b.runBuild,
		FindFunc:      b.findBuiltExtensions,
	})
}

// Clean removes build artifacts using the configured clean command
func (b *GenericBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	if len(b.cleanCommand) == 0 {
		return nil // No clean command configured
	}

	extensionPath := filepath.Join(config.ProjectDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	// Execute clean command
	//nolint:gosec // Command is from trusted builder configuration
	cmd := exec.CommandContext(ctx, b.cleanCommand[0], b.cleanCommand[1:]...)
	cmd.Dir = extensionDir

	// Ignore errors - clean may not be necessary
	_ = cmd.Run()
	return nil
}

// runConfigure executes the configure command when one is set
func (b *GenericBuilder) runConfigure(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	if len(b.configureCommand) == 0 {
		if config.Verbose {
			result.Output = append(result.Output, fmt.Sprintf("%s builder, no configure step", b.name))
		}
		return nil
	}
	return b.runCommand(ctx, config, extensionDir, result, b.configureCommand, nil)
}

// runBuild executes the configured build command
func (b *GenericBuilder) runBuild(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	if len(b.buildCommand) == 0 {
		return fmt.Errorf("no build command configured for %s builder", b.name)
	}
	return b.runCommand(ctx, config, extensionDir, result, b.buildCommand, config.BuildArgs)
}

// runCommand expands placeholders in a command template and executes it in
// the extension directory.
func (b *GenericBuilder) runCommand(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult, command, extraArgs []string) error {
	inputFile := filepath.Base(extensionDir) // Default input
	outputFile := "extension.so"             // Default output

	// If dest path specified, place output there
	if config.DestPath != "" {
		outputFile = filepath.Join(config.DestPath, outputFile)
	}

	args := make([]string, len(command))
	for i, arg := range command {
		arg = strings.ReplaceAll(arg, "{{input}}", inputFile)
		arg = strings.ReplaceAll(arg, "{{output}}", outputFile)
		arg = strings.ReplaceAll(arg, "{{dir}}", extensionDir)
		args[i] = arg
	}
	args = append(args, extraArgs...)

	//nolint:gosec // Command is from trusted builder configuration
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
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
			fmt.Sprintf("Running: %s", strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	if err != nil {
		return BuildError(b.name, result.Output, err)
	}

	return nil
}

// findBuiltExtensions locates compiled module files using configured patterns
func (b *GenericBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
	var extensions []string

	for _, pattern := range b.outputPatterns {
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

// Predefined configurations for common binding generators

// NewMesonBuilder creates a builder for meson-driven (pybind11) trees.
func NewMesonBuilder() *GenericBuilder {
	return NewGenericBuilder(&GenericBuilderConfig{
		Name:     "Meson",
		Patterns: []string{"meson.build"},
		Tools: []ToolRequirement{
			{Name: "meson", Purpose: "Meson build system"},
			{Name: "ninja", Purpose: "Ninja build tool"},
		},
		ConfigureCommand: []string{"meson", "setup", "builddir"},
		BuildCommand:     []string{"meson", "compile", "-C", "builddir"},
		CleanCommand:     []string{"ninja", "-C", "builddir", "clean"},
		OutputPatterns:   []string{"builddir/*.so", "builddir/*.pyd"},
	})
}

// NewCFFIBuilder creates a builder for cffi out-of-line build scripts.
func NewCFFIBuilder() *GenericBuilder {
	return NewGenericBuilder(&GenericBuilderConfig{
		Name:     "CFFI",
		Patterns: []string{"*_build.py"},
		Tools: []ToolRequirement{
			{Name: "python3", Alternatives: []string{"python"}, Purpose: "Python interpreter with cffi"},
			{Name: "gcc", Alternatives: []string{"clang", "cc"}, Purpose: "C compiler"},
		},
		BuildCommand:   []string{"python3", "{{input}}"},
		OutputPatterns: []string{"*.so", "*.pyd"},
	})
}
