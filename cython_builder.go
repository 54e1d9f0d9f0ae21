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

// CythonBuilder handles *.pyx sources - the cython codegen plus C++
// compile/link workflow.
//
// The build runs in two phases, mirroring what setuptools' cythonize does
// behind the scenes:
//  1. cython --cplus translates the .pyx source into a C++ translation
//     unit. Cython stops at the first error, so a broken binding aborts
//     the whole build immediately.
//  2. The C++ compiler builds the generated unit (plus any ExtraSources)
//     into a shared module linked against the target's native libraries.
type CythonBuilder struct{}

// Name returns the builder name
func (b *CythonBuilder) Name() string {
	return "Cython"
}

// RequiredTools returns the tools needed for Cython builds
func (b *CythonBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    "cython",
			Purpose: "Cython compiler for .pyx sources",
		},
		{
			Name:         "g++",
			Alternatives: []string{"clang++", "c++", "cl"},
			Purpose:      "C++ compiler for native extensions",
		},
		{
			Name:         "python3",
			Alternatives: []string{"python"},
			Purpose:      "Python interpreter for header discovery",
		},
	}
}

// CheckTools verifies that cython and a C++ compiler are available
func (b *CythonBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *CythonBuilder) CanBuild(extensionFile string) bool {
	return MatchesPattern(extensionFile, `\.pyx$`)
}

// Build compiles a bare .pyx source with no target definition.
//
// Without an Extension the module links against nothing; use BuildTarget
// for real binding modules.
func (b *CythonBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	base := filepath.Base(extensionFile)
	target := Extension{
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
		Source: extensionFile,
	}
	return b.BuildTarget(ctx, config, target)
}

// BuildTarget compiles the extension using the cython → C++ workflow.
//
// When config.DestPath is set, the built module and its package data
// (*.pxd, *.h) are installed into the destination layout and the result
// lists the installed paths.
func (b *CythonBuilder) BuildTarget(ctx context.Context, config *BuildConfig, target Extension) (*BuildResult, error) {
	result, err := runCommonBuild(ctx, config, target.Source, CommonBuildSteps{
		ConfigureFunc: func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
			return b.runCython(ctx, config, extensionDir, target, result)
		},
		BuildFunc: func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
			return b.runCompile(ctx, config, extensionDir, target, result)
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

// Clean removes the generated translation unit and compiled modules
func (b *CythonBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	extensionPath := filepath.Join(config.ProjectDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)
	base := strings.TrimSuffix(filepath.Base(extensionFile), ".pyx")

	patterns := []string{base + ".cpp", base + "*.so", base + "*.pyd", base + "*.dylib"}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(extensionDir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			_ = os.Remove(match)
		}
	}
	return nil
}

// runCython executes cython to generate the C++ translation unit
func (b *CythonBuilder) runCython(ctx context.Context, config *BuildConfig, extensionDir string, target Extension, result *BuildResult) error {
	sourceFile := filepath.Base(target.Source)

	// language_level 3, C++ output
	args := []string{"--cplus", "-3", sourceFile}
	args = append(args, config.BuildArgs...)

	cmd := exec.CommandContext(ctx, "cython", args...)
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
			fmt.Sprintf("Running: cython %s", strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	if err != nil {
		return BuildError("Cython", result.Output, err)
	}

	// Verify the translation unit was created
	generated := filepath.Join(extensionDir, strings.TrimSuffix(sourceFile, ".pyx")+".cpp")
	if _, err := os.Stat(generated); os.IsNotExist(err) {
		return BuildError("Cython", result.Output, fmt.Errorf("translation unit not generated"))
	}

	return nil
}

// runCompile builds the generated translation unit into a shared module
func (b *CythonBuilder) runCompile(ctx context.Context, config *BuildConfig, extensionDir string, target Extension, result *BuildResult) error {
	compiler := b.getCompiler()
	base := strings.TrimSuffix(filepath.Base(target.Source), ".pyx")

	args := []string{"-shared", "-fPIC"}
	args = append(args, target.CompileArgs...)

	// Interpreter headers come first, then the target's own search paths
	if includePy := b.pythonIncludeDir(ctx, config); includePy != "" {
		args = append(args, "-I"+includePy)
	}
	for _, dir := range target.IncludeDirs {
		args = append(args, "-I"+dir)
	}

	args = append(args, base+".cpp")
	for _, src := range target.ExtraSources {
		args = append(args, filepath.Join(config.ProjectDir, src))
	}

	for _, dir := range target.LibraryDirs {
		args = append(args, "-L"+dir)
	}
	for _, lib := range target.Libraries {
		args = append(args, "-l"+lib)
	}

	args = append(args, "-o", target.ArtifactName()+".so")

	cmd := exec.CommandContext(ctx, compiler, args...)
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
			fmt.Sprintf("Running: %s %s", compiler, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	if err != nil {
		return BuildError("Compile", result.Output, err)
	}

	return nil
}

// pythonIncludeDir asks the interpreter for its header directory, the
// equivalent of sysconfig's INCLUDEPY. An unusable interpreter leaves the
// include path to the target's IncludeDirs; the compile step will surface
// any missing Python.h through the compiler's own diagnostics.
func (b *CythonBuilder) pythonIncludeDir(ctx context.Context, config *BuildConfig) string {
	python := config.PythonPath
	if python == "" {
		python = "python3"
	}

	cmd := exec.CommandContext(ctx, python, "-c", "import sysconfig; print(sysconfig.get_config_var('INCLUDEPY'))")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// findBuiltExtensions locates the compiled module files
func (b *CythonBuilder) findBuiltExtensions(extensionDir string) ([]string, error) {
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

// getCompiler returns the appropriate C++ compiler for the platform
func (b *CythonBuilder) getCompiler() string {
	// Check environment variable first
	if cxx := os.Getenv("CXX"); cxx != "" {
		return cxx
	}

	// Platform-specific defaults
	switch runtime.GOOS {
	case platformWindows:
		return "cl"
	case "darwin":
		return "clang++"
	default:
		return "g++"
	}
}
