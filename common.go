package cyext

import (
	"context"
	"path/filepath"
)

// runCommonBuild executes the standard 3-step build process.
//
// Extension build systems follow a similar pattern:
//  1. Configure: run code generation or generate build files
//  2. Build: compile and link the module using the generated files
//  3. Find: locate the compiled module files (.so, .pyd, .dylib)
//
// This function provides a consistent way to execute this pattern,
// allowing builders to focus on implementing their specific logic for
// each step.
//
// # Process Flow
//
//  1. Create empty BuildResult
//  2. Calculate extension directory from extensionFile path
//  3. Call ConfigureFunc to prepare the build
//  4. Call BuildFunc to compile the module
//  5. Call FindFunc to locate compiled files
//  6. Return BuildResult with Success=true
//
// If any step fails, processing stops and the error is returned with
// Success=false. There is no partial-success or retry semantic: the
// failed step's error carries the toolchain's own diagnostics and
// terminates the build.
//
// The BuildResult.Output field is populated by the step functions as
// they execute.
//
// # Thread Safety
//
// This function is thread-safe as long as the provided step functions
// are thread-safe and don't share mutable state.
func runCommonBuild(ctx context.Context, config *BuildConfig, extensionFile string, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	// Calculate extension directory
	extensionPath := filepath.Join(config.ProjectDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	// Step 1: Configure/prepare the build
	if err := steps.ConfigureFunc(ctx, config, extensionDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Build/compile the module
	if err := steps.BuildFunc(ctx, config, extensionDir, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Find the built module files
	extensions, err := steps.FindFunc(extensionDir)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Extensions = extensions
	result.Success = true
	return result, nil
}
