package cyext

import (
	"context"

	"go.uber.org/zap"
)

// Extension describes one native extension target.
//
// An extension is a single loadable module compiled from a Cython source
// (plus any extra C++ translation units) and linked against a set of
// native libraries. The zero value is not useful; at minimum Name and
// Source must be set.
//
// Fields:
//   - Name: dotted module name, e.g. "folly.iobuf". The final path
//     component becomes the artifact base name.
//   - Source: the Cython source file, relative to the project directory
//     (e.g. "folly/iobuf.pyx").
//   - ExtraSources: additional C++ sources compiled into the same module.
//   - Libraries: native libraries to link (-l), e.g. "glog", "folly".
//   - LibraryDirs: library search paths (-L).
//   - IncludeDirs: header search paths (-I).
//   - CompileArgs: extra compiler flags, already tokenized.
type Extension struct {
	Name         string   // Dotted module name (folly.iobuf)
	Source       string   // Cython source file (folly/iobuf.pyx)
	ExtraSources []string // Additional C++ sources linked into the module
	Libraries    []string // Native libraries to link against
	LibraryDirs  []string // Library search paths
	IncludeDirs  []string // Header search paths
	CompileArgs  []string // Extra compiler flags
}

// ArtifactName returns the base file name of the built module, without
// the platform suffix. For "folly.iobuf" this is "iobuf".
func (e Extension) ArtifactName() string {
	name := e.Name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from the build process (stdout/stderr)
//   - Extensions list of compiled module files (.so/.pyd/.dylib)
//   - Error information if the build failed
type BuildResult struct {
	Success             bool     // True if build completed successfully
	Output              []string // Lines of output from the build process
	Extensions          []string // Paths to built extension modules
	Error               error    // Error if build failed, nil otherwise
	MissingDependencies []string // Names of build-time tools that were missing
}

// BuildConfig contains configuration for the build process.
//
// Source paths define where files are located:
//   - ProjectDir: root of the binding source tree
//   - DestPath: destination directory for compiled modules and package data
//
// Build configuration:
//   - BuildArgs: additional arguments passed to the build tool
//   - Env: environment variables set during build
//   - Parallel: number of parallel compile jobs (0 = tool default)
//
// Python environment:
//   - PythonPath: path to the Python interpreter
//   - PythonVersion: interpreter version string (e.g. "3.12")
//
// Build behavior:
//   - Verbose: record the commands run alongside their output
//   - CleanFirst: run a clean step before building
//   - StopOnFailure: abort after the first failed extension. This is the
//     all-or-nothing semantic of an orchestrated static build step and is
//     the default from DefaultBuildConfig.
//
// Logger, when non-nil, receives structured per-step debug logging in
// addition to the output captured on the BuildResult.
type BuildConfig struct {
	// Source paths
	ProjectDir string // Root directory of the binding source tree
	DestPath   string // Destination for compiled modules and package data

	// Build arguments
	BuildArgs []string          // Additional build arguments
	Env       map[string]string // Environment variables for build

	// Python configuration
	PythonPath    string // Path to Python interpreter
	PythonVersion string // Interpreter version (3.12, etc.)

	// Build options
	Verbose    bool // Enable verbose output
	CleanFirst bool // Run clean before build
	Parallel   int  // Number of parallel compile jobs

	// Failure handling
	StopOnFailure bool // Stop after the first failed extension build

	// Optional structured logging
	Logger *zap.Logger
}

// DefaultBuildConfig returns a BuildConfig with the all-or-nothing
// defaults used by orchestrated builds: StopOnFailure enabled, python3
// as the interpreter.
func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		PythonPath:    "python3",
		StopOnFailure: true,
	}
}

// logger returns the configured logger or a no-op one.
func (c *BuildConfig) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// CommonBuildSteps defines the standard 3-step build pattern used by
// multiple builders.
//
// Extension build systems follow a similar pattern:
//  1. Configure: generate build files or run code generation
//  2. Build: compile and link the module
//  3. Find: locate the compiled module files
//
// This structure allows builders to implement this pattern consistently
// while customizing each step's behavior.
type CommonBuildSteps struct {
	// ConfigureFunc prepares the build (e.g. run cython codegen, cmake)
	ConfigureFunc func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error

	// BuildFunc compiles the module (e.g. run the C++ compiler, make)
	BuildFunc func(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error

	// FindFunc locates the compiled module files after build completes
	FindFunc func(extensionDir string) ([]string, error)
}
