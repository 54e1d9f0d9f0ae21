// Package cyext provides native extension compilation support for Cython
// binding modules.
//
// This package is the Go equivalent of the setup.py build glue that ships
// with C++ libraries exposing Cython bindings: it derives compiler and
// linker configuration from the environment, constructs extension target
// definitions, and delegates code generation and native compilation to
// external toolchains.
//
// # Supported Build Systems
//
// The package includes builders for:
//   - *.pyx - Cython sources compiled through cython + a C++ compiler
//   - setup.py - setuptools-driven builds (build_ext --inplace)
//   - CMakeLists.txt - CMake-orchestrated extension builds
//   - Makefile - handwritten make-based extension builds
//   - go.mod - Go c-shared builds producing loadable modules
//   - generic template commands (meson/pybind11, cffi)
//
// # Basic Usage
//
// Derive configuration from the environment and build the standard targets:
//
//	flags := cyext.DeriveFlags(os.Getenv)
//	extensions := cyext.StandardExtensions(flags)
//
//	config := cyext.DefaultBuildConfig()
//	config.ProjectDir = "/path/to/bindings"
//	config.DestPath = "/path/to/install"
//
//	factory := cyext.NewBuilderFactory()
//	results, err := factory.BuildAllExtensions(ctx, config, extensions)
//
// Any compilation error aborts the whole run: this is an all-or-nothing
// static build step invoked by an external orchestrator (typically cmake),
// not a service with recoverable error states.
//
// # Architecture
//
// The package uses a factory pattern with registered builders:
//
//	BuilderFactory
//	├── CythonBuilder (*.pyx)
//	├── SetupBuilder (setup.py)
//	├── CMakeBuilder (CMakeLists.txt)
//	├── MakefileBuilder (Makefile)
//	└── GoBuilder (go.mod, *.go)
//
// Each builder implements the Builder interface and can:
//   - Detect if it can handle a given extension source
//   - Build the extension with proper error handling
//   - Clean build artifacts
//
// The companion packages iobuf and executor implement the Go side of the
// buffer and executor bridge that the generated bindings wrap.
//
// # Requirements
//
// Requires Go 1.25 or later.
//
// # Platform Support
//
// Full support on Linux and macOS. Limited Windows support (MSVC/MinGW).
package cyext
