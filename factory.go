package cyext

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TargetBuilder is an optional interface for builders that consume a full
// Extension definition rather than just a source path.
//
// The CythonBuilder implements it: compiling a .pyx source needs the
// target's libraries, search paths and compile flags, not just the file
// name. Builders that drive an external build description (setup.py,
// CMakeLists.txt) don't need it - the description already carries that
// information.
type TargetBuilder interface {
	Builder

	// BuildTarget compiles the given extension target.
	BuildTarget(ctx context.Context, config *BuildConfig, target Extension) (*BuildResult, error)
}

// BuilderFactory manages the registration and selection of extension
// builders.
//
// The factory maintains a registry of Builder implementations and provides
// methods to:
//   - Register new builders
//   - Find the appropriate builder for a source file
//   - Build a list of extension targets, sequentially or in parallel
//
// # Usage
//
// Create a factory with all standard builders:
//
//	factory := cyext.NewBuilderFactory()
//
// Or create an empty factory and register custom builders:
//
//	factory := &cyext.BuilderFactory{}
//	factory.Register(&MyCustomBuilder{})
//
// Then use it to build extensions:
//
//	results, err := factory.BuildAllExtensions(ctx, config, targets)
//
// # Builder Selection
//
// When building an extension, the factory:
//  1. Extracts the filename from the target's source path
//  2. Calls CanBuild() on each registered builder in order
//  3. Uses the first builder that returns true
//  4. Returns an error if no builder can handle the file
//
// # Thread Safety
//
// BuilderFactory is NOT thread-safe for registration.
// Register all builders before concurrent use.
// After registration, read operations (BuilderFor, BuildAllExtensions,
// BuildExtensionsParallel) are safe.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with all standard builders registered.
//
// The standard builders are registered in this order:
//  1. CythonBuilder - *.pyx sources
//  2. SetupBuilder - setup.py
//  3. CMakeBuilder - CMakeLists.txt
//  4. MakefileBuilder - Makefile, GNUmakefile
//  5. GoBuilder - go.mod and *.go sources
//
// This is the recommended way to create a BuilderFactory for most use
// cases.
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	// Register all standard builders in priority order
	factory.Register(&CythonBuilder{})
	factory.Register(&SetupBuilder{})
	factory.Register(&CMakeBuilder{})
	factory.Register(&MakefileBuilder{})
	factory.Register(&GoBuilder{})

	return factory
}

// Register adds a new builder to the factory.
//
// Builders are checked in the order they are registered. If multiple
// builders can handle the same file type, the first registered builder
// will be used.
//
// Not thread-safe. Register all builders before concurrent use.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the appropriate builder for the given source file.
//
// The extensionFile can be a full path (e.g. "folly/iobuf.pyx") or just a
// filename (e.g. "setup.py"). Only the base filename is used for matching.
//
// Returns the first builder whose CanBuild() method returns true, or an
// error if no builder can handle the file.
func (f *BuilderFactory) BuilderFor(extensionFile string) (Builder, error) {
	filename := filepath.Base(extensionFile)

	for _, builder := range f.builders {
		if builder.CanBuild(filename) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("no builder found for extension file: %s", filename)
}

// ListBuilders returns a copy of all registered builders.
//
// The returned slice is a copy and can be modified without affecting the
// factory's internal state.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// buildOne routes a single target to its builder, preferring the
// TargetBuilder path when the builder supports it.
func (f *BuilderFactory) buildOne(ctx context.Context, config *BuildConfig, target Extension) (*BuildResult, error) {
	builder, err := f.BuilderFor(target.Source)
	if err != nil {
		return &BuildResult{Success: false, Error: err}, err
	}

	config.logger().Debug("building extension",
		zap.String("module", target.Name),
		zap.String("source", target.Source),
		zap.String("builder", builder.Name()))

	if tb, ok := builder.(TargetBuilder); ok {
		return tb.BuildTarget(ctx, config, target)
	}
	return builder.Build(ctx, config, target.Source)
}

// BuildAllExtensions builds all extension targets in sequence.
//
// This method processes each target in order:
//  1. Check for context cancellation
//  2. Find the appropriate builder
//  3. Build the extension
//  4. Collect the result
//  5. Stop on first failure if config.StopOnFailure is true
//
// # Return Values
//
// Returns:
//   - A slice of BuildResult, one for each target processed
//   - The first error encountered (if any)
//
// Even if an error is returned, the results slice will contain partial
// results for targets that were processed.
//
// # Error Handling
//
// If config.StopOnFailure is true (the DefaultBuildConfig setting):
//   - Processing stops after the first failed extension
//   - Results slice contains results up to and including the failure
//
// If config.StopOnFailure is false:
//   - All targets are processed regardless of failures
//   - The first error encountered is returned
//
// # Context Cancellation
//
// If the context is canceled during processing:
//   - Processing stops immediately
//   - A BuildResult with the context error is added
//   - The context error is returned
func (f *BuilderFactory) BuildAllExtensions(ctx context.Context, config *BuildConfig, targets []Extension) ([]*BuildResult, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	var results []*BuildResult
	var firstError error

	for _, target := range targets {
		// Check for context cancellation
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, &BuildResult{
				Success: false,
				Error:   ctxErr,
			})
			break
		}

		result, err := f.buildOne(ctx, config, target)
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			// Ensure we have a result even if the builder didn't return one
			if result == nil {
				result = &BuildResult{
					Success: false,
					Error:   err,
				}
			}
		}

		results = append(results, result)

		// Stop on first failure if configured
		if !result.Success && config.StopOnFailure {
			break
		}
	}

	return results, firstError
}

// BuildExtensionsParallel builds extension targets with bounded
// parallelism.
//
// Up to concurrency targets compile at once. The first failure cancels
// the group context, so outstanding builds abort as soon as their
// toolchain notices the cancellation; the all-or-nothing semantic of the
// sequential path is preserved, only the ordering of the abort differs.
//
// Results are returned in target order. Targets that never started
// because the group was cancelled have a nil slot.
func (f *BuilderFactory) BuildExtensionsParallel(ctx context.Context, config *BuildConfig, targets []Extension, concurrency int) ([]*BuildResult, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be > 0")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	results := make([]*BuildResult, len(targets))
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			result, err := f.buildOne(gctx, config, target)
			results[i] = result
			return err
		})
	}

	return results, g.Wait()
}
