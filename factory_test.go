package cyext

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// fakeBuilder records build order and fails on configured sources.
type fakeBuilder struct {
	mu      sync.Mutex
	built   []string
	failOn  map[string]bool
	targets []Extension
}

func (b *fakeBuilder) Name() string { return "Fake" }

func (b *fakeBuilder) CanBuild(extensionFile string) bool {
	return strings.HasSuffix(extensionFile, ".fake")
}

func (b *fakeBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.built = append(b.built, extensionFile)
	if b.failOn[extensionFile] {
		err := errors.New("fake failure")
		return &BuildResult{Success: false, Error: err}, err
	}
	return &BuildResult{Success: true, Extensions: []string{extensionFile + ".so"}}, nil
}

func (b *fakeBuilder) Clean(ctx context.Context, config *BuildConfig, extensionFile string) error {
	return nil
}

// fakeTargetBuilder additionally records full targets through the
// TargetBuilder path.
type fakeTargetBuilder struct {
	fakeBuilder
}

func (b *fakeTargetBuilder) BuildTarget(ctx context.Context, config *BuildConfig, target Extension) (*BuildResult, error) {
	b.mu.Lock()
	b.targets = append(b.targets, target)
	b.mu.Unlock()
	return b.Build(ctx, config, target.Source)
}

func fakeTargets(sources ...string) []Extension {
	targets := make([]Extension, 0, len(sources))
	for _, s := range sources {
		targets = append(targets, Extension{Name: s, Source: s})
	}
	return targets
}

func TestBuildAllExtensionsStopOnFailure(t *testing.T) {
	builder := &fakeBuilder{failOn: map[string]bool{"b.fake": true}}
	factory := &BuilderFactory{}
	factory.Register(builder)

	config := DefaultBuildConfig()

	results, err := factory.BuildAllExtensions(context.Background(), config, fakeTargets("a.fake", "b.fake", "c.fake"))
	if err == nil {
		t.Fatal("expected error from failing build")
	}

	// Fast-fail: c.fake never builds
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Success || results[1].Success {
		t.Errorf("unexpected result statuses: %v %v", results[0].Success, results[1].Success)
	}
	if len(builder.built) != 2 {
		t.Errorf("expected 2 builds before stopping, got %v", builder.built)
	}
}

func TestBuildAllExtensionsContinueOnFailure(t *testing.T) {
	builder := &fakeBuilder{failOn: map[string]bool{"b.fake": true}}
	factory := &BuilderFactory{}
	factory.Register(builder)

	config := DefaultBuildConfig()
	config.StopOnFailure = false

	results, err := factory.BuildAllExtensions(context.Background(), config, fakeTargets("a.fake", "b.fake", "c.fake"))
	if err == nil {
		t.Fatal("expected first error to be reported")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[2].Success {
		t.Error("expected c.fake to build after failure when StopOnFailure is off")
	}
}

func TestBuildAllExtensionsCancellation(t *testing.T) {
	builder := &fakeBuilder{}
	factory := &BuilderFactory{}
	factory.Register(builder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := factory.BuildAllExtensions(ctx, DefaultBuildConfig(), fakeTargets("a.fake"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 1 || results[0].Success {
		t.Error("expected a single failed result for cancelled build")
	}
	if len(builder.built) != 0 {
		t.Errorf("no build should run after cancellation, got %v", builder.built)
	}
}

func TestBuildAllExtensionsTargetBuilderPath(t *testing.T) {
	builder := &fakeTargetBuilder{}
	factory := &BuilderFactory{}
	factory.Register(builder)

	target := Extension{
		Name:      "folly.fake",
		Source:    "folly/fake.fake",
		Libraries: []string{"glog"},
	}

	results, err := factory.BuildAllExtensions(context.Background(), DefaultBuildConfig(), []Extension{target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatal("expected one successful result")
	}

	// The full target must reach the builder, not just the source path
	if len(builder.targets) != 1 || builder.targets[0].Name != "folly.fake" {
		t.Errorf("expected target to flow through TargetBuilder, got %+v", builder.targets)
	}
	if !containsString(builder.targets[0].Libraries, "glog") {
		t.Error("target libraries lost on the TargetBuilder path")
	}
}

func TestBuildExtensionsParallel(t *testing.T) {
	builder := &fakeBuilder{}
	factory := &BuilderFactory{}
	factory.Register(builder)

	targets := fakeTargets("a.fake", "b.fake", "c.fake", "d.fake")

	results, err := factory.BuildExtensionsParallel(context.Background(), DefaultBuildConfig(), targets, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, result := range results {
		if result == nil || !result.Success {
			t.Errorf("result %d not successful: %+v", i, result)
		}
	}
}

func TestBuildExtensionsParallelFailure(t *testing.T) {
	builder := &fakeBuilder{failOn: map[string]bool{"b.fake": true}}
	factory := &BuilderFactory{}
	factory.Register(builder)

	targets := fakeTargets("a.fake", "b.fake", "c.fake")

	_, err := factory.BuildExtensionsParallel(context.Background(), DefaultBuildConfig(), targets, 1)
	if err == nil {
		t.Fatal("expected error from failing build")
	}
}

func TestBuildExtensionsParallelBadConcurrency(t *testing.T) {
	factory := NewBuilderFactory()

	_, err := factory.BuildExtensionsParallel(context.Background(), DefaultBuildConfig(), fakeTargets("a.fake"), 0)
	if err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}
