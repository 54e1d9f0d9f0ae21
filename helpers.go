package cyext

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchesPattern checks if a filename matches any of the given regex patterns.
//
// This is a helper function for builder implementations to determine if they
// can handle a given source file based on filename patterns. If a pattern is
// invalid regex, it is silently skipped.
//
// # Example
//
//	// Check if file is a Cython source
//	if MatchesPattern(filename, `\.pyx$`) {
//	    // Handle Cython source
//	}
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, filename); matched {
			return true
		}
	}
	return false
}

// MatchesExtension checks if a filename has any of the given extensions.
//
// This is a case-insensitive check for file extensions, useful for
// checking compiled module files (.so, .pyd, .dylib). Extensions may be
// given with or without the leading dot.
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func MatchesExtension(filename string, extensions ...string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
//
// This helper formats build errors consistently across all builders,
// including the full toolchain output for debugging. There is no error
// taxonomy beyond built/failed: missing compilers, missing headers and
// source errors all surface through the underlying tool's diagnostics.
//
// # Format
//
// With error and output:
//
//	Cython build failed: exit status 1
//
//	Build output:
//	folly/iobuf.pyx:12:4: undeclared name
//
// With error but no output:
//
//	Cython build failed: exit status 1
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.Join(output, "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s build failed: %v", builder, err)
	} else {
		prefix = fmt.Sprintf("%s build failed", builder)
	}

	if outputStr != "" {
		return fmt.Errorf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return fmt.Errorf("%s", prefix)
}
