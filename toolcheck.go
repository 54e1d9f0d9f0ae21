package cyext

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolChecker is an optional interface for builders that require external
// tools.
//
// Builders can implement this interface to declare their tool dependencies
// and verify that required tools are available before attempting to build.
// This is an opt-in interface - builders that don't implement it work
// exactly as before.
//
// # Platform Support
//
// Tool alternatives handle platform differences:
//   - Windows: cl (MSVC) instead of g++, python instead of python3
//   - macOS: clang++ by default
//   - Linux: g++/python3 by default
//
// # Consumer Usage
//
// Check tools before building:
//
//	if checker, ok := builder.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return fmt.Errorf("build tools missing: %w", err)
//	    }
//	}
//
// # Thread Safety
//
// Implementations should be thread-safe as they may be called concurrently.
type ToolChecker interface {
	// RequiredTools returns the list of tools this builder needs.
	RequiredTools() []ToolRequirement

	// CheckTools verifies that all required tools are available.
	//
	// Returns nil if all required tools are found, or an error describing
	// which tools are missing. Optional tools don't cause errors if
	// missing. This method can be called before Build() to fail fast.
	CheckTools() error
}

// ToolRequirement describes a build tool dependency.
//
// This structure allows builders to declare:
//   - Required tools (must be available)
//   - Optional tools (nice to have, but not required)
//   - Alternative tools (any one of several tools can satisfy the requirement)
//
// # Example
//
//	ToolRequirement{
//	    Name:         "g++",
//	    Alternatives: []string{"clang++", "c++", "cl"},
//	    Purpose:      "C++ compiler for native extensions",
//	}
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g. "cython", "cmake").
	Name string

	// Alternatives are alternative tool names that can satisfy this
	// requirement. If any tool in Alternatives is found, the requirement
	// is satisfied. Example: []string{"clang++", "c++"}
	Alternatives []string

	// Optional indicates this tool won't cause an error if missing.
	// Optional tools are still checked, but don't fail the build.
	Optional bool

	// Purpose is a human-readable description of why this tool is needed.
	// Example: "Cython compiler" or "C++ compiler for native extensions"
	Purpose string
}

// CheckToolAvailable checks if a tool is available in the system PATH.
//
// This is a simple wrapper around exec.LookPath that provides consistent
// error messages.
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func CheckToolAvailable(tool string) error {
	_, err := exec.LookPath(tool)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available.
//
// # Behavior
//
//   - Checks the primary tool name first
//   - If not found, tries each alternative tool in order
//   - Optional tools are checked but don't cause errors
//   - Returns all missing required tools in a single error
//
// # Error Format
//
// Single missing tool:
//
//	cython not found in PATH (Cython compiler)
//
// Multiple missing tools:
//
//	missing required tools: cython (Cython compiler), g++ (C++ compiler)
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		// Try the primary tool
		found := CheckToolAvailable(req.Name) == nil

		// If not found, try alternatives
		if !found && len(req.Alternatives) > 0 {
			for _, alt := range req.Alternatives {
				if CheckToolAvailable(alt) == nil {
					found = true
					break
				}
			}
		}

		// If still not found and not optional, record it
		if !found && !req.Optional {
			if req.Purpose != "" {
				missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
			} else {
				missingTools = append(missingTools, req.Name)
			}
		}
	}

	if len(missingTools) == 0 {
		return nil
	}

	if len(missingTools) == 1 {
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	}

	return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
}
