package cyext

import (
	"strings"
	"testing"
)

func TestCheckToolAvailable(t *testing.T) {
	if err := CheckToolAvailable("tool-that-definitely-does-not-exist"); err == nil {
		t.Error("expected error for missing tool")
	}
}

func TestCheckRequiredTools(t *testing.T) {
	// Optional tools never fail the check
	err := CheckRequiredTools([]ToolRequirement{
		{Name: "tool-that-definitely-does-not-exist", Optional: true},
	})
	if err != nil {
		t.Errorf("optional tool should not fail the check: %v", err)
	}

	// A missing required tool reports its purpose
	err = CheckRequiredTools([]ToolRequirement{
		{Name: "tool-that-definitely-does-not-exist", Purpose: "imaginary compiler"},
	})
	if err == nil {
		t.Fatal("expected error for missing required tool")
	}
	if !strings.Contains(err.Error(), "imaginary compiler") {
		t.Errorf("error %q should mention the tool's purpose", err.Error())
	}

	// Multiple missing tools are reported together
	err = CheckRequiredTools([]ToolRequirement{
		{Name: "missing-tool-one"},
		{Name: "missing-tool-two"},
	})
	if err == nil || !strings.Contains(err.Error(), "missing required tools") {
		t.Errorf("expected combined error, got %v", err)
	}

	// Alternatives satisfy a requirement even when the primary is missing
	err = CheckRequiredTools([]ToolRequirement{
		{Name: "tool-that-definitely-does-not-exist", Alternatives: []string{"sh"}},
	})
	if err != nil {
		t.Errorf("alternative should satisfy requirement: %v", err)
	}
}
