package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	safeDir := t.TempDir()

	inside := filepath.Join(safeDir, "clouds")
	if err := os.MkdirAll(inside, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := ValidatePathWithinDirectory(inside, safeDir); err != nil {
		t.Errorf("expected path inside safe dir to validate, got: %v", err)
	}

	// Non-existent child of the safe dir is still acceptable (validated via parents).
	missing := filepath.Join(safeDir, "not-yet-created")
	if err := ValidatePathWithinDirectory(missing, safeDir); err != nil {
		t.Errorf("expected missing path under safe dir to validate, got: %v", err)
	}

	outside := t.TempDir()
	if err := ValidatePathWithinDirectory(outside, safeDir); err == nil {
		t.Error("expected path outside safe dir to be rejected")
	}

	traversal := filepath.Join(safeDir, "..", "escape")
	if err := ValidatePathWithinDirectory(traversal, safeDir); err == nil {
		t.Error("expected ../ traversal to be rejected")
	}
}

func TestValidatePathWithinDirectorySymlinkEscape(t *testing.T) {
	safeDir := t.TempDir()
	elsewhere := t.TempDir()

	link := filepath.Join(safeDir, "sneaky")
	if err := os.Symlink(elsewhere, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if err := ValidatePathWithinDirectory(link, safeDir); err == nil {
		t.Error("expected symlink escaping safe dir to be rejected")
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "nested"), safeDir); err == nil {
		t.Error("expected path under escaping symlink to be rejected")
	}
}

func TestValidateFolderWithinRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()

	sub := filepath.Join(rootB, "detections")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := ValidateFolderWithinRoots(sub, []string{rootA, rootB}); err != nil {
		t.Errorf("expected folder under second root to validate, got: %v", err)
	}

	if err := ValidateFolderWithinRoots(t.TempDir(), []string{rootA, rootB}); err == nil {
		t.Error("expected folder outside all roots to be rejected")
	}

	if err := ValidateFolderWithinRoots(sub, nil); err == nil {
		t.Error("expected empty roots to reject everything")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"Detection_42", "Detection_42"},
		{"weird name!!", "weird_name"},
		{"../../etc/passwd", "etc_passwd"},
		{"...", "unknown"},
		{"a b  c", "a_b_c"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
