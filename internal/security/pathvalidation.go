// Package security validates user-supplied filesystem paths. Folder paths
// arrive over the HTTP API, so every path is checked against the configured
// allowed roots before the catalog touches it.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks if a path is within a safe directory.
// It prevents path traversal attacks by ensuring the resolved path doesn't escape
// the specified safe directory. This includes protection against symlink-based attacks.
func ValidatePathWithinDirectory(path, safeDir string) error {
	// Clean the path to resolve . and .. components
	cleanPath := filepath.Clean(path)

	// Get absolute paths for proper validation
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	// Resolve symlinks to get canonical paths (prevents symlink-based
	// traversal attacks). Paths that don't exist yet canonicalize through
	// their nearest existing ancestor.
	canonicalPath := canonicalize(absPath)
	canonicalSafeDir := canonicalize(absSafeDir)

	// Check if canonical path is within canonical safe directory
	relPath, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}

	// Reject paths that escape the safe directory
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", path, safeDir)
	}

	return nil
}

// canonicalize resolves every symlink in absPath. When the path does not
// exist, it walks up until an existing parent resolves, so
// /data/evil-symlink/clouds cannot escape via the missing leaf. Paths with
// no existing ancestor come back cleaned but otherwise untouched.
func canonicalize(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}

	checkPath := absPath
	for {
		parentDir := filepath.Dir(checkPath)
		if parentDir == checkPath {
			return absPath
		}

		if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
			relToParent, _ := filepath.Rel(parentDir, absPath)
			return filepath.Join(resolved, relToParent)
		}

		checkPath = parentDir
	}
}

// ValidateFolderWithinRoots checks if a folder path is within any of the
// allowed roots configured for the viewer. Returns nil if the path is valid,
// or an error describing why it was rejected. An empty roots list allows
// nothing: the server refuses folders until roots are configured.
func ValidateFolderWithinRoots(folder string, roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("no allowed roots configured")
	}

	for _, root := range roots {
		if err := ValidatePathWithinDirectory(folder, root); err == nil {
			return nil // Folder is valid within this root
		}
	}

	return fmt.Errorf("folder must be within one of the allowed roots: %v", roots)
}

// SanitizeFilename makes a safe filename from an arbitrary string. It replaces
// any characters that are not ASCII letters, digits, dot, underscore or dash
// with an underscore, collapses repeated underscores, and trims the result.
// Used when embedding detection identifiers into generated file names.
func SanitizeFilename(s string) string {
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	// Limit resulting filename length to avoid overly long paths
	const maxLen = 128
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
