// Package destpath derives a safe local destination path for an object key
// under a download root, rejecting any key that would resolve outside of
// it after symlink normalization.
package destpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrDirectoryMarker is returned when the derived relative path is empty,
// meaning the key names a directory marker rather than a downloadable
// object.
var ErrDirectoryMarker = errors.New("destpath: key resolves to a directory marker")

// PathEscapeError is returned when a key's derived destination would
// resolve, after symlink normalization, outside of the download root.
type PathEscapeError struct {
	Key  string
	Root string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("destpath: key %q escapes download root %q", e.Key, e.Root)
}

// IsPathEscape reports whether err is (or wraps) a PathEscapeError.
func IsPathEscape(err error) bool {
	var pe *PathEscapeError
	return errors.As(err, &pe)
}

// Derive computes the local destination path for key given the listing's
// prefix, delimiter, and an absolute, existing download root.
//
// Algorithm (spec.md §4.2):
//  1. rel := strip the normalized directory portion of prefix from key.
//     If prefix is empty, rel = key. Otherwise: split prefix on delimiter,
//     drop the last segment only if it does not already end with
//     delimiter (the trailing fragment is a name-prefix, not a directory,
//     and must be preserved in the local path), rejoin, and strip that
//     from key if key has it as a prefix.
//  2. rel == "" is a directory marker: reject.
//  3. split rel on the last delimiter into (subdir, filename).
//  4. candidate := normalize(root / subdir / filename), resolving "..",
//     ".", and symlinks.
//  5. candidate must be a descendant of normalize(root); otherwise
//     PathEscapeError.
func Derive(key, prefix, delimiter, root string) (string, error) {
	rel := stripPrefix(key, prefix, delimiter)
	if rel == "" {
		return "", ErrDirectoryMarker
	}

	// Step 3: split rel on the last delimiter into (subdir, filename), then
	// join both onto root using the local OS separator semantics via
	// filepath.Join, which also collapses any "." or ".." components rel
	// might (maliciously) contain.
	subdir, filename := "", rel
	if delimiter != "" {
		if i := strings.LastIndex(rel, delimiter); i >= 0 {
			subdir, filename = rel[:i], rel[i+len(delimiter):]
		}
	}
	joined := filepath.Join(root, filepath.FromSlash(subdir), filepath.FromSlash(filename))

	candidate, err := resolveCandidate(joined)
	if err != nil {
		return "", fmt.Errorf("destpath: resolving %q: %w", joined, err)
	}

	normRoot, err := resolveExistingRoot(root)
	if err != nil {
		return "", fmt.Errorf("destpath: resolving root %q: %w", root, err)
	}

	if !isDescendant(normRoot, candidate) {
		return "", &PathEscapeError{Key: key, Root: root}
	}

	return candidate, nil
}

// stripPrefix implements step 1 of the algorithm above.
func stripPrefix(key, prefix, delimiter string) string {
	if prefix == "" {
		return key
	}

	dirPrefix := prefix
	if !strings.HasSuffix(prefix, delimiter) {
		if idx := strings.LastIndex(prefix, delimiter); idx >= 0 {
			dirPrefix = prefix[:idx+len(delimiter)]
		} else {
			dirPrefix = ""
		}
	}

	if dirPrefix != "" && strings.HasPrefix(key, dirPrefix) {
		return key[len(dirPrefix):]
	}
	return key
}

// resolveCandidate normalizes a not-yet-existing candidate path by
// resolving symlinks in the deepest existing ancestor directory, then
// rejoining the remaining (not-yet-created) components. This prevents a
// symlinked ancestor directory from redirecting the final write outside
// the download root, without requiring the leaf file to already exist.
func resolveCandidate(path string) (string, error) {
	clean := filepath.Clean(path)

	existing := clean
	var tail []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		tail = append([]string{filepath.Base(existing)}, tail...)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		// Ancestor doesn't exist yet (e.g. will be mkdir -p'd later); clean
		// path is the best available normalization.
		if errors.Is(err, os.ErrNotExist) {
			return clean, nil
		}
		return "", err
	}

	return filepath.Join(append([]string{resolved}, tail...)...), nil
}

// resolveExistingRoot normalizes the download root, which the Coordinator
// has already validated exists and is a directory.
func resolveExistingRoot(root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// isDescendant reports whether candidate is root itself or a path under
// root, using filepath.Rel so path-component boundaries are respected
// (e.g. "/download-root-evil" is not a descendant of "/download-root").
func isDescendant(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
