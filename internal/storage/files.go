// Package storage persists uploaded attachment files on the local disk under
// a per-submission directory derived from branch, requester and run id.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}\-_. ]`)

// Sanitize replaces path-hostile characters in a user-supplied name segment.
func Sanitize(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		return "_"
	}
	return name
}

type FileStore struct {
	root string
}

func New(root string) *FileStore {
	return &FileStore{root: root}
}

// Save writes the file under root/<branch>/[org/]<client>/<runID>/ and
// returns the stored path. Every user-supplied segment is sanitized.
func (s *FileStore) Save(branch, orgName, clientName, runID, filename string, data []byte) (string, error) {
	segments := []string{s.root, Sanitize(branch)}
	if orgName != "" {
		segments = append(segments, Sanitize(orgName))
	}
	segments = append(segments, Sanitize(clientName), Sanitize(runID))

	dir := filepath.Join(segments...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	path := filepath.Join(dir, Sanitize(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}

// Read returns the bytes of a previously stored file. Paths outside the
// store root are refused.
func (s *FileStore) Read(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve attachment path: %w", err)
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	if !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return nil, fmt.Errorf("attachment path %q escapes the store root", path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return data, nil
}

// Remove deletes stored files best-effort; a cancelled session must not leak
// partially uploaded attachments. The first error is returned after all
// paths were attempted.
func (s *FileStore) Remove(paths []string) error {
	var first error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && first == nil {
			first = fmt.Errorf("remove attachment: %w", err)
		}
	}
	return first
}
