package snapshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DirStore is a directory-backed Store, the shape used when the host
// snapshot is a build output directory on disk. Asset names are
// slash-separated paths relative to the root.
//
// The mutex serializes directory metadata operations only; content
// reads and writes of distinct names are independent.
type DirStore struct {
	root string
	mu   sync.Mutex
}

// NewDirStore opens a directory as a snapshot. The directory must exist.
func NewDirStore(root string) (*DirStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("snapshot root is not a directory: " + root)
	}
	return &DirStore{root: root}, nil
}

// Root returns the snapshot root directory.
func (s *DirStore) Root() string {
	return s.root
}

// Names walks the root and returns all file names relative to it,
// slash-separated and sorted.
func (s *DirStore) Names() []string {
	var names []string
	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are not assets
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(names)
	return names
}

// Read returns the content of the named asset.
func (s *DirStore) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path) // #nosec G304 -- path contained within root by resolve
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name)
		}
		return nil, err
	}
	return content, nil
}

// Add writes a new file under the root. Fails if the name is taken.
func (s *DirStore) Add(name string, content []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, statErr := os.Stat(path); statErr == nil {
		return exists(name)
	}
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o750); mkErr != nil {
		return mkErr
	}
	return writeAtomic(path, content, 0o644)
}

// Delete removes the named file.
func (s *DirStore) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rmErr := os.Remove(path); rmErr != nil {
		if errors.Is(rmErr, fs.ErrNotExist) {
			return notFound(name)
		}
		return rmErr
	}
	return nil
}

// Update replaces the content of an existing file, preserving its mode.
func (s *DirStore) Update(name string, content []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, statErr := os.Stat(path)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return notFound(name)
		}
		return statErr
	}

	mode := info.Mode() & 0o777
	if mode == 0 {
		mode = 0o644
	}
	return writeAtomic(path, content, mode)
}

// resolve maps an asset name to an absolute path and rejects traversal
// outside the root.
func (s *DirStore) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errors.New("invalid asset name: " + name)
	}
	return filepath.Join(s.root, clean), nil
}

// writeAtomic writes content to a sibling temp file and renames it
// into place so a concurrent reader never observes partial content.
func writeAtomic(path string, content []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".assetpress-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
