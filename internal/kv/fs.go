package kv

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Filesystem implements Store with one file per key under a root directory.
// Keys are hashed into file names so arbitrary key strings stay path-safe.
type Filesystem struct {
	root string
}

// NewFilesystem constructs a filesystem-backed store rooted at root
// (default ./kvdata).
func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "kvdata"
	}
	if err := os.MkdirAll(root, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create kv root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

// Driver returns the kv driver identifier.
func (f *Filesystem) Driver() Driver { return DriverFilesystem }

func (f *Filesystem) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.root, hex.EncodeToString(sum[:])+".json")
}

// Get returns the value stored under key.
func (f *Filesystem) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key, replacing any prior entry. The write goes
// through a temp file and rename so readers never observe a partial value.
func (f *Filesystem) Set(key string, value []byte) error {
	path := f.pathFor(key)
	tmp, err := os.CreateTemp(f.root, ".kv-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry under key; absent keys are a no-op.
func (f *Filesystem) Delete(key string) error {
	err := os.Remove(f.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
