package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var _ Backend = (*File)(nil)

// File is a Backend persisting every key into a single JSON object on disk.
// Writes replace the file atomically via rename.
type File struct {
	path string
	lock sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(key string) (string, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *File) Save(key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *File) Delete(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *File) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.File read: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("storage.File decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.File encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("storage.File mkdir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage.File write: %w", err)
	}
	return os.Rename(tmp, f.path)
}
