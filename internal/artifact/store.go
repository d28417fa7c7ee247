package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fxpipe/internal/fileutil"
	"fxpipe/internal/services"
)

const extension = ".csv"

// Store is a directory of CSV artifacts.
type Store struct {
	root string
}

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "artifact", "open", "artifact directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// ValidateKey rejects keys that are empty or would escape the store root.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return services.Wrap(services.ErrValidation, "artifact", "key", "empty artifact key", nil)
	case strings.ContainsAny(key, `/\`), strings.Contains(key, ".."):
		return services.Wrap(services.ErrValidation, "artifact", "key", fmt.Sprintf("invalid artifact key %q", key), nil)
	case strings.HasPrefix(key, "."):
		return services.Wrap(services.ErrValidation, "artifact", "key", fmt.Sprintf("artifact key %q is hidden", key), nil)
	}
	return nil
}

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, key+extension)
}

// Exists reports whether key has been written.
func (s *Store) Exists(key string) bool {
	_, ok := s.ModifiedAt(key)
	return ok
}

// ModifiedAt returns the modification time of key.
func (s *Store) ModifiedAt(key string) (time.Time, bool) {
	if ValidateKey(key) != nil {
		return time.Time{}, false
	}
	info, err := os.Stat(s.Path(key))
	if err != nil || info.IsDir() {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Read loads the table stored under key.
func (s *Store) Read(key string) (Table, error) {
	if err := ValidateKey(key); err != nil {
		return Table{}, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, services.Wrap(services.ErrNotFound, "artifact", "read", key, nil)
		}
		return Table{}, fmt.Errorf("read artifact %s: %w", key, err)
	}
	table, err := DecodeTable(data)
	if err != nil {
		return Table{}, services.Wrap(services.ErrMalformedRecord, "artifact", "read", key, err)
	}
	return table, nil
}

// ReadRaw returns the bytes stored under key.
func (s *Store) ReadRaw(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "artifact", "read", key, nil)
		}
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return data, nil
}

// Write atomically replaces the table stored under key.
func (s *Store) Write(key string, table Table) error {
	data, err := table.Encode()
	if err != nil {
		return fmt.Errorf("artifact %s: %w", key, err)
	}
	return s.WriteRaw(key, data)
}

// WriteRaw atomically replaces the bytes stored under key.
func (s *Store) WriteRaw(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.Path(key), data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", key, err)
	}
	return nil
}

// List returns the keys beginning with prefix and ending with suffix, sorted.
func (s *Store) List(prefix, suffix string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, extension) || strings.HasPrefix(name, ".") {
			continue
		}
		key := strings.TrimSuffix(name, extension)
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
