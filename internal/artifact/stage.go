package artifact

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"fxpipe/internal/fileutil"
	"fxpipe/internal/services"
)

// Stage collects the outputs of one task. Writes go to temporary files next to
// their targets and become visible only on Commit.
type Stage struct {
	store    *Store
	mu       sync.Mutex
	declared map[string]struct{}
	pending  map[string]string
	closed   bool
}

// Stage opens a staged writer limited to keys.
func (s *Store) Stage(keys ...string) (*Stage, error) {
	declared := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return nil, err
		}
		declared[key] = struct{}{}
	}
	return &Stage{store: s, declared: declared, pending: make(map[string]string, len(keys))}, nil
}

// Store returns the underlying store for reads.
func (st *Stage) Store() *Store {
	return st.store
}

// Declared returns the keys this stage accepts, sorted.
func (st *Stage) Declared() []string {
	keys := make([]string, 0, len(st.declared))
	for key := range st.declared {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Write stages table under key.
func (st *Stage) Write(key string, table Table) error {
	data, err := table.Encode()
	if err != nil {
		return fmt.Errorf("artifact %s: %w", key, err)
	}
	return st.WriteRaw(key, data)
}

// WriteRaw stages data under key. Writing the same key twice keeps the last
// content.
func (st *Stage) WriteRaw(key string, data []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return fmt.Errorf("artifact %s: stage already closed", key)
	}
	if _, ok := st.declared[key]; !ok {
		return services.Wrap(services.ErrValidation, "artifact", "stage", fmt.Sprintf("key %q was not declared as an output", key), nil)
	}
	tmpName, err := fileutil.WriteTemp(st.store.Path(key), data, 0o644)
	if err != nil {
		return fmt.Errorf("stage artifact %s: %w", key, err)
	}
	if previous, ok := st.pending[key]; ok {
		os.Remove(previous)
	}
	st.pending[key] = tmpName
	return nil
}

// Written returns the keys staged so far, sorted.
func (st *Stage) Written() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	keys := make([]string, 0, len(st.pending))
	for key := range st.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Missing returns declared keys that were not staged, sorted.
func (st *Stage) Missing() []string {
	written := st.Written()
	var missing []string
	for _, key := range st.Declared() {
		if !slices.Contains(written, key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// Commit publishes every staged output. Keys are renamed in sorted order; on
// failure the unpublished temporaries are removed.
func (st *Stage) Commit() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return errors.New("artifact stage already closed")
	}
	st.closed = true
	keys := make([]string, 0, len(st.pending))
	for key := range st.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i, key := range keys {
		if err := fileutil.Publish(st.pending[key], st.store.Path(key)); err != nil {
			for _, rest := range keys[i+1:] {
				os.Remove(st.pending[rest])
			}
			return fmt.Errorf("commit artifact %s: %w", key, err)
		}
	}
	st.pending = nil
	return nil
}

// Discard removes every staged temporary. It is safe to call after Commit.
func (st *Stage) Discard() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	st.closed = true
	for _, tmpName := range st.pending {
		os.Remove(tmpName)
	}
	st.pending = nil
}
