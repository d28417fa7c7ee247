package testsupport

import (
	"testing"

	"fxpipe/internal/artifact"
	"fxpipe/internal/config"
)

// OpenStore opens the artifact store of cfg.
func OpenStore(t testing.TB, cfg *config.Config) *artifact.Store {
	t.Helper()
	store, err := artifact.Open(cfg.Paths.ArtifactDir)
	if err != nil {
		t.Fatalf("open artifact store: %v", err)
	}
	return store
}

// WriteArtifact stores raw CSV text under key.
func WriteArtifact(t testing.TB, store *artifact.Store, key, csv string) {
	t.Helper()
	if err := store.WriteRaw(key, []byte(csv)); err != nil {
		t.Fatalf("write artifact %s: %v", key, err)
	}
}

// ReadArtifact returns the raw CSV text stored under key.
func ReadArtifact(t testing.TB, store *artifact.Store, key string) string {
	t.Helper()
	data, err := store.ReadRaw(key)
	if err != nil {
		t.Fatalf("read artifact %s: %v", key, err)
	}
	return string(data)
}
