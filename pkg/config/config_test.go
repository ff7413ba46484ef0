package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.properties"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("expected defaults for a missing file, got %+v", cfg)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults for an empty path, got %+v", cfg)
	}
}

func TestLoadOverlaysKeysOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.properties")
	content := `server.port=9191
persistence.snapshot.file=custom.snapshot
persistence.auto.save.interval=10
database.auto.embedding.enabled=false
rag.similarity.threshold=0.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 9191 {
		t.Errorf("ServerPort = %d, want 9191", cfg.ServerPort)
	}
	if cfg.SnapshotFile != "custom.snapshot" {
		t.Errorf("SnapshotFile = %q, want custom.snapshot", cfg.SnapshotFile)
	}
	if cfg.AutoSaveInterval != 10*time.Minute {
		t.Errorf("AutoSaveInterval = %s, want 10m", cfg.AutoSaveInterval)
	}
	if cfg.AutoEmbeddingEnabled {
		t.Errorf("AutoEmbeddingEnabled = true, want false")
	}
	if cfg.SimilarityThreshold != 0.5 {
		t.Errorf("SimilarityThreshold = %v, want 0.5", cfg.SimilarityThreshold)
	}
	// Keys the fixture omits keep their documented defaults.
	if cfg.AOFFile != Default().AOFFile {
		t.Errorf("AOFFile = %q, want default %q", cfg.AOFFile, Default().AOFFile)
	}
	if cfg.CacheMaxSize != Default().CacheMaxSize {
		t.Errorf("CacheMaxSize = %d, want default %d", cfg.CacheMaxSize, Default().CacheMaxSize)
	}
}
