// Package config loads the flat key=value configuration file the server
// reads at startup, filling in documented defaults for any key the file
// omits or that the file itself is entirely absent.
package config

import (
	"os"
	"time"

	"github.com/magiconair/properties"
)

// Config holds every tunable the server and its collaborators read at
// startup. Field names follow Go convention; Load maps each one from its
// dotted config key (server.port -> ServerPort, and so on).
type Config struct {
	ServerPort int

	SnapshotFile       string
	AOFFile            string
	AutoSaveInterval   time.Duration
	CacheMaxSize       int

	AutoEmbeddingEnabled bool
	EmbeddingModel       string
	EmbeddingEndpoint    string
	SimilarityThreshold  float64
	SearchDefaultTopK    int
}

// Default returns the documented defaults, used both as the base a loaded
// file overlays and as the config when no file is given at all.
func Default() Config {
	return Config{
		ServerPort:           9090,
		SnapshotFile:         "database.snapshot",
		AOFFile:              "commands.aof",
		AutoSaveInterval:     5 * time.Minute,
		CacheMaxSize:         10000,
		AutoEmbeddingEnabled: true,
		EmbeddingModel:       "all-minilm:22m",
		SimilarityThreshold:  0.85,
		SearchDefaultTopK:    10,
	}
}

// Load reads the properties file at path, overlaying its keys onto the
// documented defaults. A missing file is not an error — Default() alone is
// returned — since the server must still start with sane built-in values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	cfg.ServerPort = p.GetInt("server.port", cfg.ServerPort)
	cfg.SnapshotFile = p.GetString("persistence.snapshot.file", cfg.SnapshotFile)
	cfg.AOFFile = p.GetString("persistence.aof.file", cfg.AOFFile)
	cfg.AutoSaveInterval = time.Duration(p.GetInt("persistence.auto.save.interval", int(cfg.AutoSaveInterval/time.Minute))) * time.Minute
	cfg.CacheMaxSize = p.GetInt("cache.max.size", cfg.CacheMaxSize)
	cfg.AutoEmbeddingEnabled = p.GetBool("database.auto.embedding.enabled", cfg.AutoEmbeddingEnabled)
	cfg.EmbeddingModel = p.GetString("rag.embedding.model", cfg.EmbeddingModel)
	cfg.EmbeddingEndpoint = p.GetString("rag.embedding.endpoint", cfg.EmbeddingEndpoint)
	cfg.SimilarityThreshold = p.GetFloat64("rag.similarity.threshold", cfg.SimilarityThreshold)
	cfg.SearchDefaultTopK = p.GetInt("rag.search.default.topk", cfg.SearchDefaultTopK)

	return cfg, nil
}
