// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/harvest-engine/internal/embed"
	"github.com/pdiddy/harvest-engine/internal/grobid"
	"github.com/pdiddy/harvest-engine/internal/pipeline"
	"github.com/pdiddy/harvest-engine/internal/store"
	"github.com/pdiddy/harvest-engine/internal/vector"
	"github.com/pdiddy/harvest-engine/pkg/types"
)

const defaultUserAgent = "harvest-engine/0.1"

func init() {
	viper.SetDefault("harvest.timeout", "60s")
	viper.SetDefault("harvest.user_agent", defaultUserAgent)
	viper.SetDefault("harvest.workers", 2)
	viper.SetDefault("harvest.db_path", "harvest.db")
	viper.SetDefault("harvest.arxiv.base_url", "https://export.arxiv.org/oai2")
	viper.SetDefault("harvest.arxiv.metadata_prefix", "arXiv")
	viper.SetDefault("harvest.arxiv.days_back", 90)
	viper.SetDefault("harvest.zenodo.base_url", "https://zenodo.org/oai2d")
	viper.SetDefault("harvest.zenodo.metadata_prefix", "oai_datacite")
	viper.SetDefault("harvest.zenodo.page_delay", "1s")
	viper.SetDefault("harvest.zenodo.days_back", 90)
	viper.SetDefault("grobid.base_url", "http://localhost:8070")
	viper.SetDefault("grobid.timeout", "2m")
	viper.SetDefault("embedding.base_url", "http://localhost:8000")
	viper.SetDefault("embedding.task", "retrieval.passage")
	viper.SetDefault("embedding.chunk_tokens", 1024)
	viper.SetDefault("embedding.chunk_overlap", 128)
	viper.SetDefault("embedding.normalize", true)
	viper.SetDefault("embedding.timeout", "5m")
	viper.SetDefault("vector.base_url", "http://localhost:6333")
	viper.SetDefault("vector.collection", "papers")
}

// buildConfig assembles the pipeline configuration from viper (config
// file plus environment) and the loaded secrets.
func buildConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Harvest: types.HarvestConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("harvest.timeout"),
				UserAgent: viper.GetString("harvest.user_agent"),
			},
			Arxiv:   sourceConfig("harvest.arxiv"),
			Zenodo:  sourceConfig("harvest.zenodo"),
			Workers: viper.GetInt("harvest.workers"),
			DBPath:  viper.GetString("harvest.db_path"),
		},
		Grobid: types.GrobidConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("grobid.timeout"),
				UserAgent: viper.GetString("harvest.user_agent"),
			},
			BaseURL:          viper.GetString("grobid.base_url"),
			FulltextEndpoint: viper.GetString("grobid.fulltext_endpoint"),
			MaxAttempts:      viper.GetInt("grobid.max_attempts"),
			RetryBackoff:     viper.GetDuration("grobid.retry_backoff"),
		},
		Embedding: types.EmbeddingConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("embedding.timeout"),
				UserAgent: viper.GetString("harvest.user_agent"),
			},
			BaseURL:      viper.GetString("embedding.base_url"),
			APIKey:       secretDefault("embedding-api-key", viper.GetString("embedding.api_key")),
			Task:         viper.GetString("embedding.task"),
			ChunkTokens:  viper.GetInt("embedding.chunk_tokens"),
			ChunkOverlap: viper.GetInt("embedding.chunk_overlap"),
			Normalize:    viper.GetBool("embedding.normalize"),
		},
		Vector: types.VectorConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("vector.timeout"),
				UserAgent: viper.GetString("harvest.user_agent"),
			},
			BaseURL:    viper.GetString("vector.base_url"),
			APIKey:     secretDefault("qdrant-api-key", viper.GetString("vector.api_key")),
			Collection: viper.GetString("vector.collection"),
		},
	}
}

func sourceConfig(prefix string) types.OAISourceConfig {
	return types.OAISourceConfig{
		BaseURL:        viper.GetString(prefix + ".base_url"),
		MetadataPrefix: viper.GetString(prefix + ".metadata_prefix"),
		PageDelay:      viper.GetDuration(prefix + ".page_delay"),
		DaysBack:       viper.GetInt(prefix + ".days_back"),
	}
}

// buildOrchestrator wires the full pipeline from config. The caller
// owns the returned store and must close it.
func buildOrchestrator(cfg types.PipelineConfig) (*pipeline.Orchestrator, *store.Store, error) {
	st, err := store.NewStore(cfg.Harvest.DBPath)
	if err != nil {
		return nil, nil, err
	}

	registry := pipeline.NewRegistry(
		pipeline.NewArxivHandler(cfg.Harvest.Arxiv, cfg.Harvest.HTTPConfig),
		pipeline.NewZenodoHandler(cfg.Harvest.Zenodo, cfg.Harvest.HTTPConfig),
	)

	svc := grobid.NewService(grobid.NewClient(cfg.Grobid), os.Stdout)

	var embedder pipeline.Embedder
	if cfg.Embedding.BaseURL != "" {
		embedder = embed.NewClient(cfg.Embedding)
	}
	var vectors pipeline.VectorWriter
	if cfg.Vector.BaseURL != "" && cfg.Vector.Collection != "" {
		vectors = vector.NewClient(cfg.Vector)
	}

	orch := pipeline.NewOrchestrator(st, svc, embedder, vectors, registry,
		cfg.Harvest.Workers, os.Stdout)
	return orch, st, nil
}

// parseDay parses a YYYY-MM-DD argument in UTC.
func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}
