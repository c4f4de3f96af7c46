package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "harvest-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OAISourceConfig holds per-feed OAI-PMH settings.
type OAISourceConfig struct {
	// BaseURL is the OAI-PMH endpoint
	// (e.g. "https://export.arxiv.org/oai2").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MetadataPrefix selects the metadata schema
	// ("arXiv" for arXiv, "oai_datacite" for Zenodo).
	MetadataPrefix string `json:"metadata_prefix" yaml:"metadata_prefix"`

	// PageDelay paces consecutive resumption-token fetches. Zenodo
	// throttles without it; arXiv needs none.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// DaysBack is the scan look-back horizon in days (default 90).
	DaysBack int `json:"days_back" yaml:"days_back"`
}

// HarvestConfig holds settings for the harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	Arxiv  OAISourceConfig `json:"arxiv" yaml:"arxiv"`
	Zenodo OAISourceConfig `json:"zenodo" yaml:"zenodo"`

	// Workers sizes the enrichment worker pool (default 2). The pool
	// caps concurrent load on the TEI conversion service, not CPU.
	Workers int `json:"workers" yaml:"workers"`

	// DBPath is the SQLite database file path.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// GrobidConfig holds settings for the PDF-to-TEI conversion service.
type GrobidConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the GROBID service root (e.g. "http://localhost:8070").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// FulltextEndpoint is the conversion path
	// (default "/api/processFulltextDocument").
	FulltextEndpoint string `json:"fulltext_endpoint" yaml:"fulltext_endpoint"`

	// MaxAttempts bounds conversion retries (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryBackoff is the linear backoff unit between attempts
	// (default 250ms; attempt n sleeps n × RetryBackoff).
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
}

// EmbeddingConfig holds settings for the embedding service client.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the embedding service root.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates requests; usually loaded from .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Task selects the embedding task (default "retrieval.passage").
	Task string `json:"task" yaml:"task"`

	// ChunkTokens and ChunkOverlap control service-side chunking.
	ChunkTokens  int `json:"chunk_tokens" yaml:"chunk_tokens"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	// Normalize requests unit-normalized vectors.
	Normalize bool `json:"normalize" yaml:"normalize"`
}

// VectorConfig holds settings for the vector store upsert client.
type VectorConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the vector store REST root (e.g. "http://localhost:6333").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates requests; usually loaded from .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Collection names the target collection (e.g. "papers").
	Collection string `json:"collection" yaml:"collection"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Harvest   HarvestConfig   `json:"harvest" yaml:"harvest"`
	Grobid    GrobidConfig    `json:"grobid" yaml:"grobid"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Vector    VectorConfig    `json:"vector" yaml:"vector"`
}
