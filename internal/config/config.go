// Package config defines the configuration structures of the patent
// normalizer.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `mapstructure:"cors_origins"`
	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// ParserConfig tunes the normalization engine.
type ParserConfig struct {
	// MaxDocumentBytes rejects records whose encoded size exceeds it.
	MaxDocumentBytes int64 `mapstructure:"max_document_bytes"`
	// KeepLeadingZeros disables leading-zero stripping of document numbers.
	KeepLeadingZeros bool `mapstructure:"keep_leading_zeros"`
	// DetectScanLines bounds the content sniff window.
	DetectScanLines int `mapstructure:"detect_scan_lines"`
}

// PipelineConfig holds record-level worker pool parameters.
type PipelineConfig struct {
	Workers       int           `mapstructure:"workers"`
	QueueDepth    int           `mapstructure:"queue_depth"`
	Unordered     bool          `mapstructure:"unordered"`
	RecordTimeout time.Duration `mapstructure:"record_timeout"`
	FailFast      bool          `mapstructure:"fail_fast"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds citation-graph connection parameters.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// RedisConfig holds dedup / cache connection parameters.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	DedupTTL    time.Duration `mapstructure:"dedup_ttl"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// KafkaConfig holds producer/consumer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	InputTopic   string        `mapstructure:"input_topic"`
	OutputTopic  string        `mapstructure:"output_topic"`
	DLQTopic     string        `mapstructure:"dlq_topic"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Compression  string        `mapstructure:"compression"`
	// Acks is "none", "one" or "all".
	Acks          string `mapstructure:"acks"`
	SASLMechanism string `mapstructure:"sasl_mechanism"` // "" | PLAIN | SCRAM-SHA-256 | SCRAM-SHA-512
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCAPath     string `mapstructure:"tls_ca_path"`
}

// OpenSearchConfig holds search-index connection parameters.
type OpenSearchConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	IndexName          string   `mapstructure:"index_name"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
}

// MinIOConfig holds object-storage parameters.
type MinIOConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Endpoint         string `mapstructure:"endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Region           string `mapstructure:"region"`
	RawBucket        string `mapstructure:"raw_bucket"`
	NormalizedBucket string `mapstructure:"normalized_bucket"`
}

// LedgerConfig points at the sqlite file recording ingested archives.
type LedgerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// OutputConfig configures the JSON-lines file sink.
type OutputConfig struct {
	JSONLPath string `mapstructure:"jsonl_path"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Parser     ParserConfig      `mapstructure:"parser"`
	Pipeline   PipelineConfig    `mapstructure:"pipeline"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Neo4j      Neo4jConfig       `mapstructure:"neo4j"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig  `mapstructure:"opensearch"`
	MinIO      MinIOConfig       `mapstructure:"minio"`
	Ledger     LedgerConfig      `mapstructure:"ledger"`
	Output     OutputConfig      `mapstructure:"output"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Log        logging.LogConfig `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// Sections of disabled sinks are not checked.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Parser
	if c.Parser.MaxDocumentBytes < 1 {
		return fmt.Errorf("config: parser.max_document_bytes must be ≥ 1, got %d", c.Parser.MaxDocumentBytes)
	}
	if c.Parser.DetectScanLines < 1 {
		return fmt.Errorf("config: parser.detect_scan_lines must be ≥ 1, got %d", c.Parser.DetectScanLines)
	}

	// Pipeline
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: pipeline.workers must be ≥ 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueDepth < 0 {
		return fmt.Errorf("config: pipeline.queue_depth must be ≥ 0, got %d", c.Pipeline.QueueDepth)
	}

	// Database
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
		}
	}

	// Neo4j
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
		if c.Kafka.InputTopic == "" || c.Kafka.OutputTopic == "" {
			return fmt.Errorf("config: kafka.input_topic and kafka.output_topic are required")
		}
		if c.Kafka.InputTopic == c.Kafka.OutputTopic {
			return fmt.Errorf("config: kafka.input_topic and kafka.output_topic must differ")
		}
	}

	// OpenSearch
	if c.OpenSearch.Enabled {
		if len(c.OpenSearch.Addresses) == 0 {
			return fmt.Errorf("config: opensearch.addresses must contain at least one address")
		}
		if c.OpenSearch.IndexName == "" {
			return fmt.Errorf("config: opensearch.index_name is required")
		}
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" {
			return fmt.Errorf("config: minio.access_key and minio.secret_key are required")
		}
	}

	// Ledger
	if c.Ledger.Enabled && c.Ledger.Path == "" {
		return fmt.Errorf("config: ledger.path is required")
	}

	// Log
	switch c.Log.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// EnabledSinks returns the names of the sinks switched on in c, in a fixed
// order.
func (c *Config) EnabledSinks() []string {
	var out []string
	if c.Kafka.Enabled {
		out = append(out, "kafka")
	}
	if c.OpenSearch.Enabled {
		out = append(out, "opensearch")
	}
	if c.Database.Enabled {
		out = append(out, "postgres")
	}
	if c.Neo4j.Enabled {
		out = append(out, "neo4j")
	}
	if c.MinIO.Enabled {
		out = append(out, "minio")
	}
	if c.Output.JSONLPath != "" {
		out = append(out, "jsonl")
	}
	return out
}

//Personal.AI order the ending
