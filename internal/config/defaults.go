package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerMaxBodySize     = 128 << 20
	DefaultServerShutdownTimeout = 15 * time.Second

	DefaultMaxDocumentBytes = 100 << 20
	DefaultDetectScanLines  = 150

	DefaultPipelineWorkers    = 4
	DefaultPipelineQueueDepth = 64

	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBName          = "patents"
	DefaultDBMaxConns      = 10
	DefaultDBMigrationPath = "file://migrations"

	DefaultNeo4jURI      = "bolt://localhost:7687"
	DefaultNeo4jDatabase = "neo4j"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "patentnorm:"
	DefaultRedisDedupTTL  = 7 * 24 * time.Hour
	DefaultRedisCacheTTL  = 24 * time.Hour

	DefaultKafkaBroker      = "localhost:9092"
	DefaultKafkaGroupID     = "patent-normalizer"
	DefaultKafkaInputTopic  = "patent.record.raw"
	DefaultKafkaOutputTopic = "patent.document.normalized"
	DefaultKafkaDLQTopic    = "patent.record.dlq"
	DefaultKafkaMaxRetries  = 3

	DefaultOpenSearchAddress   = "http://localhost:9200"
	DefaultOpenSearchIndex     = "patents"
	DefaultOpenSearchBulkBatch = 500

	DefaultMinIOEndpoint         = "localhost:9000"
	DefaultMinIORawBucket        = "patent-raw"
	DefaultMinIONormalizedBucket = "patent-normalized"

	DefaultLedgerPath = "ledger.db"

	DefaultMetricsNamespace = "patentnorm"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with its default.  Values
// set explicitly are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// ── Parser ────────────────────────────────────────────────────────────────
	if cfg.Parser.MaxDocumentBytes == 0 {
		cfg.Parser.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if cfg.Parser.DetectScanLines == 0 {
		cfg.Parser.DetectScanLines = DefaultDetectScanLines
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = DefaultPipelineWorkers
	}
	if cfg.Pipeline.QueueDepth == 0 {
		cfg.Pipeline.QueueDepth = DefaultPipelineQueueDepth
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultDBMigrationPath
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DedupTTL == 0 {
		cfg.Redis.DedupTTL = DefaultRedisDedupTTL
	}
	if cfg.Redis.CacheTTL == 0 {
		cfg.Redis.CacheTTL = DefaultRedisCacheTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.InputTopic == "" {
		cfg.Kafka.InputTopic = DefaultKafkaInputTopic
	}
	if cfg.Kafka.OutputTopic == "" {
		cfg.Kafka.OutputTopic = DefaultKafkaOutputTopic
	}
	if cfg.Kafka.DLQTopic == "" {
		cfg.Kafka.DLQTopic = DefaultKafkaDLQTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if cfg.OpenSearch.IndexName == "" {
		cfg.OpenSearch.IndexName = DefaultOpenSearchIndex
	}
	if cfg.OpenSearch.BulkBatchSize == 0 {
		cfg.OpenSearch.BulkBatchSize = DefaultOpenSearchBulkBatch
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.RawBucket == "" {
		cfg.MinIO.RawBucket = DefaultMinIORawBucket
	}
	if cfg.MinIO.NormalizedBucket == "" {
		cfg.MinIO.NormalizedBucket = DefaultMinIONormalizedBucket
	}

	// ── Ledger ────────────────────────────────────────────────────────────────
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = DefaultLedgerPath
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
