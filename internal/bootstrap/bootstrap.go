// Package bootstrap builds the normalize service and every enabled backend
// from a Config.  The API server, the worker and the CLI share it.
package bootstrap

import (
	"context"
	"strings"

	"github.com/turtacn/patent-normalizer/internal/application/normalize"
	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/domain/docid"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/database/ledger"
	neo4jdriver "github.com/turtacn/patent-normalizer/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/patent-normalizer/internal/infrastructure/database/neo4j/repositories"
	pgconn "github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/patent-normalizer/internal/infrastructure/database/redis"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/search/opensearch"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/storage/jsonl"
	minioclient "github.com/turtacn/patent-normalizer/internal/infrastructure/storage/minio"
	"github.com/turtacn/patent-normalizer/internal/ingest"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/internal/pipeline"
	"github.com/turtacn/patent-normalizer/pkg/errors"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// Check is a named readiness check.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Runtime holds the built service and the clients behind it.  Fields of
// disabled backends are nil.
type Runtime struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.NormalizerMetrics
	Service   *normalize.Service
	Reader    *ingest.Reader

	Producer *kafka.Producer
	Searcher *opensearch.Searcher
	Ledger   *ledger.Ledger
	Checks   []Check

	closers []func()
}

// Build connects every backend enabled in cfg and wires the service.  On
// error the backends opened so far are closed.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Runtime, error) {
	logger = logging.OrDefault(logger)
	rt := &Runtime{Config: cfg, Logger: logger}

	if cfg.Metrics.Enabled {
		c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "metrics collector")
		}
		rt.Collector = c
	} else {
		rt.Collector = prometheus.NewNoopCollector()
	}
	rt.Metrics = prometheus.NewNormalizerMetrics(rt.Collector)

	deps := normalize.Deps{
		Parser: parser.NewFromConfig(cfg.Parser,
			parser.WithLogger(logger),
			parser.WithMetrics(rt.Metrics),
		),
		Reader: ingest.New(
			ingest.WithMaxRecordBytes(cfg.Parser.MaxDocumentBytes),
			ingest.WithDetector(format.NewDetector(cfg.Parser.DetectScanLines)),
			ingest.WithLogger(logger),
			ingest.WithMetrics(rt.Metrics),
		),
		Pipeline: pipeline.New(cfg.Pipeline, pipeline.WithLogger(logger), pipeline.WithMetrics(rt.Metrics)),
		Metrics:  rt.Metrics,
		Logger:   logger,
	}

	rt.Reader = deps.Reader

	steps := []func(context.Context, *normalize.Deps) error{
		rt.kafka,
		rt.opensearch,
		rt.postgres,
		rt.neo4j,
		rt.minio,
		rt.jsonl,
		rt.redis,
		rt.ledger,
	}
	for _, step := range steps {
		if err := step(ctx, &deps); err != nil {
			rt.Close()
			return nil, err
		}
	}

	svc, err := normalize.NewService(deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc
	logger.Info("normalizer ready", logging.String("sinks", strings.Join(svc.Sinks(), ",")))
	return rt, nil
}

// Close releases every backend in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func (rt *Runtime) onClose(name string, fn func() error) {
	rt.closers = append(rt.closers, func() {
		if err := fn(); err != nil {
			rt.Logger.Warn("close failed", logging.String(logging.KeySink, name), logging.Err(err))
		}
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Backends
// ─────────────────────────────────────────────────────────────────────────────

func (rt *Runtime) kafka(_ context.Context, deps *normalize.Deps) error {
	if !rt.Config.Kafka.Enabled {
		return nil
	}
	p, err := kafka.NewProducer(rt.Config.Kafka, rt.Logger)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "kafka producer")
	}
	rt.onClose("kafka", p.Close)
	rt.Producer = p
	deps.Sinks = append(deps.Sinks, normalize.KafkaSink(p))
	deps.Rejects = p
	return nil
}

func (rt *Runtime) opensearch(ctx context.Context, deps *normalize.Deps) error {
	if !rt.Config.OpenSearch.Enabled {
		return nil
	}
	c, err := opensearch.NewClient(ctx, rt.Config.OpenSearch, rt.Logger)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "opensearch")
	}
	ix := opensearch.NewIndexer(c, "false", rt.Logger)
	if err := ix.EnsureIndex(ctx); err != nil {
		return err
	}
	rt.Searcher = opensearch.NewSearcher(c, rt.Logger)
	rt.Checks = append(rt.Checks, Check{"opensearch", c.Ping})
	deps.Sinks = append(deps.Sinks, normalize.OpenSearchSink(ix))
	return nil
}

func (rt *Runtime) postgres(ctx context.Context, deps *normalize.Deps) error {
	cfg := rt.Config.Database
	if !cfg.Enabled {
		return nil
	}
	conn, err := pgconn.NewConnection(ctx, cfg, rt.Logger)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "postgres")
	}
	rt.onClose("postgres", func() error { conn.Close(); return nil })
	if cfg.MigrationPath != "" {
		if err := pgconn.RunMigrations(conn.URL(), cfg.MigrationPath); err != nil {
			return err
		}
	}
	patents := pgrepo.NewPatentRepository(conn.Pool(), rt.Logger)
	rt.Checks = append(rt.Checks, Check{"postgres", conn.HealthCheck})
	deps.Sinks = append(deps.Sinks, normalize.PostgresSink(patents))
	deps.Runs = pgrepo.NewRunRepository(conn.Pool(), rt.Logger)
	deps.Documents = patents
	return nil
}

func (rt *Runtime) neo4j(ctx context.Context, deps *normalize.Deps) error {
	if !rt.Config.Neo4j.Enabled {
		return nil
	}
	d, err := neo4jdriver.NewDriver(rt.Config.Neo4j, rt.Logger)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "neo4j")
	}
	rt.onClose("neo4j", func() error { return d.Close(context.Background()) })
	g := neo4jrepo.NewGraph(d, rt.Logger)
	if err := g.Classifications.EnsureConstraints(ctx); err != nil {
		return err
	}
	rt.Checks = append(rt.Checks, Check{"neo4j", d.HealthCheck})
	deps.Sinks = append(deps.Sinks, normalize.GraphSink(g))
	return nil
}

func (rt *Runtime) minio(ctx context.Context, deps *normalize.Deps) error {
	if !rt.Config.MinIO.Enabled {
		return nil
	}
	c, err := minioclient.NewClient(ctx, rt.Config.MinIO, rt.Logger)
	if err != nil {
		return err
	}
	rt.onClose("minio", c.Close)
	store := minioclient.NewArchiveStore(c, rt.Logger)
	rt.Checks = append(rt.Checks, Check{"minio", c.HealthCheck})
	deps.Sinks = append(deps.Sinks, normalize.MinIOSink(store))
	deps.Raw = store
	if deps.Documents == nil {
		deps.Documents = objectDocuments{store}
	}
	return nil
}

func (rt *Runtime) jsonl(_ context.Context, deps *normalize.Deps) error {
	path := rt.Config.Output.JSONLPath
	if path == "" {
		return nil
	}
	w, err := jsonl.Open(path)
	if err != nil {
		return err
	}
	rt.onClose("jsonl", w.Close)
	deps.Sinks = append(deps.Sinks, normalize.JSONLSink(w))
	return nil
}

// redis runs after the document stores so the cache only fronts a
// configured store.
func (rt *Runtime) redis(_ context.Context, deps *normalize.Deps) error {
	if !rt.Config.Redis.Enabled {
		return nil
	}
	c, err := redisclient.NewClient(rt.Config.Redis, rt.Logger)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "redis")
	}
	rt.onClose("redis", c.Close)
	rt.Checks = append(rt.Checks, Check{"redis", c.Ping})
	deps.Deduper = redisclient.NewDeduper(c)
	deps.Locks = redisclient.NewLockFactory(c, rt.Logger)
	if deps.Documents != nil {
		cache := redisclient.NewDocumentCache(c, rt.Logger, redisclient.WithDefaultTTL(rt.Config.Redis.CacheTTL))
		deps.Cache = cache
		deps.Sinks = append(deps.Sinks, normalize.CacheSink(cache))
	}
	return nil
}

func (rt *Runtime) ledger(_ context.Context, deps *normalize.Deps) error {
	if !rt.Config.Ledger.Enabled {
		return nil
	}
	l, err := ledger.Open(rt.Config.Ledger, rt.Logger)
	if err != nil {
		return err
	}
	rt.onClose("ledger", l.Close)
	rt.Ledger = l
	rt.Checks = append(rt.Checks, Check{"ledger", l.Ping})
	deps.Ledger = l
	return nil
}

// objectDocuments serves stored documents from object storage, which keys
// them by country.
type objectDocuments struct {
	store *minioclient.ArchiveStore
}

func (o objectDocuments) FindByID(ctx context.Context, id string) (*dto.Document, error) {
	parsed, err := docid.Parse(id)
	if err != nil {
		return nil, err
	}
	return o.store.GetDocument(ctx, parsed.ID(), parsed.Country().String())
}

//Personal.AI order the ending
