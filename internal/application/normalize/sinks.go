package normalize

import (
	"context"

	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/database/neo4j/repositories"
	infraredis "github.com/turtacn/patent-normalizer/internal/infrastructure/database/redis"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/search/opensearch"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/storage/jsonl"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/storage/minio"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"

	pgrepo "github.com/turtacn/patent-normalizer/internal/infrastructure/database/postgres/repositories"
)

// Output is what a sink receives for one parsed record.
type Output struct {
	RunID    string
	Patent   *patent.Patent
	Document *dto.Document
}

// Sink stores or forwards normalized documents.  Write must be safe for
// concurrent use.
type Sink interface {
	Name() string
	Write(ctx context.Context, out *Output) error
}

// Sink names.
const (
	SinkKafka      = "kafka"
	SinkOpenSearch = "opensearch"
	SinkPostgres   = "postgres"
	SinkNeo4j      = "neo4j"
	SinkMinIO      = "minio"
	SinkJSONL      = "jsonl"
	SinkCache      = "cache"
)

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, out *Output) error
}

func (f SinkFunc) Name() string                                 { return f.SinkName }
func (f SinkFunc) Write(ctx context.Context, out *Output) error { return f.Fn(ctx, out) }

// KafkaSink publishes documents to the output topic.
func KafkaSink(p *kafka.Producer) Sink {
	return SinkFunc{SinkKafka, func(ctx context.Context, out *Output) error {
		return p.PublishDocument(ctx, out.RunID, out.Document)
	}}
}

// OpenSearchSink indexes documents.
func OpenSearchSink(ix *opensearch.Indexer) Sink {
	return SinkFunc{SinkOpenSearch, func(ctx context.Context, out *Output) error {
		return ix.IndexDocument(ctx, out.Document)
	}}
}

// PostgresSink upserts documents with their claims, classifications,
// citations and parties.
func PostgresSink(repo *pgrepo.PatentRepository) Sink {
	return SinkFunc{SinkPostgres, func(ctx context.Context, out *Output) error {
		return repo.Upsert(ctx, out.Document)
	}}
}

// GraphSink writes citation, family and classification edges.
func GraphSink(g *repositories.Graph) Sink {
	return SinkFunc{SinkNeo4j, func(ctx context.Context, out *Output) error {
		return g.Write(ctx, out.Document)
	}}
}

// MinIOSink stores the normalized JSON object.
func MinIOSink(store *minio.ArchiveStore) Sink {
	return SinkFunc{SinkMinIO, func(ctx context.Context, out *Output) error {
		_, err := store.PutDocument(ctx, out.Document)
		return err
	}}
}

// JSONLSink appends documents to a JSON-lines file.
func JSONLSink(w *jsonl.Writer) Sink {
	return SinkFunc{SinkJSONL, func(_ context.Context, out *Output) error {
		return w.Write(out.Document)
	}}
}

// CacheSink refreshes the cached copy of each document.
func CacheSink(c *infraredis.DocumentCache) Sink {
	return SinkFunc{SinkCache, func(ctx context.Context, out *Output) error {
		return c.Put(ctx, out.Document)
	}}
}

//Personal.AI order the ending
