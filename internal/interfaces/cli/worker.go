package cli

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/bootstrap"
	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/patent-normalizer/internal/interfaces/http"
	"github.com/turtacn/patent-normalizer/internal/interfaces/http/handlers"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/parser/format"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

const defaultHealthPort = 8081

// WorkerOptions tunes RunWorker.
type WorkerOptions struct {
	// HealthPort serves /healthz, /readyz and metrics; 0 disables it.
	HealthPort int
	// EnsureTopics creates the input, output and dead-letter topics first.
	EnsureTopics bool
}

func newWorkerCmd() *cobra.Command {
	opts := WorkerOptions{}
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Normalize raw records consumed from Kafka",
		Long: "Consume raw records from kafka.input_topic, normalize them and write the\n" +
			"documents to the configured sinks.  Records that fail to parse go to\n" +
			"kafka.dlq_topic.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, c)
			defer cancel()
			rt, err := c.Runtime(ctx)
			if err != nil {
				return err
			}
			defer c.Close()
			return RunWorker(ctx, rt, opts)
		},
	}
	cmd.Flags().IntVar(&opts.HealthPort, "health-port", defaultHealthPort, "health and metrics port; 0 disables")
	cmd.Flags().BoolVar(&opts.EnsureTopics, "ensure-topics", false, "create the Kafka topics if missing")
	return cmd
}

// RunWorker consumes the input topic until ctx is done.
func RunWorker(ctx context.Context, rt *bootstrap.Runtime, opts WorkerOptions) error {
	cfg := rt.Config.Kafka
	if !cfg.Enabled || rt.Producer == nil {
		return errors.New(errors.ErrCodeFeatureDisabled, "the worker requires kafka.enabled")
	}
	log := rt.Logger

	if opts.EnsureTopics {
		tm, err := kafka.NewTopicManager(cfg.Brokers, log)
		if err != nil {
			return err
		}
		err = tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg))
		tm.Close()
		if err != nil {
			return err
		}
	}

	consumer, err := kafka.NewConsumer(cfg, rt.Producer, log)
	if err != nil {
		return err
	}
	consumer.Subscribe(cfg.InputTopic, NewRecordHandler(rt.Service, log))

	var health *httpapi.Server
	if opts.HealthPort > 0 {
		rc := httpapi.RouterConfig{
			HealthHandler: handlers.NewHealthHandler(Version, healthCheckers(rt)...),
		}
		if rt.Config.Metrics.Enabled {
			rc.MetricsCollector = rt.Collector
			rc.MetricsPath = rt.Config.Metrics.Path
		}
		health = httpapi.NewServer(config.ServerConfig{Port: opts.HealthPort}, httpapi.NewRouter(rc), log)
		go func() {
			if err := health.Start(); err != nil {
				log.Error("health server failed", logging.Err(err))
			}
		}()
	}

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	log.Info("worker started",
		logging.String("topic", cfg.InputTopic),
		logging.String("group", cfg.GroupID))

	<-ctx.Done()
	log.Info("worker shutting down")

	if err := consumer.Close(); err != nil {
		log.Warn("consumer close failed", logging.Err(err))
	}
	if health != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := health.Stop(stopCtx); err != nil {
			log.Warn("health server shutdown failed", logging.Err(err))
		}
	}
	return nil
}

// RecordParser is the slice of normalize.Service the worker uses.
type RecordParser interface {
	ParseRecord(ctx context.Context, rec parser.Record, runID string) (*patent.Patent, error)
}

// NewRecordHandler normalizes one raw record per message.
//
// Undecodable messages are dropped.  Record-level failures were already
// published to the dead-letter topic by the service and duplicates need no
// work, so both are acknowledged.  Any other error is returned for the
// consumer to retry.
func NewRecordHandler(svc RecordParser, logger logging.Logger) kafka.MessageHandler {
	logger = logging.OrDefault(logger)
	return func(ctx context.Context, msg *kafka.Message) error {
		p, err := kafka.DecodeRawRecord(msg)
		if err != nil {
			logger.Warn("dropping undecodable message",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			return nil
		}
		runID := msg.Headers[kafka.HeaderRunID]
		if runID == "" {
			runID = uuid.NewString()
		}
		rec := parser.Record{Text: p.Text, Format: format.Parse(p.Format), File: p.File, Index: p.Record}

		_, err = svc.ParseRecord(ctx, rec, runID)
		switch {
		case err == nil:
			return nil
		case errors.IsCode(err, errors.ErrCodeDuplicateRecord):
			logger.Debug("duplicate record acknowledged",
				logging.String(logging.KeySource, p.File),
				logging.Int(logging.KeyRecord, p.Record))
			return nil
		case errors.IsRecordLevel(err):
			return nil
		default:
			return err
		}
	}
}

//Personal.AI order the ending
