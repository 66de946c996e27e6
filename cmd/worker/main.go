// Command worker normalizes raw records consumed from Kafka.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/patent-normalizer/internal/bootstrap"
	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/internal/interfaces/cli"
)

const defaultHealthPort = 8081

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	healthPort := flag.Int("health-port", defaultHealthPort, "health and metrics port; 0 disables")
	ensureTopics := flag.Bool("ensure-topics", false, "create the Kafka topics if missing")
	flag.Parse()

	cli.Version, cli.GitCommit, cli.BuildDate = version, commit, buildDate

	opts := cli.WorkerOptions{HealthPort: *healthPort, EnsureTopics: *ensureTopics}
	if err := run(*configPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, opts cli.WorkerOptions) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	logger.Info("starting worker",
		logging.String("version", version),
		logging.Strings("brokers", cfg.Kafka.Brokers),
		logging.String("topic", cfg.Kafka.InputTopic))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := cli.RunWorker(ctx, rt, opts); err != nil {
		return err
	}
	logger.Info("worker exited")
	return nil
}

//Personal.AI order the ending
