package cli

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

type watchOptions struct {
	settle   time.Duration
	existing bool
	force    bool
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Ingest archives as they land in a directory",
		Long: "Watch DIR and ingest every bulk archive written to it once the file has\n" +
			"been quiet for --settle.  Runs until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}
	cmd.Flags().DurationVar(&opts.settle, "settle", 5*time.Second, "quiet period before a new file is ingested")
	cmd.Flags().BoolVar(&opts.existing, "existing", false, "ingest archives already in DIR on startup")
	cmd.Flags().BoolVar(&opts.force, "force", false, "reprocess archives the ledger marks completed")
	return cmd
}

func runWatch(cmd *cobra.Command, dir string, opts *watchOptions) error {
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

	w := &dirWatcher{
		dir:      dir,
		settle:   opts.settle,
		existing: opts.existing,
		logger:   c.Logger,
		ingest: func(ctx context.Context, p string) ArchiveResult {
			return ingestArchive(ctx, rt, p, opts.force)
		},
		onResult: func(res ArchiveResult) {
			cmd.Println(res.String())
		},
	}
	return w.Run(ctx)
}

// dirWatcher ingests files written to one directory.  Files are handled
// one at a time, in the order they settle.
type dirWatcher struct {
	dir      string
	settle   time.Duration
	existing bool
	logger   logging.Logger
	ingest   func(ctx context.Context, path string) ArchiveResult
	onResult func(ArchiveResult)

	// ready, when set, is closed once the directory is being watched.
	ready chan struct{}
}

// Run blocks until ctx is done.
func (w *dirWatcher) Run(ctx context.Context) error {
	log := logging.OrDefault(w.logger)
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create watcher")
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return errors.Wrapf(err, errors.ErrCodeArchiveUnreadable, "cannot watch %s", w.dir)
	}
	if w.ready != nil {
		close(w.ready)
	}
	log.Info("watching directory", logging.String("dir", w.dir), logging.Duration("settle", w.settle))

	if w.existing {
		paths, err := expandInputs([]string{w.dir})
		if err != nil {
			return err
		}
		for _, p := range paths {
			if ctx.Err() != nil {
				return nil
			}
			w.handle(ctx, p)
		}
	}

	tick := w.settle / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped", logging.String("dir", w.dir))
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, ev.Name)
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && acceptInput(ev.Name):
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", logging.Err(err))

		case now := <-ticker.C:
			for p, seen := range pending {
				if now.Sub(seen) >= w.settle {
					delete(pending, p)
					w.handle(ctx, p)
				}
			}
		}
	}
}

func (w *dirWatcher) handle(ctx context.Context, p string) {
	res := w.ingest(ctx, p)
	if w.onResult != nil {
		w.onResult(res)
	}
}

//Personal.AI order the ending
