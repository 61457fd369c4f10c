package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/edward-yakop/go-chores/internal/config"
	"github.com/edward-yakop/go-chores/internal/core"
	"github.com/edward-yakop/go-chores/internal/misc"
	"github.com/edward-yakop/go-chores/internal/progress"
	"github.com/edward-yakop/go-chores/internal/queue"
)

var (
	log = misc.NewLogger("App", 2)
)

// QueueArgs are the podqueue command line flags. Empty or zero values keep
// whatever the config file says.
type QueueArgs struct {
	Config   string
	Queue    string
	Workers  int
	Timeout  time.Duration
	Verbose  bool
	Progress bool
}

// QueueApp downloads the podcast queue once.
type QueueApp struct {
	cfg      config.Config
	progress bool
	out      io.Writer
}

// ParseQueueOption merges flags into the loaded config and validates it.
func ParseQueueOption(args QueueArgs) (*config.Config, error) {
	cfg, err := config.Load(args.Config)
	if err != nil {
		return nil, err
	}

	if args.Queue != "" {
		cfg.Queue.File = args.Queue
	}
	if args.Workers != 0 {
		cfg.Queue.Workers = args.Workers
	}
	if args.Timeout != 0 {
		cfg.Queue.Timeout = args.Timeout
	}
	if args.Verbose {
		cfg.Logging.Level = "trace"
	}

	if err = cfg.ValidateQueue(); err != nil {
		return nil, errors.Wrap(err, "invalid queue settings")
	}
	return cfg, nil
}

func NewQueueApp(cfg *config.Config, showProgress bool) *QueueApp {
	return &QueueApp{
		cfg:      *cfg,
		progress: showProgress,
		out:      os.Stdout,
	}
}

// Execute runs the queue once and returns the run report.
func (a *QueueApp) Execute(ctx context.Context) (*queue.Report, error) {
	qc := a.cfg.Queue

	headers := http.Header{}
	if qc.UserAgent != "" {
		headers.Set("User-Agent", qc.UserAgent)
	}
	if qc.AcceptEncoding != "" {
		headers.Set("Accept-Encoding", qc.AcceptEncoding)
	}
	fetcherOpts := core.Options{
		Headers:   headers,
		ChunkSize: qc.ChunkSize,
		Timeout:   qc.Timeout,
		Output:    a.out,
	}
	opts := queue.Options{
		QueuePath: qc.File,
		Workers:   qc.Workers,
		Output:    a.out,
	}

	// console lines wait in held until the bar is finished
	var (
		held     lockedBuffer
		reporter *progress.Reporter
	)
	if a.progress {
		fetcherOpts.Output = &held
		opts.Output = &held
		opts.Started = func(count int) {
			reporter = progress.NewReporter(progress.Options{
				Total:       count,
				Description: "Downloading",
				Output:      a.out,
			})
			reporter.Start()
		}
		opts.Listener = func(res core.Result, curr, count int) {
			reporter.Add(res.Success)
		}
	}

	report, err := queue.NewRunner(core.NewFetcher(fetcherOpts), opts).Run(ctx)
	if reporter != nil {
		reporter.Stop()
	}
	_, _ = held.WriteTo(a.out)

	if err != nil {
		log.Error("Queue [%s] failed: %v.", qc.File, err)
		return report, err
	}
	return report, nil
}

// lockedBuffer is a bytes.Buffer safe for the concurrent writes of the
// download workers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.WriteTo(w)
}
