package queue

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/edward-yakop/go-chores/internal/core"
	"github.com/edward-yakop/go-chores/internal/misc"
)

const DefaultWorkers = 6

var (
	log = misc.NewLogger("Queue", 2)
)

// Listener is notified after each task finishes; curr counts finished tasks.
type Listener func(res core.Result, curr, count int)

var doNothingListener Listener = func(core.Result, int, int) {}

type Options struct {
	QueuePath string
	// Workers is the pool size. Default: 6.
	Workers int
	// Output receives the final summary line. Default: os.Stdout.
	Output   io.Writer
	Listener Listener
	// Started is called with the task count once the queue is parsed,
	// before any download begins.
	Started func(count int)
}

// Report summarises one run.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Bytes     int64
	// Pending are the failed tasks in queue order, as written back.
	Pending []core.Task
}

type Runner struct {
	fetcher core.Fetcher
	opts    Options
}

func NewRunner(fetcher core.Fetcher, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Listener == nil {
		opts.Listener = doNothingListener
	}

	return &Runner{
		fetcher: fetcher,
		opts:    opts,
	}
}

// Run downloads every queued task and rewrites the queue with the failures.
// The queue file is untouched when reading or parsing it fails.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	startTime := time.Now()

	tasks, err := ReadQueue(r.opts.QueuePath)
	if err != nil {
		return nil, err
	}
	log.Info("Processing %d queued downloads with %d workers.", len(tasks), r.opts.Workers)
	if r.opts.Started != nil {
		r.opts.Started(len(tasks))
	}

	results := r.fetchAll(ctx, tasks)

	report := &Report{Total: len(tasks)}
	for _, res := range results {
		if res.Success {
			report.Succeeded++
			report.Bytes += res.Bytes
			continue
		}
		report.Failed++
		report.Pending = append(report.Pending, res.Task)
	}

	if err = WriteQueue(r.opts.QueuePath, report.Pending); err != nil {
		return report, errors.Wrap(err, "Rewrite queue failed")
	}

	fmt.Fprintf(r.opts.Output, "Total size is %s\n", misc.HumanSize(report.Bytes))
	log.Info("Downloaded %d/%d, %d left in queue. Time cost: %v.",
		report.Succeeded, report.Total, report.Failed, time.Since(startTime))

	return report, nil
}

// fetchAll runs the tasks on a fixed pool and returns results in task order.
func (r *Runner) fetchAll(ctx context.Context, tasks []core.Task) []core.Result {
	results := make([]core.Result, len(tasks))

	// Workers get task indexes from this channel
	indexes := make(chan int)
	go func() {
		defer close(indexes)
		for i := range tasks {
			indexes <- i
		}
	}()

	var (
		mu       sync.Mutex
		finished int
		wg       sync.WaitGroup
	)
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				res := r.fetcher.Fetch(ctx, tasks[idx])
				results[idx] = res

				mu.Lock()
				finished++
				r.opts.Listener(res, finished, len(tasks))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return results
}
