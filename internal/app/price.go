package app

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edward-yakop/go-chores/internal/config"
	"github.com/edward-yakop/go-chores/internal/price"
	"github.com/edward-yakop/go-chores/internal/progress"
)

// PriceArgs are the pricewatch command line flags.
type PriceArgs struct {
	Config   string
	State    string
	NewBooks string
	Notify   string
	Verbose  bool
	Progress bool
}

// PriceApp refreshes the tracked book prices once.
type PriceApp struct {
	cfg      config.Config
	progress bool
	now      func() time.Time
}

// ParsePriceOption merges flags into the loaded config and validates it.
func ParsePriceOption(args PriceArgs) (*config.Config, error) {
	cfg, err := config.Load(args.Config)
	if err != nil {
		return nil, err
	}

	if args.State != "" {
		cfg.Price.StateFile = args.State
	}
	if args.NewBooks != "" {
		cfg.Price.NewBooksFile = args.NewBooks
	}
	if args.Notify != "" {
		cfg.Price.NotifyURL = args.Notify
	}
	if args.Verbose {
		cfg.Logging.Level = "trace"
	}

	if err = cfg.ValidatePrice(); err != nil {
		return nil, errors.Wrap(err, "invalid price settings")
	}
	return cfg, nil
}

func NewPriceApp(cfg *config.Config, showProgress bool) *PriceApp {
	return &PriceApp{
		cfg:      *cfg,
		progress: showProgress,
		now:      time.Now,
	}
}

// Execute imports new books, refreshes prices and saves the state.
func (a *PriceApp) Execute(ctx context.Context) (*price.Summary, error) {
	pc := a.cfg.Price

	opts := price.TrackerOptions{
		StateFile:    pc.StateFile,
		NewBooksFile: pc.NewBooksFile,
		ProductURL:   pc.ProductURL,
		Now:          a.now,
	}

	var reporter *progress.Reporter
	if a.progress {
		opts.Listener = func(book *price.Book, err error, curr, count int) {
			if reporter == nil {
				reporter = progress.NewReporter(progress.Options{Total: count, Description: "Updating prices"})
				reporter.Start()
			}
			reporter.Add(err == nil)
		}
	}

	tracker := price.NewTracker(
		price.NewScraper(pc.UserAgent, pc.AcceptLanguage, pc.Timeout),
		price.NewNotifier(pc.NotifyURL, pc.Timeout),
		opts,
	)

	summary, err := tracker.Run(ctx)
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		log.Error("Price run failed: %v.", err)
		return summary, err
	}
	return summary, nil
}
