package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edward-yakop/go-chores/internal/app"
	"github.com/edward-yakop/go-chores/internal/misc"
	"github.com/edward-yakop/go-chores/internal/progress"
)

func main() {
	args := app.QueueArgs{}
	flag.StringVar(&args.Config,
		"config", "",
		"path of the YAML config file (default: search ~/.config/chores and .)")
	flag.StringVar(&args.Queue,
		"queue", "",
		"queue file to process (default: ~/.newsboat/queue)")
	flag.IntVar(&args.Workers,
		"workers", 0,
		"number of parallel downloads (default: 6)")
	flag.DurationVar(&args.Timeout,
		"timeout", 0,
		"per download timeout, 0 disables")
	flag.BoolVar(&args.Progress,
		"progress", progress.IsTerminal(),
		"draw a progress bar")
	flag.BoolVar(&args.Verbose,
		"verbose", false,
		"verbose output trace log")
	flag.Parse()

	cfg, err := app.ParseQueueOption(args)
	if err != nil {
		fmt.Println("--------------------------------------------")
		fmt.Printf("Error: %s\n", err)
		fmt.Println("--------------------------------------------")
		fmt.Println("Usage:")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err = misc.InitLogging(misc.LogOptions{
		Verbose: args.Verbose,
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		MaxSize: cfg.Logging.MaxSize,
	}); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	_, err = app.NewQueueApp(cfg, args.Progress).Execute(ctx)
	stop()
	misc.StopLogging()
	if err != nil {
		os.Exit(1)
	}
}
