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

// pricewatch always keeps a rotating log file
const defaultLogFile = "/srv/logfile"

func main() {
	args := app.PriceArgs{}
	flag.StringVar(&args.Config,
		"config", "",
		"path of the YAML config file (default: search ~/.config/chores and .)")
	flag.StringVar(&args.State,
		"state", "",
		"YAML file holding the tracked books (default: /srv/exported_books.yaml)")
	flag.StringVar(&args.NewBooks,
		"new", "",
		"file listing product URLs to start tracking (default: /srv/new_books.txt)")
	flag.StringVar(&args.Notify,
		"notify", "",
		"ntfy topic URL (default: http://ntfy/book)")
	flag.BoolVar(&args.Progress,
		"progress", progress.IsTerminal(),
		"draw a progress bar")
	flag.BoolVar(&args.Verbose,
		"verbose", false,
		"verbose output trace log")
	flag.Parse()

	cfg, err := app.ParsePriceOption(args)
	if err != nil {
		fmt.Println("--------------------------------------------")
		fmt.Printf("Error: %s\n", err)
		fmt.Println("--------------------------------------------")
		fmt.Println("Usage:")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = defaultLogFile
	}
	if err = misc.InitLogging(misc.LogOptions{
		Verbose: args.Verbose,
		Level:   cfg.Logging.Level,
		File:    logFile,
		MaxSize: cfg.Logging.MaxSize,
	}); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	_, err = app.NewPriceApp(cfg, args.Progress).Execute(ctx)
	stop()
	misc.StopLogging()
	if err != nil {
		os.Exit(1)
	}
}
