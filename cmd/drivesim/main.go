package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/zeusync/drivesim/internal/config"
	"github.com/zeusync/drivesim/internal/core/observability/log"
	"github.com/zeusync/drivesim/internal/injector"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "drivesim:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := config.Flags("drivesim")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	application, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Provide().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = application.Run(ctx); err != nil {
		return err
	}

	for _, r := range application.History() {
		fmt.Printf("episode %d: %s after %d ticks, best fitness %.2f\n",
			r.Episode, r.Reason, r.Ticks, r.BestFitness)
	}
	return nil
}
