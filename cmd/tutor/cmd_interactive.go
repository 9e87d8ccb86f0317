package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pathtutor/internal/articulation"
	"pathtutor/internal/logging"
	"pathtutor/internal/session"
)

// runInteractive starts the conversation loop on stdin/stdout.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// SIGINT is a soft interrupt handled by the loop; SIGTERM ends the session.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	terms := make(chan os.Signal, 1)
	signal.Notify(terms, syscall.SIGTERM)
	defer signal.Stop(terms)
	go func() {
		select {
		case <-terms:
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return runSession(ctx, a, os.Stdin, articulation.NewRenderer(os.Stdout), interrupts)
}

// runSession runs one loop to completion, alongside the metrics endpoint
// when configured.
func runSession(ctx context.Context, a *app, in io.Reader, renderer *articulation.Renderer, interrupts <-chan os.Signal) error {
	opts := []session.Option{
		session.WithInterrupts(interrupts),
		session.WithObserver(a.metrics),
		session.WithSpecialists(a.taxonomy.Specialists()),
	}
	if a.store != nil {
		opts = append(opts, session.WithRecorder(a.store))
	}
	loop := session.New(a.classifier, a.router, renderer, in, a.cfg.Tutor, opts...)

	if a.store != nil {
		if err := a.store.StartSession(loop.ID(), a.cfg.LLM.Provider, a.cfg.LLM.Model, time.Now()); err != nil {
			logging.StoreError("Failed to register session: %v", err)
		}
		defer func() {
			if err := a.store.EndSession(loop.ID(), time.Now()); err != nil {
				logging.StoreError("Failed to close session: %v", err)
			}
		}()
	}

	g, gctx := errgroup.WithContext(a.withUsage(ctx))
	serveCtx, stopServing := context.WithCancel(gctx)
	if addr := a.cfg.Metrics.ListenAddr; addr != "" {
		g.Go(func() error {
			return a.metrics.Serve(serveCtx, addr)
		})
	}
	g.Go(func() error {
		defer stopServing()
		return loop.Run(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
