package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"slidedeck/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Log.WithError(err).Error("close resources failed")
		}
	}()

	if err := app.StartWorker(ctx); err != nil {
		_ = app.Close()
		app.Log.WithError(err).Fatal("start worker failed")
	}

	select {
	case <-ctx.Done():
		app.Log.Info("worker shutting down")
	case <-app.DocumentWorker.Done():
		// The broker closed the channel; exit so the supervisor restarts us.
		app.Log.Error("consumer stopped")
	}
}
