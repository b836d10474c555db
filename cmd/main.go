package main

import (
	"os"
	"os/signal"
	"syscall"

	"coinpulse/internal/bootstrap"
)

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()

	if err := container.Start(); err != nil {
		container.Log.Errorw("Failed to start", "error", err)
		container.Shutdown()
		os.Exit(1)
	}

	waitForShutdown(container)
	container.Shutdown()
}

// waitForShutdown blocks until a signal arrives or the container cancels itself
func waitForShutdown(container *bootstrap.Container) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		container.Log.Infow("Received shutdown signal", "signal", sig.String())
	case <-container.Context.Done():
		container.Log.Info("Context cancelled, shutting down")
	}
}
