// Command npcsim runs the npcforge cognitive NPC simulation service.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/npcforge/internal/app"
	"github.com/talgya/npcforge/internal/boundary"
)

// defaultTickInterval is the wall-clock cadence of WorldClock.Autorun
// started at process boot; admins can change the running cadence via
// POST /world/start (spec.md §6).
const defaultTickInterval = 10 * time.Second

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("npcforge — cognitive NPC simulation service")
	startedAt := time.Now()

	cfg := app.LoadConfig()
	os.MkdirAll("data", 0755)

	container, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to build container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if cfg.AdminKey == "" {
		slog.Warn("NPCFORGE_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}
	if cfg.AnthropicKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set — Oracle calls will use fallback frames")
	}

	srv := boundary.New(container, cfg.HTTPPort, cfg.AdminKey)
	srv.Start()

	go container.Clock.Autorun(defaultTickInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("\nnpcforge is alive — world clock running at %.2fx, seed %d.\n", cfg.TimeScale, cfg.MasterSeed)
	fmt.Printf("API: http://localhost:%d/world/events\n", cfg.HTTPPort)
	fmt.Println("Ctrl+C to stop.")

	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	fmt.Printf("npcforge stopped after %s, tracking %s live agents.\n",
		humanize.RelTime(startedAt, time.Now(), "", ""),
		humanize.Comma(int64(len(container.Agents.List()))))
}
