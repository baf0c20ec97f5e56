package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lead-insights/cmd/leadinsights/cli"
	"github.com/odyssey-erp/lead-insights/internal/app"
)

const jobsUsage = "usage: leadinsights jobs <trigger warmup|bump|stats>"

// runJobsCommand handles `leadinsights jobs ...` and returns the exit code.
func runJobsCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, jobsUsage)
		return 2
	}
	c := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, cfg.WarmupTerritories)
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()

	var out any
	var err error
	switch {
	case args[0] == "trigger" && len(args) == 2:
		out, err = c.Trigger(ctx, args[1])
	case args[0] == "stats":
		out, err = c.InspectQueue(ctx)
	default:
		fmt.Fprintln(os.Stderr, jobsUsage)
		return 2
	}
	if err != nil {
		logger.Error("jobs command", slog.String("command", args[0]), slog.Any("error", err))
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", slog.Any("error", err))
		return 1
	}
	return 0
}
