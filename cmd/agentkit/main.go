// Command agentkit is a terminal client for LLM chat and tool-calling agents.
//
// It talks to the OpenRouter gateway, OpenAI, Anthropic, Gemini, or any
// OpenAI-compatible endpoint. Configuration comes from environment variables,
// an optional .env file and an optional config.yaml in the working directory.
//
// Quick-start:
//
//	OPEN_ROUTER_API_KEY=sk-or-... ./agentkit chat "Hello!"
//
// See .env.example for all available configuration variables.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at build time via -ldflags="-X main.version=x.y.z".
var version = "0.1.0"

func main() {
	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// buildLogger constructs a JSON slog.Logger for the given level string.
// Unknown level strings default to INFO. Logs go to w so replies on stdout
// stay clean.
func buildLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     l,
		AddSource: l == slog.LevelDebug, // include file:line only in debug mode
	}))
}
