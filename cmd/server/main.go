// Package main is the entry point for the code runner server.
//
// main's job is to read configuration, build the execution backend, and
// hand everything to internal/server. All actual logic lives in the
// imported packages.
package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/sakif/code-runner/internal/executor"
	"github.com/sakif/code-runner/internal/executor/docker"
	"github.com/sakif/code-runner/internal/executor/local"
	"github.com/sakif/code-runner/internal/server"
)

func main() {
	// A .env file is honored when present; real environment variables win.
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))

	port := envInt(logger, "PORT", 8080)

	// EXECUTOR selects the sandbox backend: "local" supervises interpreter
	// processes on the host, "docker" runs them in pooled containers.
	var exec executor.Executor
	switch backend := envStr("EXECUTOR", "local"); backend {
	case "docker":
		cfg := docker.DefaultConfig()
		if image := os.Getenv("DOCKER_IMAGE"); image != "" {
			cfg.Image = image
		}
		dockerExec, err := docker.New(cfg, logger)
		if err != nil {
			// The server still starts; /api/execute answers 503 until the
			// backend is fixed.
			logger.Warn("docker executor unavailable",
				slog.String("error", err.Error()),
			)
			break
		}
		defer dockerExec.Close()
		exec = dockerExec

	case "local":
		cfg := local.DefaultConfig()
		if bin := os.Getenv("PYTHON_BIN"); bin != "" {
			cfg.Interpreter = bin
		}
		if dir := os.Getenv("WORK_DIR"); dir != "" {
			cfg.WorkDir = dir
		}
		cfg.MaxConcurrency = int64(envInt(logger, "MAX_CONCURRENCY", int(cfg.MaxConcurrency)))
		localExec, err := local.New(cfg, logger)
		if err != nil {
			logger.Error("failed to create local executor", slog.String("error", err.Error()))
			os.Exit(1)
		}
		exec = localExec

	default:
		logger.Error("unknown EXECUTOR value", slog.String("value", backend))
		os.Exit(1)
	}

	srv := server.New(server.Config{Port: port}, logger, exec)

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(logger *slog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Error("invalid integer env value", slog.String("key", key), slog.String("value", v))
		os.Exit(1)
	}
	return n
}
