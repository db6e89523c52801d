package main

import (
	"log/slog"
	"os"

	"github.com/yanasan/todo-api/internal/app"
	"github.com/yanasan/todo-api/internal/logger"
)

func main() {
	// replaced once config is loaded
	slog.SetDefault(logger.New(os.Stdout, "info", "pretty"))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
