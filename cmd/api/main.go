package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/metinatakli/seat-reservation-core/internal/app"
)

func main() {
	// Missing .env is fine; flags and the process environment still apply.
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("loading .env file", "error", err)
		os.Exit(1)
	}

	err = app.Run()
	if err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
