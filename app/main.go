package main

import (
	"context"
	"log/slog"
	"os"
)

// Usage: litereader <database path> <command>
func main() {
	if len(os.Args) < 3 {
		slog.Error("usage: litereader <database path> <command>")
		os.Exit(1)
	}
	databaseFilePath := os.Args[1]
	command := os.Args[2]

	engine, err := NewEngine(databaseFilePath)
	if err != nil {
		slog.Error("open database", "path", databaseFilePath, "err", err)
		os.Exit(1)
	}
	defer engine.Close()

	if err := engine.ExecuteCommand(context.Background(), command); err != nil {
		slog.Error("execute command", "command", command, "err", err)
		os.Exit(1)
	}
}
