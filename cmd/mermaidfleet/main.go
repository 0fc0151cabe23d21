package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aryankumar/mermaidfleet/internal/cli"
	"github.com/aryankumar/mermaidfleet/internal/util"
)

func main() {
	ctx, stop := util.WithShutdown(context.Background())

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		slog.Error("command failed", "error", err, "hint", util.FriendlyError(err))
		os.Exit(1)
	}
}
