// Command hauntedhouse opens a window and renders the haunted house scene
// until the window is closed.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("hauntedhouse failed", "err", err)
		os.Exit(1)
	}
}
