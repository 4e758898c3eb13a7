package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cerebrum/bofh-go/internal/infrastructure/cli"
)

// exitSignals end the session cleanly: logout, history closed, terminal
// restored.
var exitSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), exitSignals...)
	defer stop()

	root := cli.NewRootCmd(cli.Options{})
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		if cli.ShouldReport(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(cli.ExitCode(err))
	}
}
