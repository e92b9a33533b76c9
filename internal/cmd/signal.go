package cmd

import (
	"context"
	"os"
	"os/signal"
)

// InterruptContext returns a context cancelled by the first Ctrl-C. The
// signal handler is released as soon as that happens, so a second Ctrl-C
// kills the process even while a step is ignoring the context.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}
