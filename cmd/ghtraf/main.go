// Command ghtraf sets up GitHub traffic tracking for a repository.
package main

import (
	"context"
	"os"

	"github.com/ghtraf/ghtraf/internal/cmd"
)

func main() {
	ctx, stop := cmd.InterruptContext(context.Background())
	code := cmd.NewApp().Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
