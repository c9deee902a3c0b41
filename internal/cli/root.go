package cli

import (
	"context"
	"os"
)

// Execute runs the drawrev CLI and returns an error if any command fails.
// This is a convenience entry point that builds a CLI on stderr at info
// level and executes the root command. Version information comes from the
// buildinfo package and is injected via ldflags at build time.
func Execute() error {
	c := New(os.Stderr, LogInfo)
	return c.RootCommand().ExecuteContext(context.Background())
}
