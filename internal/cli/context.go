package cli

import (
	"fmt"
	"os"

	"github.com/chronicle-project/chronicle/internal/workspace"
	"github.com/chronicle-project/chronicle/pkg/color"
	"github.com/chronicle-project/chronicle/pkg/config"
)

// requireWorkspace discovers the workspace from CWD and returns it along
// with its config, or exits with an error.
func requireWorkspace() (*workspace.Workspace, *config.Config) {
	cwd, err := os.Getwd()
	if err != nil {
		fmtErr("cannot get current directory: %v", err)
		os.Exit(1)
	}
	ws, err := workspace.Discover(cwd)
	if err != nil {
		fmtErr("not a chronicle workspace (run 'chronicle init' first): %v", err)
		os.Exit(1)
	}
	cfg, err := config.Load(ws.Root)
	if err != nil {
		fmtErr("loading config: %v", err)
		os.Exit(1)
	}
	return ws, cfg
}

// fmtErr prints a formatted error message to stderr.
func fmtErr(format string, args ...any) {
	prefix := "chronicle: "
	if color.Enabled() {
		prefix = color.Error("chronicle:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
