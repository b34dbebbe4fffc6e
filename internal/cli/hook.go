package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronicle-project/chronicle/internal/pipeline"
	"github.com/chronicle-project/chronicle/internal/workspace"
	"github.com/chronicle-project/chronicle/pkg/config"
	"github.com/chronicle-project/chronicle/pkg/logging"
	"github.com/chronicle-project/chronicle/pkg/model"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Process one hook event from stdin",
	Long: `Process one hook event from stdin.

Reads a single hook payload, records relevant activity in the session log,
and on terminal events synthesizes completion records into the ledger.
Always prints a continue response and exits 0: observation never blocks
the assistant.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runHook()
	},
}

func runHook() {
	cwd, err := os.Getwd()
	if err != nil {
		respondContinue()
		return
	}
	ws, err := workspace.Discover(cwd)
	if err != nil {
		// No workspace means nothing to observe here.
		respondContinue()
		return
	}
	cfg, err := config.Load(ws.Root)
	if err != nil {
		cfg = config.Default()
	}

	// stdout belongs to the hook protocol; all diagnostics go to the
	// side-channel file.
	log := logging.OpenFileLogger(logging.ParseLevel(cfg.Logging.Level), ws.SideLogPath(cfg.Logging.File))
	defer log.Close()

	p := pipeline.New(ws, cfg, log)
	_ = p.Run(context.Background(), os.Stdin, os.Stdout)
}

func respondContinue() {
	_ = json.NewEncoder(os.Stdout).Encode(model.HookResponse{Continue: true})
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
