package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronicle-project/chronicle/internal/pipeline"
	"github.com/chronicle-project/chronicle/pkg/color"
	"github.com/chronicle-project/chronicle/pkg/logging"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize <session-id>",
	Short: "Synthesize completion records for a session",
	Long: `Synthesize completion records for a session.

Normally synthesis runs automatically when the session ends. Use this for
sessions killed before their terminal hook event fired: it reconstructs
the session from its log and writes the resulting records to the ledger.
Safe to rerun; existing entries are updated in place.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ws, cfg := requireWorkspace()
		sessionID := args[0]

		log := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level))
		log.SetOutput(os.Stderr)

		p := pipeline.New(ws, cfg, log)
		if err := p.Finalize(context.Background(), sessionID); err != nil {
			fmtErr("finalize %s: %v", sessionID, err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]any{"session_id": sessionID, "finalized": true})
			return
		}
		fmt.Printf("Finalized session %s\n", color.Success(sessionID))
	},
}

func init() {
	rootCmd.AddCommand(finalizeCmd)
}
