package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronicle-project/chronicle/internal/workspace"
	"github.com/chronicle-project/chronicle/pkg/color"
	"github.com/chronicle-project/chronicle/pkg/config"
	"github.com/chronicle-project/chronicle/pkg/model"
)

var initPrintHooks bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a chronicle workspace",
	Long: `Initialize a chronicle workspace in the current directory.

This creates:
  - .chronicle/ directory with sessions/ and tasks/
  - format_version file (version 1)
  - a default config.yaml

Use --print-hooks to print the assistant settings snippet that wires
'chronicle hook' to the observed events.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmtErr("cannot get current directory: %v", err)
			os.Exit(1)
		}

		ws, err := workspace.Init(cwd)
		if err != nil {
			fmtErr("failed to initialize workspace: %v", err)
			os.Exit(1)
		}
		// Re-running init must not clobber a customized config.
		if _, err := os.Stat(config.Path(ws.Root)); os.IsNotExist(err) {
			if err := config.Save(ws.Root, config.Default()); err != nil {
				fmtErr("failed to write default config: %v", err)
				os.Exit(1)
			}
		}

		if initPrintHooks {
			printHookSettings()
			return
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"workspace_root": ws.Root,
				"format_version": ws.FormatVersion,
				"workspace_id":   ws.WorkspaceID,
			})
		} else {
			fmt.Printf("Initialized chronicle workspace in %s\n", color.Success(ws.Dir()))
			fmt.Printf("  Run %s to wire up the assistant hooks\n", color.Highlight("chronicle init --print-hooks"))
		}
	},
}

// printHookSettings prints the settings snippet that routes the observed
// hook events through 'chronicle hook'.
func printHookSettings() {
	events := []model.EventName{
		model.EventSessionStart,
		model.EventPostToolUse,
		model.EventStop,
		model.EventPreCompact,
		model.EventUserPromptSubmit,
		model.EventSessionEnd,
	}

	type hookEntry struct {
		Type    string `json:"type"`
		Command string `json:"command"`
	}
	type matcher struct {
		Hooks []hookEntry `json:"hooks"`
	}

	hooks := make(map[string][]matcher, len(events))
	for _, ev := range events {
		hooks[string(ev)] = []matcher{{Hooks: []hookEntry{{Type: "command", Command: "chronicle hook"}}}}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"hooks": hooks})
}

func init() {
	initCmd.Flags().BoolVar(&initPrintHooks, "print-hooks", false, "print the assistant hook settings snippet")
	rootCmd.AddCommand(initCmd)
}
