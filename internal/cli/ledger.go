package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chronicle-project/chronicle/internal/ledger"
	"github.com/chronicle-project/chronicle/pkg/color"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List synthesized completion records",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ws, _ := requireWorkspace()

		store, err := ledger.Open(ws.LedgerPath())
		if err != nil {
			fmtErr("opening ledger: %v", err)
			os.Exit(1)
		}
		defer store.Close()

		records, err := store.List()
		if err != nil {
			fmtErr("listing ledger: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}
		if len(records) == 0 {
			fmt.Println("Ledger is empty.")
			return
		}
		for _, rec := range records {
			task := rec.TaskID
			if task == "" {
				task = color.Dim("(session)")
			} else {
				task = color.Highlight(task)
			}
			status := color.Success("ok")
			if !rec.Success {
				status = color.Warning("no-op")
			}
			fmt.Printf("%s  %s  %s  %s\n",
				rec.CompletedAt.Format("2006-01-02 15:04:05"),
				task, status, rec.ApproachSummary)
			if len(rec.FilesChanged) > 0 {
				fmt.Printf("    files: %s\n", strings.Join(rec.FilesChanged, ", "))
			}
			if len(rec.CommitHashes) > 0 {
				fmt.Printf("    commits: %s\n", strings.Join(rec.CommitHashes, ", "))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
}
