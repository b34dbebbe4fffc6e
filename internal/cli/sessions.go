package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronicle-project/chronicle/internal/reconstruct"
	"github.com/chronicle-project/chronicle/internal/sessionlog"
	"github.com/chronicle-project/chronicle/pkg/color"
	"github.com/chronicle-project/chronicle/pkg/pathutil"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect observed session logs",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List observed sessions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ws, _ := requireWorkspace()

		infos, err := sessionlog.List(ws.SessionsDir())
		if err != nil {
			fmtErr("listing sessions: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(infos)
			return
		}
		if len(infos) == 0 {
			fmt.Println("No sessions observed yet.")
			return
		}
		for _, info := range infos {
			fmt.Printf("%s  %s  %d facts\n",
				color.Highlight(info.SessionID),
				info.ModTime.Format("2006-01-02 15:04:05"),
				info.NumFacts)
		}
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the reconstructed record for one session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ws, _ := requireWorkspace()
		sessionID := args[0]

		if err := pathutil.ValidateSessionID(sessionID); err != nil {
			fmtErr("%v", err)
			os.Exit(1)
		}

		facts, err := sessionlog.ReadFacts(ws.SessionLogPath(sessionID))
		if err != nil {
			fmtErr("reading session log: %v", err)
			os.Exit(1)
		}
		if len(facts) == 0 {
			fmtErr("no facts recorded for session %s", sessionID)
			os.Exit(1)
		}

		if err := sessionlog.VerifyChain(facts); err != nil {
			fmt.Fprintf(os.Stderr, "%s hash chain verification failed: %v\n", color.Warning("warning:"), err)
		}

		rec := reconstruct.Reconstruct(facts)
		rec.SessionID = sessionID

		if jsonOutput {
			outputJSON(rec)
			return
		}

		fmt.Printf("Session %s\n", color.Highlight(sessionID))
		fmt.Printf("  Started:  %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
		if rec.EndedAt != nil {
			fmt.Printf("  Ended:    %s\n", rec.EndedAt.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("  Ended:    %s\n", color.Dim("(still open or killed)"))
		}
		if rec.CWD != "" {
			fmt.Printf("  CWD:      %s\n", rec.CWD)
		}
		fmt.Printf("  Writes:   %d\n", len(rec.FileWrites))
		for _, w := range rec.FileWrites {
			fmt.Printf("    %s %s (%s)\n", w.At.Format("15:04:05"), w.Path, w.Category)
		}
		fmt.Printf("  Claims:   %d\n", len(rec.TaskClaims))
		for _, c := range rec.TaskClaims {
			fmt.Printf("    %s %s (%s)\n", c.At.Format("15:04:05"), c.TaskID, c.Source)
		}
		fmt.Printf("  Closes:   %d\n", len(rec.TaskCloses))
		for _, c := range rec.TaskCloses {
			fmt.Printf("    %s %s: %s\n", c.At.Format("15:04:05"), c.TaskID, c.Reason)
		}
		fmt.Printf("  Commits:  %d\n", len(rec.Commits))
		for _, c := range rec.Commits {
			fmt.Printf("    %s %s\n", c.At.Format("15:04:05"), c.MessagePreview)
		}
		if rec.Unclassified > 0 {
			fmt.Printf("  %s\n", color.Dim(fmt.Sprintf("Unclassified facts: %d", rec.Unclassified)))
		}
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}
