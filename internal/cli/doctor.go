package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronicle-project/chronicle/internal/doctor"
)

var doctorStrict bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check workspace health",
	Long: `Check workspace health.

Runs diagnostic checks on the chronicle workspace and reports any issues.
Use --strict to additionally verify the hash chain of every session log.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ws, _ := requireWorkspace()

		result, err := doctor.NewDoctor(ws).Check(doctorStrict)
		if err != nil {
			fmtErr("doctor: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(result)
			if !result.Healthy {
				os.Exit(1)
			}
			return
		}

		if len(result.Findings) == 0 {
			fmt.Println("Workspace is healthy.")
			return
		}
		fmt.Printf("Findings (%d):\n", len(result.Findings))
		for _, f := range result.Findings {
			fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Category, f.Description)
		}
		if !result.Healthy {
			os.Exit(1)
		}
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "verify every session hash chain")
	rootCmd.AddCommand(doctorCmd)
}
