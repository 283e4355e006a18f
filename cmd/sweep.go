package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var sweepSummaryOnly bool
var sweepOutput string
var sweepFile string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Report records with missing or invalid payloads",
	Long: `Sweep validates every stored payload and reports the broken ones.

Records are bucketed as NULL, empty object, or undecodable JSON, and
schools with no records at all are listed separately.

Examples:
  # Full report on the console
  ./termtrack sweep

  # Counts only
  ./termtrack sweep --summary-only

  # Write the report to a file
  ./termtrack sweep --output file --file invalid_json_data.txt`,
	Run: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().BoolVar(&sweepSummaryOnly, "summary-only", false, "Show only summary statistics")
	sweepCmd.Flags().StringVar(&sweepOutput, "output", "console", "Output format: console or file")
	sweepCmd.Flags().StringVar(&sweepFile, "file", "invalid_json_data.txt", "Output file name (with --output file)")
}

func runSweep(cmd *cobra.Command, args []string) {
	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	schoolStore := store.NewSchoolStore(db)
	recordStore := store.NewRecordStore(db)
	sweeper := service.NewSweeper(schoolStore, recordStore)

	report, err := sweeper.Validate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Sweep cancelled")
			os.Exit(1)
		}
		log.Fatalf("Sweep failed: %v", err)
	}

	sweeper.PrintReport(report, sweepSummaryOnly)

	if sweepOutput == "file" && report.Invalid() > 0 {
		if err := sweeper.WriteValidationReport(sweepFile, report); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	}
}
