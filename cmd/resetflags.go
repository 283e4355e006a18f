package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var resetFlagsDryRun bool

var resetFlagsCmd = &cobra.Command{
	Use:   "reset-flags",
	Short: "Reset scraper flags for schools with no records",
	Long: `Reset-flags clears second_scraper and third_scraper for schools with no records.

A school flagged as visited by a later scraping stage but with no stored
records never produced data; clearing its flags puts it back at the start
of the workflow.

Examples:
  # Reset the flags
  ./termtrack reset-flags

  # Preview without writing
  ./termtrack reset-flags --dry-run`,
	Run: runResetFlags,
}

func init() {
	rootCmd.AddCommand(resetFlagsCmd)
	resetFlagsCmd.Flags().BoolVar(&resetFlagsDryRun, "dry-run", false, "Show what would be reset without writing")
}

func runResetFlags(cmd *cobra.Command, args []string) {
	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	schoolStore := store.NewSchoolStore(db)
	recordStore := store.NewRecordStore(db)
	reconciler := service.NewReconciler(db, schoolStore, recordStore)

	plan, err := reconciler.PlanFlagReset(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Reset cancelled")
			os.Exit(1)
		}
		log.Fatalf("Reset failed: %v", err)
	}

	updated := 0
	if !resetFlagsDryRun {
		updated, err = reconciler.ApplyFlagReset(ctx, plan)
		if err != nil {
			log.Fatalf("Failed to reset flags: %v", err)
		}
	}
	reconciler.PrintFlagResetSummary(plan, updated, !resetFlagsDryRun)
}
