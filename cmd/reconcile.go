package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var reconcileUpdate bool
var reconcileSetFalse bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Align process flags with stored calendar data",
	Long: `Reconcile checks every school's current record and aligns its process flag.

A school whose current record is a valid calendar document should have
process=true. Promotion is always planned; demotion (flipping process
back to false when the data turns out invalid) is opt-in via --set-false.
By default this is a dry run.

Examples:
  # Preview the changes
  ./termtrack reconcile

  # Apply promotions
  ./termtrack reconcile --update

  # Apply promotions and demotions
  ./termtrack reconcile --update --set-false`,
	Run: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&reconcileUpdate, "update", false, "Write the flag changes to the database")
	reconcileCmd.Flags().BoolVar(&reconcileSetFalse, "set-false", false, "Also demote schools without valid data")
}

func runReconcile(cmd *cobra.Command, args []string) {
	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	schoolStore := store.NewSchoolStore(db)
	recordStore := store.NewRecordStore(db)
	reconciler := service.NewReconciler(db, schoolStore, recordStore)

	plan, err := reconciler.PlanProcess(ctx, reconcileSetFalse)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Reconciliation cancelled")
			os.Exit(1)
		}
		log.Fatalf("Reconciliation failed: %v", err)
	}

	if reconcileUpdate {
		if err := reconciler.ApplyProcess(ctx, plan); err != nil {
			log.Fatalf("Failed to apply flag updates: %v", err)
		}
	}
	reconciler.PrintProcessSummary(plan, reconcileUpdate)
}
