package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var refineSave bool
var refineDeleteInvalid bool
var refineOutput string
var refineFile string

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine stored calendar payloads into the canonical shape",
	Long: `Refine normalizes every stored record into the canonical calendar shape.

Raw scraper output arrives in several wrappings (fenced JSON in a text
field, raw strings, single-key objects); refine unwraps each one,
validates it, and rebuilds it with only the canonical fields. By default
this is a dry run that reports what would change.

Examples:
  # Preview the refinement
  ./termtrack refine

  # Persist the normalized payloads
  ./termtrack refine --save

  # Persist and also delete records that failed refinement
  ./termtrack refine --save --delete-invalid`,
	Run: runRefine,
}

func init() {
	rootCmd.AddCommand(refineCmd)
	refineCmd.Flags().BoolVar(&refineSave, "save", false, "Write normalized payloads back to the database")
	refineCmd.Flags().BoolVar(&refineDeleteInvalid, "delete-invalid", false, "Delete records that fail refinement (requires --save)")
	refineCmd.Flags().StringVar(&refineOutput, "output", "console", "Output format: console or file")
	refineCmd.Flags().StringVar(&refineFile, "file", "refined_calendar_data.json", "Output file name (with --output file)")
}

func runRefine(cmd *cobra.Command, args []string) {
	if refineDeleteInvalid && !refineSave {
		log.Fatal("--delete-invalid requires --save")
	}

	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	recordStore := store.NewRecordStore(db)
	refiner := service.NewRefiner(db, recordStore)

	stats, err := refiner.Run(ctx, refineSave, refineDeleteInvalid)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Refinement cancelled")
			os.Exit(1)
		}
		log.Fatalf("Refinement failed: %v", err)
	}
	refiner.PrintSummary(stats, refineSave)

	if refineOutput == "file" && len(refiner.Refined) > 0 {
		if err := refiner.WriteRefinedJSON(refineFile); err != nil {
			log.Fatalf("Failed to write refined data: %v", err)
		}
	}
}
