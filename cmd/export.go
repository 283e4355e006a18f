package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var exportIncludeInvalid bool

var exportCmd = &cobra.Command{
	Use:   "export <output-file>",
	Short: "Export refined calendar data to CSV",
	Long: `Export writes every school's refined calendar data to a flat CSV.

Each row carries the school's identity and address, followed by one
term/date/detail column triple per term. The column count is sized to
the school with the most terms, so all rows share the same header.

Examples:
  # Export only schools with calendar data
  ./termtrack export calendars.csv

  # Include schools without calendar data as empty rows
  ./termtrack export calendars.csv --include-invalid`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().BoolVar(&exportIncludeInvalid, "include-invalid", false, "Include schools without valid calendar data")
}

func runExport(cmd *cobra.Command, args []string) {
	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	schoolStore := store.NewSchoolStore(db)
	recordStore := store.NewRecordStore(db)
	exporter := service.NewExporter(schoolStore, recordStore)

	stats, err := exporter.Export(ctx, args[0], exportIncludeInvalid)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Export cancelled")
			os.Exit(1)
		}
		log.Fatalf("Export failed: %v", err)
	}
	exporter.PrintSummary(stats, args[0])
}
