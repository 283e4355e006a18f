package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var importProcess bool

var importCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import schools from an establishment CSV",
	Long: `Import loads schools from a GIAS-style establishment CSV export.

Rows whose URN already exists are skipped, so re-running an import on an
updated export only adds the new schools. Each imported school also keeps
its full source row as its first data record.

Examples:
  # Import the register
  ./termtrack import establishments.csv

  # Import and mark every school as already processed
  ./termtrack import establishments.csv --process`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importProcess, "process", false, "Set process=true for all imported schools")
}

func runImport(cmd *cobra.Command, args []string) {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		log.Fatalf("File not found: %s", path)
	}

	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	schoolStore := store.NewSchoolStore(db)
	recordStore := store.NewRecordStore(db)
	importer := service.NewImporter(db, schoolStore, recordStore)

	stats, err := importer.Import(ctx, path, importProcess)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Import cancelled")
			os.Exit(1)
		}
		log.Fatalf("Import failed: %v", err)
	}
	importer.PrintSummary(stats)

	if stats.Errors > 0 {
		os.Exit(1)
	}
}
