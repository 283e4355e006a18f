package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var removeAll bool
var removeSchoolID int
var removeUnwantedText bool
var removeDelete bool

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove stored records",
	Long: `Remove deletes stored records by school, by unwanted-text match, or all of them.

By default it previews what would be deleted. With --delete it asks for
confirmation first. The --filter-unwanted-text target matches records
containing prompt-template fragments that scraping agents sometimes echo
back instead of real event text.

Examples:
  # Preview removing one school's records
  ./termtrack remove --school-id 100000

  # Delete them
  ./termtrack remove --school-id 100000 --delete

  # Delete records polluted with prompt-template text
  ./termtrack remove --filter-unwanted-text --delete

  # Delete everything
  ./termtrack remove --all --delete`,
	Run: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().BoolVar(&removeAll, "all", false, "Delete all records")
	removeCmd.Flags().IntVar(&removeSchoolID, "school-id", 0, "Delete records for a specific school URN")
	removeCmd.Flags().BoolVar(&removeUnwantedText, "filter-unwanted-text", false, "Delete records containing unwanted prompt-template text")
	removeCmd.Flags().BoolVar(&removeDelete, "delete", false, "Actually delete (default is a dry-run preview)")
}

func runRemove(cmd *cobra.Command, args []string) {
	if !removeAll && removeSchoolID == 0 && !removeUnwantedText {
		log.Fatal("You must specify --all, --school-id <urn>, or --filter-unwanted-text")
	}

	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	schoolStore := store.NewSchoolStore(db)
	recordStore := store.NewRecordStore(db)
	sweeper := service.NewSweeper(schoolStore, recordStore)

	switch {
	case removeUnwantedText:
		log.Println("Target: records containing unwanted event description text")
		matches, checked, err := sweeper.Search(ctx, service.UnwantedTextPatterns, false)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		log.Printf("Checked %d records, found %d with unwanted text", checked, len(matches))
		if len(matches) == 0 {
			return
		}

		for i, m := range matches {
			if i >= 10 {
				log.Printf("  ... and %d more", len(matches)-10)
				break
			}
			log.Printf("  [%d] %s (URN %d)", m.RecordID, m.SchoolName, m.SchoolURN)
		}

		if !removeDelete {
			log.Printf("Dry run: no records deleted. Re-run with --delete to remove these %d records.", len(matches))
			return
		}
		if !confirm(fmt.Sprintf("Are you sure you want to delete %d records? (yes/no): ", len(matches))) {
			log.Println("Deletion cancelled")
			return
		}

		ids := make([]int, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.RecordID)
		}
		log.Printf("Deleted %d records", sweeper.DeleteRecords(ctx, ids))

	case removeSchoolID != 0:
		log.Printf("Target: records for school URN %d", removeSchoolID)
		records, err := recordStore.ListBySchool(ctx, removeSchoolID)
		if err != nil {
			log.Fatalf("Failed to list records: %v", err)
		}
		log.Printf("Total records to delete: %d", len(records))
		if len(records) == 0 {
			return
		}

		if !removeDelete {
			log.Printf("Dry run: no records deleted. Re-run with --delete to remove these %d records.", len(records))
			return
		}
		if !confirm(fmt.Sprintf("Are you sure you want to delete %d records? (yes/no): ", len(records))) {
			log.Println("Deletion cancelled")
			return
		}

		deleted, err := recordStore.DeleteBySchool(ctx, removeSchoolID)
		if err != nil {
			log.Fatalf("Delete failed: %v", err)
		}
		log.Printf("Deleted %d records", deleted)

	case removeAll:
		log.Println("Target: ALL records")
		count, err := recordStore.Count(ctx)
		if err != nil {
			log.Fatalf("Failed to count records: %v", err)
		}
		log.Printf("Total records to delete: %d", count)
		if count == 0 {
			return
		}

		if !removeDelete {
			log.Printf("Dry run: no records deleted. Re-run with --delete to remove these %d records.", count)
			return
		}
		if !confirm(fmt.Sprintf("Are you sure you want to delete %d records? (yes/no): ", count)) {
			log.Println("Deletion cancelled")
			return
		}

		deleted, err := recordStore.DeleteAll(ctx)
		if err != nil {
			log.Fatalf("Delete failed: %v", err)
		}
		log.Printf("Deleted %d records", deleted)
	}
}
