package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/service"
	"github.com/ukedu/termtrack/internal/store"
)

var purgeDelete bool
var purgeCaseSensitive bool
var purgeOutput string
var purgeFile string

var purgeCmd = &cobra.Command{
	Use:   "purge <search-text>",
	Short: "Search record payloads by text and optionally delete matches",
	Long: `Purge searches every record's JSON text for a pattern.

By default it only previews the matches. With --delete it asks for
confirmation and then removes them.

Examples:
  # Preview matches
  ./termtrack purge "some unwanted text"

  # Delete matches after confirmation
  ./termtrack purge "some unwanted text" --delete

  # Save the match report to a file
  ./termtrack purge "some unwanted text" --output file --file matches.txt`,
	Args: cobra.ExactArgs(1),
	Run:  runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().BoolVar(&purgeDelete, "delete", false, "Delete the matching records (asks for confirmation)")
	purgeCmd.Flags().BoolVar(&purgeCaseSensitive, "case-sensitive", false, "Make the search case-sensitive")
	purgeCmd.Flags().StringVar(&purgeOutput, "output", "console", "Output format: console or file")
	purgeCmd.Flags().StringVar(&purgeFile, "file", "filtered_data_report.txt", "Output file name (with --output file)")
}

func runPurge(cmd *cobra.Command, args []string) {
	searchText := args[0]

	ctx, cancel := newSignalContext()
	defer cancel()

	db := openDB()
	defer db.Close()

	schoolStore := store.NewSchoolStore(db)
	recordStore := store.NewRecordStore(db)
	sweeper := service.NewSweeper(schoolStore, recordStore)

	searches := []string{searchText}
	matches, checked, err := sweeper.Search(ctx, searches, purgeCaseSensitive)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Search cancelled")
			os.Exit(1)
		}
		log.Fatalf("Search failed: %v", err)
	}

	sweeper.PrintMatches(matches, checked)

	if purgeOutput == "file" && len(matches) > 0 {
		if err := sweeper.WriteMatchReport(purgeFile, searches, matches, checked); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	}

	if len(matches) == 0 {
		log.Printf("No records found containing %q", searchText)
		return
	}

	if !purgeDelete {
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
	deleted := sweeper.DeleteRecords(ctx, ids)
	log.Printf("Deleted %d records", deleted)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}
