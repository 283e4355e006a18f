package cmd

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	"github.com/ukedu/termtrack/internal/handlers"
	"github.com/ukedu/termtrack/internal/store"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the calendar extraction API server",
	Long:  `Start the HTTP API the scraping agents use to fetch prompts and submit calendar data.`,
	Run: func(cmd *cobra.Command, args []string) {
		port = resolvePort(port, os.Getenv("PORT"), cmd.Flags().Changed("port"))

		db := openDB()
		defer db.Close()

		schoolStore := store.NewSchoolStore(db)
		recordStore := store.NewRecordStore(db)

		app := fiber.New(fiber.Config{
			AppName: "termtrack",
		})

		app.Use(logger.New())

		// Static segments must be registered before /schools/:id/prompt/
		// or they get swallowed by the :id parameter.
		app.Get("/schools/random/prompt/", handlers.RandomPromptHandler(schoolStore))
		app.Get("/schools/invalid-data/", handlers.InvalidDataHandler(schoolStore, recordStore))
		app.Get("/schools/:id/prompt/", handlers.SchoolPromptHandler(schoolStore))
		app.Post("/schools/data/", handlers.SchoolDataHandler(schoolStore, recordStore))
		app.Get("/schools/", handlers.SchoolsHandler(schoolStore, recordStore))

		log.Printf("Starting server on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to run the server on")
}

// resolvePort picks the listen port: an explicitly passed --port always
// wins; otherwise the PORT env var overrides the flag default.
func resolvePort(flagValue, envValue string, flagChanged bool) string {
	if flagChanged || envValue == "" {
		return flagValue
	}
	return envValue
}
