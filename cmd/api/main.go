// Command api serves the blog post HTTP API.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// @title       Blog Post API
// @version     1.0
// @description CRUD over blog posts backed by a document store.
// @BasePath    /
func main() {
	rootCmd := &cobra.Command{
		Use:   "api",
		Short: "Blog post API server",
		Long: `Blog post API server.

Configuration is read from the environment (a .env file is loaded if present).
STORE_DRIVER selects the post store: postgres (default), s3 or memory.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
