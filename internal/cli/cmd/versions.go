package cmd

import (
	"crafthost/internal/catalog"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var versionsLimit int
var versionsAll bool

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List server versions available in the release catalog",
	Run: func(cmd *cobra.Command, args []string) {
		handleListVersions(versionsLimit, versionsAll)
	},
}

func init() {
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", 20, "Number of versions to show (0 for all)")
	versionsCmd.Flags().BoolVar(&versionsAll, "all", false, "Include pre-releases")
	RootCmd.AddCommand(versionsCmd)
}

func handleListVersions(limit int, all bool) {
	result := Container.Catalog.ListVersions()
	if !result.Available() {
		log.Fatalf("Release catalog unavailable: %v", result.Err)
	}

	versions := result.Versions
	if !all {
		versions = catalog.StableVersions(versions)
	}
	versions = catalog.SortNewestFirst(versions)
	if limit > 0 && len(versions) > limit {
		versions = versions[:limit]
	}

	fmt.Printf("\n--- %s VERSIONS ---\n", Container.Catalog.Project)
	for _, v := range versions {
		fmt.Printf("- %s\n", v)
	}
}
