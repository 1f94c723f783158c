package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"bitbucket.org/mmdatafocus/repricer_backend/models"
)

// Deletes proposals whose TTL has passed. Meant to run daily from cron.
func main() {
	asOf := flag.String("as-of", "", "Optional: purge as of this date (YYYY-MM-DD) instead of now")
	flag.Parse()

	now := time.Now().UTC()
	if *asOf != "" {
		parsed, err := time.Parse("2006-01-02", *asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -as-of date: %v\n", err)
			os.Exit(1)
		}
		now = parsed
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	purged, err := models.PurgeExpiredProposals(context.Background(), now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "purge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("purged %d expired proposals\n", purged)
}
