package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/repricer_backend/config"
	"bitbucket.org/mmdatafocus/repricer_backend/models"
	"bitbucket.org/mmdatafocus/repricer_backend/utils"
	"bitbucket.org/mmdatafocus/repricer_backend/workflow"
)

// Scheduled entrypoint for the nightly proposal run. The HTTP trigger exists
// for ad-hoc runs; this one is for cron.
func main() {
	verbose := flag.Bool("verbose", false, "Print each generation error to stderr")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx = utils.SetTriggeredByInContext(ctx, "BatchRunner")

	gen := workflow.NewGenerator(models.NewProposalRepository(db))
	result, err := gen.RunBatch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("batch %s: evaluated %d, proposed %d, skipped %d, errors %d\n",
		result.BatchId, result.Evaluated, result.ProposalCount, result.Skipped, len(result.Errors))
	if *verbose {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.Sku, e.Error)
		}
	}
	if result.Evaluated == 0 {
		fmt.Fprintln(os.Stderr, "no products found to evaluate")
	}
}
