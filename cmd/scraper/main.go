// The scraper command runs scrape jobs from the terminal: one handle, every
// active instagram column that has a handle configured, or one rss feed.
//
// Usage:
//
//	scraper -handle nike -limit 100
//	scraper -all -delay 30s
//	scraper -handle nike -dry-run
//	scraper -feed https://news.nike.com/rss -handle nike-news
//
// With INGEST_API_URL set, batches are posted to a remote ingestion endpoint
// using CLAWDBOT_API_KEY; otherwise they are written through the local DB.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clawdlabs/rivaldeck/collector"
	"github.com/clawdlabs/rivaldeck/collector/apify"
	"github.com/clawdlabs/rivaldeck/ingest"
	"github.com/clawdlabs/rivaldeck/model"
	"github.com/clawdlabs/rivaldeck/scraper"
	"github.com/clawdlabs/rivaldeck/store"
	"github.com/clawdlabs/rivaldeck/utils"
	"github.com/clawdlabs/rivaldeck/utils/dotenv"

	Logger "github.com/clawdlabs/rivaldeck/utils/log"
)

func main() {
	handle := flag.String("handle", "", "instagram handle to scrape (with or without @)")
	all := flag.Bool("all", false, "scrape every active instagram column with a configured handle")
	feed := flag.String("feed", "", "rss feed url to collect instead of scraping instagram")
	limit := flag.Int("limit", scraper.DefaultResultsLimit, "max posts to extract per profile")
	delay := flag.Duration("delay", 30*time.Second, "pause between profiles in -all mode")
	dryRun := flag.Bool("dry-run", false, "print the normalized batch instead of ingesting it")
	flag.Parse()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	if *feed != "" {
		if *handle == "" {
			fmt.Fprintln(os.Stderr, "-feed requires -handle to name the column it fills")
			flag.Usage()
			os.Exit(2)
		}
		if err := runFeed(context.Background(), buildIngestor(*dryRun), *feed, *handle); err != nil {
			os.Exit(1)
		}
		return
	}

	if *handle == "" && !*all {
		fmt.Fprintln(os.Stderr, "either -handle, -all or -feed is required")
		flag.Usage()
		os.Exit(2)
	}

	client, err := apify.NewClientFromEnv()
	if err != nil {
		Logger.Log.Fatalf("cannot create scraping client: %v", err)
	}

	ctx := context.Background()
	orchestrator := scraper.NewOrchestrator(client, buildIngestor(*dryRun))

	if *handle != "" {
		if err := runOne(ctx, orchestrator, *handle, *limit); err != nil {
			os.Exit(1)
		}
		return
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatalf("cannot connect to DB: %v", err)
	}
	columns, err := store.New(db).ActiveColumnsWithHandle(model.SourceTypeInstagram)
	if err != nil {
		Logger.Log.Fatalf("cannot list configured columns: %v", err)
	}
	if len(columns) == 0 {
		Logger.Log.Warn("no column has a handle configured, nothing to scrape")
		return
	}

	failed := 0
	for index, column := range columns {
		if err := runOne(ctx, orchestrator, *column.Handle, *limit); err != nil {
			failed++
		}
		if index < len(columns)-1 {
			Logger.Log.Infof("waiting %s before next profile", *delay)
			time.Sleep(*delay)
		}
	}

	Logger.Log.Infof("done: %d/%d profiles scraped successfully", len(columns)-failed, len(columns))
	if failed > 0 {
		os.Exit(1)
	}
}

func runOne(ctx context.Context, orchestrator *scraper.Orchestrator, handle string, limit int) error {
	Logger.Log.Infof("scraping @%s (limit %d)", handle, limit)
	report, err := orchestrator.ScrapeProfile(ctx, handle, limit)
	if err != nil {
		Logger.Log.Errorf("scrape of @%s failed: %v", handle, err)
		return err
	}
	Logger.Log.Infof("@%s: run %s, %d raw posts, %d inserted, %d updated, %d errors",
		handle, report.RunId, report.RawPosts, report.Inserted, report.Updated, len(report.Errors))
	return nil
}

// runFeed pulls one rss feed and pushes it through the same validation and
// ingestion path instagram batches take.
func runFeed(ctx context.Context, ingestor scraper.Ingestor, feedUrl, handle string) error {
	Logger.Log.Infof("collecting feed %s for %s", feedUrl, handle)
	payload, err := collector.NewRssCollector().Collect(ctx, feedUrl, handle)
	if err != nil {
		Logger.Log.Errorf("feed collection failed: %v", err)
		return err
	}
	if valid, violations := ingest.ValidatePayload(payload); !valid {
		Logger.Log.Errorf("feed batch failed validation: %s", strings.Join(violations, "; "))
		return fmt.Errorf("invalid feed batch")
	}

	result, err := ingestor.Ingest(ctx, payload)
	if err != nil {
		Logger.Log.Errorf("feed ingestion failed: %v", err)
		return err
	}
	Logger.Log.Infof("%s: %d items, %d inserted, %d updated, %d errors",
		feedUrl, len(payload.Posts), result.Inserted, result.Updated, len(result.Errors))
	for _, e := range result.Errors {
		Logger.Log.Warn(e)
	}
	return nil
}

// buildIngestor picks where normalized batches go: stdout in dry-run mode,
// a remote ingestion endpoint when INGEST_API_URL is set, the local DB
// otherwise.
func buildIngestor(dryRun bool) scraper.Ingestor {
	if dryRun {
		return dryRunIngestor{}
	}
	if url := os.Getenv("INGEST_API_URL"); url != "" {
		return scraper.NewHTTPIngestor(url, os.Getenv("CLAWDBOT_API_KEY"))
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatalf("cannot connect to DB: %v", err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		Logger.Log.Fatalf("cannot migrate DB: %v", err)
	}
	return &scraper.LocalIngestor{Processor: ingest.NewProcessor(store.New(db))}
}

type dryRunIngestor struct{}

func (dryRunIngestor) Ingest(_ context.Context, payload *model.IngestPayload) (*model.IngestResult, error) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	fmt.Println(string(encoded))
	return &model.IngestResult{}, nil
}
