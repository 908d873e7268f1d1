package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clawdlabs/rivaldeck/collector/apify"
	"github.com/clawdlabs/rivaldeck/ingest"
	"github.com/clawdlabs/rivaldeck/scraper"
	"github.com/clawdlabs/rivaldeck/server"
	"github.com/clawdlabs/rivaldeck/server/middlewares"
	"github.com/clawdlabs/rivaldeck/store"
	"github.com/clawdlabs/rivaldeck/utils"
	"github.com/clawdlabs/rivaldeck/utils/dotenv"

	Logger "github.com/clawdlabs/rivaldeck/utils/log"
)

const rateLimitWindow = 60 * time.Second

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Logger.Log.Fatalf("cannot connect to DB: %v", err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		Logger.Log.Fatalf("cannot migrate DB: %v", err)
	}

	dataStore := store.New(db)
	queue := scraper.NewQueue()
	handler := server.NewHandler(dataStore, queue)
	limiter := middlewares.NewRateLimiter(rateLimitWindow)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The queue worker only starts when the scraping service is configured;
	// without it the force-scrape endpoint still queues, jobs just wait.
	if client, err := apify.NewClientFromEnv(); err != nil {
		Logger.Log.Warnf("scrape worker disabled: %v", err)
	} else {
		orchestrator := scraper.NewOrchestrator(client, &scraper.LocalIngestor{
			Processor: ingest.NewProcessor(dataStore),
		})
		go func() {
			if err := queue.Run(ctx, orchestrator); err != nil && ctx.Err() == nil {
				Logger.Log.Errorf("scrape worker exited: %v", err)
			}
		}()
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		cancel()
	}()

	router := server.NewRouter(handler, os.Getenv("CLAWDBOT_API_KEY"), limiter)

	Logger.Log.Info("api server starts up")
	router.Run(":" + utils.EnvOrDefault("PORT", "8080"))
}
