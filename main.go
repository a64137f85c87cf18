package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cruise-deal-scraper/config"
	"cruise-deal-scraper/fetch"
	"cruise-deal-scraper/promo"
	"cruise-deal-scraper/scheduler"
	"cruise-deal-scraper/scraper"
	"cruise-deal-scraper/scraper/carnival"
	"cruise-deal-scraper/scraper/celebrity"
	"cruise-deal-scraper/scraper/cunard"
	"cruise-deal-scraper/scraper/hollandamerica"
	"cruise-deal-scraper/scraper/msc"
	"cruise-deal-scraper/scraper/norwegian"
	"cruise-deal-scraper/scraper/ozcruising"
	"cruise-deal-scraper/scraper/poaustralia"
	"cruise-deal-scraper/scraper/princess"
	"cruise-deal-scraper/scraper/royalcaribbean"
	"cruise-deal-scraper/scraper/seabourn"
	"cruise-deal-scraper/services"
	"cruise-deal-scraper/storage"
	"cruise-deal-scraper/utils"
)

func main() {
	once := flag.Bool("once", false, "run a single scrape cycle and exit")
	flag.Parse()

	// ================== Bootstrap ====================
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("Cruise Deal Aggregation System")
	logger.Info("Rate delay: %dms | Retries: %d | Price threshold: $%.0f/day",
		cfg.RateLimitDelay, cfg.MaxRetries, cfg.PriceThreshold)

	// =================== PostgreSQL Setup ========================================
	store, err := storage.NewPostgresStore(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Cannot connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker start my-postgres")
		os.Exit(1)
	}
	defer store.Close()

	if err := store.CreateTables(); err != nil {
		logger.Error("Failed to create DB tables: %v", err)
		os.Exit(1)
	}

	app := &app{cfg: cfg, store: store, logger: logger}

	if *once {
		if err := app.scrapeCycle(context.Background(), "manual"); err != nil {
			logger.Error("Scrape cycle failed: %v", err)
			os.Exit(1)
		}
		if err := app.promoCycle(context.Background(), "manual"); err != nil {
			logger.Error("Promo cycle failed: %v", err)
		}
		fmt.Println(" Done! Deal export →", cfg.CSVFilePath)
		return
	}

	// =============== Daemon mode ===================================
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(cfg.ScrapeInterval, cfg.PromoInterval, app.scrapeCycle, app.promoCycle, logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("Shutdown signal received")
		cancel()
	}()

	sched.Start(ctx)
}

type app struct {
	cfg    *config.Config
	store  *storage.PostgresStore
	logger *utils.Logger
}

// scrapeCycle is one full pipeline pass: extract from every enabled source,
// deduplicate, export, enrich, persist, expire, report.
func (a *app) scrapeCycle(ctx context.Context, runID string) error {
	cfg, logger := a.cfg, a.logger

	client := fetch.NewClient(cfg.UserAgent, cfg.RequestTimeout, cfg.MaxRetries, cfg.RequestsPerSec, logger)

	// The browser is shared by the card-based sources and the enrichment
	// pass. A broken Chrome install degrades the run instead of failing it.
	browser, browserErr := fetch.NewBrowser(cfg.UserAgent, cfg.BrowserSettle, logger)
	if browserErr != nil {
		logger.Warn("Headless browser unavailable, skipping browser sources and enrichment: %v", browserErr)
	} else {
		defer browser.Close()
	}

	// =============== Extraction ===================================
	scrapers := a.buildScrapers(client, browser)
	if len(scrapers) == 0 {
		return fmt.Errorf("no sources enabled")
	}
	logger.Info("Run %s: %d sources enabled", runID, len(scrapers))

	raw := scraper.RunAll(ctx, scrapers, logger)
	if len(raw) == 0 {
		logger.Warn("No deals scraped — check your network connection or the source sites")
		return nil
	}

	// =========== Deduplication ======================
	deals := services.Deduplicate(raw, logger)

	// ========= CSV: export the canonical set ===========================
	csvWriter := storage.NewCSVWriter(cfg.CSVFilePath, logger)
	if err := csvWriter.WriteDeals(deals); err != nil {
		logger.Error("Failed to write CSV: %v", err)
		// Non-fatal: continue to enrichment and DB storage
	}

	// =========== Enrichment ======================
	if browser != nil {
		enricher := services.NewEnricher(browser, cfg.RateLimitDelay, cfg.EnrichBatchSize, a.store, logger)
		if err := enricher.Run(ctx, deals, cfg.EnrichLimit); err != nil {
			logger.Warn("Enrichment interrupted: %v", err)
		}
	}

	// ========= PostgreSQL: persist and expire ============
	if _, _, err := a.store.UpsertDeals(ctx, deals); err != nil {
		return fmt.Errorf("failed to upsert deals: %w", err)
	}
	cutoff := time.Now().AddDate(0, 0, -cfg.StaleAfterDays)
	if _, err := a.store.MarkStale(ctx, cutoff); err != nil {
		logger.Error("Failed to mark stale deals: %v", err)
	}

	// ==== Insights and alerts ============================
	insightSvc := services.NewInsightService(cfg.PriceThreshold, logger)
	report := insightSvc.Generate(deals)
	services.PrintInsightReport(report)

	alertSvc := services.NewAlertService(cfg.PriceThreshold, "output/deal_alerts.json", logger)
	alertSvc.Notify(deals)

	return nil
}

// promoCycle refreshes the promo code catalogue: seed codes, previously
// stored codes, and freshly mined ones.
func (a *app) promoCycle(ctx context.Context, runID string) error {
	existing, err := a.store.ListPromoCodes(ctx, "", false)
	if err != nil {
		a.logger.Warn("Could not load stored promo codes: %v", err)
	}

	miner := promo.NewMiner(a.cfg.UserAgent, time.Duration(a.cfg.RateLimitDelay)*time.Millisecond, a.logger)
	codes := promo.Refresh(miner, existing, a.logger)

	return a.store.UpsertPromoCodes(ctx, codes)
}

// buildScrapers assembles the enabled sources. browser may be nil, which
// drops the card-based sources for this run.
func (a *app) buildScrapers(client *fetch.Client, browser *fetch.Browser) []scraper.Scraper {
	cfg, logger := a.cfg, a.logger

	var scrapers []scraper.Scraper
	add := func(name string, s scraper.Scraper) {
		if cfg.SourceEnabled(name) {
			scrapers = append(scrapers, s)
		}
	}

	add("ozcruising", ozcruising.New(client, cfg.RateLimitDelay, nil, logger))
	add("carnival", carnival.New(client, logger))
	add("royalcaribbean", royalcaribbean.New(client, logger))
	add("celebrity", celebrity.New(client, logger))
	add("norwegian", norwegian.New(client, logger))
	add("hollandamerica", hollandamerica.New(client, logger))

	if browser != nil {
		add("princess", princess.New(browser, logger))
		add("msc", msc.New(browser, logger))
		add("cunard", cunard.New(browser, logger))
		add("poaustralia", poaustralia.New(browser, logger))
		add("seabourn", seabourn.New(browser, logger))
		add("viking", seabourn.NewViking(browser, logger))
	}
	return scrapers
}
