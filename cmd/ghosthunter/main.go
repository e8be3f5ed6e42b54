package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"ghosthunter/internal/apileads"
	"ghosthunter/internal/config"
	"ghosthunter/internal/discover"
	"ghosthunter/internal/enrich"
	"ghosthunter/internal/export"
	"ghosthunter/internal/leads"
	"ghosthunter/internal/maps"
	"ghosthunter/internal/outreach"
	"ghosthunter/internal/store"
)

func main() {
	var (
		category   = flag.String("category", "", "business category to search, e.g. 'Italian Restaurants'")
		location   = flag.String("location", "", "city or region to search in, e.g. 'Vadodara, IN'")
		limit      = flag.Int("limit", 0, "max businesses to harvest (0 uses the configured default)")
		configPath = flag.String("config", "", "optional YAML config file")
		doEnrich   = flag.Bool("enrich", false, "analyze lead websites and hunt for contact emails")
		doOutreach = flag.Bool("outreach", false, "generate an outreach campaign for the leads")
		doStore    = flag.Bool("store", false, "persist leads to MySQL")
		useAPI     = flag.Bool("api", false, "also pull companies from the Apollo API")
	)
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *category == "" || *location == "" {
		log.Fatal("both -category and -location are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if *limit > 0 {
		cfg.Harvest.Limit = *limit
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runOptions{
		category: *category,
		location: *location,
		enrich:   *doEnrich,
		outreach: *doOutreach,
		store:    *doStore,
		api:      *useAPI,
	}
	if err := run(ctx, cfg, opts, log); err != nil {
		log.Fatal("run failed", zap.Error(err))
	}
}

type runOptions struct {
	category string
	location string
	enrich   bool
	outreach bool
	store    bool
	api      bool
}

func run(ctx context.Context, cfg config.Config, opts runOptions, log *zap.Logger) error {
	factory := func(ctx context.Context) (maps.Session, error) {
		return maps.NewChromeSession(ctx, maps.BrowserOptions{
			Headless:       cfg.Browser.Headless,
			UserAgent:      cfg.Browser.UserAgent,
			ViewportWidth:  int64(cfg.Browser.ViewportWidth),
			ViewportHeight: int64(cfg.Browser.ViewportHeight),
		})
	}
	harvester := maps.NewHarvester(factory, maps.HarvesterConfig{
		FeedTimeout: cfg.Harvest.FeedTimeout,
		SettleDelay: cfg.Harvest.SettleDelay,
		ScrollDelay: cfg.Harvest.ScrollDelay,
	}, log)
	engine := discover.NewEngine(harvester, cfg.Harvest.Limit, log)

	opportunities, err := engine.Run(ctx, opts.category, opts.location)
	if err != nil {
		return err
	}

	analyses := make(map[string]*enrich.WebsiteAnalysis)
	emails := make(map[string]string)
	if opts.enrich {
		enrichLeads(ctx, cfg, opportunities, analyses, emails, log)
	}

	csvPath := export.Filename(opts.category, opts.location)
	if err := export.WriteCSV(csvPath, opportunities); err != nil {
		return err
	}
	jsonPath := strings.TrimSuffix(csvPath, ".csv") + ".json"
	if err := export.WriteJSON(jsonPath, opportunities); err != nil {
		return err
	}
	log.Info("leads exported", zap.String("csv", csvPath), zap.String("json", jsonPath))

	export.Preview(os.Stdout, opportunities, 10)
	export.Summary(os.Stdout, opportunities)

	if opts.outreach {
		if err := writeCampaign(csvPath, cfg, opportunities, analyses, emails, log); err != nil {
			return err
		}
	}
	if opts.store {
		if err := persistLeads(ctx, cfg, opportunities, log); err != nil {
			return err
		}
	}
	if opts.api {
		if err := pullAPICompanies(ctx, cfg, opts, log); err != nil {
			return err
		}
	}
	return nil
}

// enrichLeads analyzes each lead's page and hunts for a contact email. Both
// steps are best-effort; failures downgrade to debug logs.
func enrichLeads(ctx context.Context, cfg config.Config, opportunities []leads.BusinessEntity,
	analyses map[string]*enrich.WebsiteAnalysis, emails map[string]string, log *zap.Logger) {

	analyzer := enrich.NewAnalyzer(cfg.Website.Timeout, cfg.Browser.UserAgent)
	hunter := enrich.NewEmailHunter(cfg.Website.Timeout, cfg.Browser.UserAgent, cfg.Website.MaxPages, log)

	for _, lead := range opportunities {
		if lead.URL == "" {
			continue
		}
		if analysis, err := analyzer.Analyze(ctx, lead.URL); err == nil {
			analyses[lead.Name] = &analysis
		} else {
			log.Debug("website analysis failed", zap.String("name", lead.Name), zap.Error(err))
		}
		if email, err := hunter.Hunt(ctx, lead.URL); err == nil && email != "" {
			emails[lead.Name] = email
			log.Info("contact email found", zap.String("name", lead.Name), zap.String("email", email))
		}
	}
}

// writeCampaign composes a first-touch email per lead and writes the batch
// next to the lead exports. Leads without a discovered email keep an empty
// recipient so the operator can fill it in by hand.
func writeCampaign(csvPath string, cfg config.Config, opportunities []leads.BusinessEntity,
	analyses map[string]*enrich.WebsiteAnalysis, emails map[string]string, log *zap.Logger) error {

	generator := &outreach.Generator{
		SenderName:  cfg.Outreach.SenderName,
		CompanyName: cfg.Outreach.CompanyName,
		Website:     cfg.Outreach.Website,
	}

	campaign := make([]outreach.Email, 0, len(opportunities))
	for _, lead := range opportunities {
		email, err := generator.Compose(lead, analyses[lead.Name], emails[lead.Name])
		if err != nil {
			return err
		}
		campaign = append(campaign, email)
	}

	path := strings.TrimSuffix(csvPath, ".csv") + "_campaign.json"
	if err := export.WriteCampaign(path, campaign); err != nil {
		return err
	}
	log.Info("campaign written", zap.String("path", path), zap.Int("emails", len(campaign)))
	return nil
}

func persistLeads(ctx context.Context, cfg config.Config, opportunities []leads.BusinessEntity, log *zap.Logger) error {
	db, err := store.Open(ctx, cfg.DB.DSN(), log)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.UpsertLeads(ctx, opportunities)
}

// pullAPICompanies supplements the map harvest with structured company data
// from the Apollo API and writes it alongside the lead exports.
func pullAPICompanies(ctx context.Context, cfg config.Config, opts runOptions, log *zap.Logger) error {
	client := apileads.NewClient(cfg.Apollo.APIKey, cfg.Apollo.Timeout, log)
	companies, err := client.SearchCompanies(ctx, apileads.SearchRequest{
		Locations:  []string{opts.location},
		Industries: []string{opts.category},
	})
	if err != nil {
		return err
	}

	path := strings.TrimSuffix(export.Filename(opts.category, opts.location), ".csv") + "_companies.json"
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(companies); err != nil {
		return err
	}
	log.Info("api companies written", zap.String("path", path), zap.Int("companies", len(companies)))
	return nil
}
