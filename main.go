package main

import (
	"flag"
	"fmt"
	"os"

	"niche-finder/config"
	"niche-finder/models"
	"niche-finder/scraper"
	"niche-finder/scraper/demo"
	"niche-finder/scraper/gmaps"
	"niche-finder/scraper/serpapi"
	"niche-finder/services"
	"niche-finder/storage"
	"niche-finder/utils"
)

const usage = `niche-finder - local business opportunity analysis

Usage:
  niche-finder discover -query <category> -location <city, st> [-max N] [-source serpapi|gmaps|demo]
  niche-finder analyze  [-input scrape.json]
  niche-finder content  [-input analysis.json]
  niche-finder export   [-input analysis.json] [-db]
  niche-finder pipeline -query <category> -location <city, st> [-max N]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := utils.NewLogger()
	if cfg.Debug {
		logger = utils.NewVerboseLogger()
	}

	store, err := storage.NewJSONStore(cfg.DataDir, cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to prepare artifact dirs: %v", err)
		os.Exit(1)
	}

	app := &app{cfg: cfg, logger: logger, store: store}

	var runErr error
	switch os.Args[1] {
	case "discover":
		runErr = app.discover(os.Args[2:])
	case "analyze":
		runErr = app.analyze(os.Args[2:])
	case "content":
		runErr = app.content(os.Args[2:])
	case "export":
		runErr = app.export(os.Args[2:])
	case "pipeline":
		runErr = app.pipeline(os.Args[2:])
	default:
		fmt.Print(usage)
		os.Exit(2)
	}

	if runErr != nil {
		logger.Error("%v", runErr)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	logger *utils.Logger
	store  *storage.JSONStore
}

// analysisConfig resolves engine tunables: YAML file if configured,
// documented defaults otherwise.
func (a *app) analysisConfig() (config.AnalysisConfig, error) {
	if a.cfg.AnalysisConfig != "" {
		return config.LoadAnalysisConfig(a.cfg.AnalysisConfig)
	}
	ac := config.DefaultAnalysisConfig()
	return ac, ac.Validate()
}

// collector picks the record source: explicit flag wins, then the API
// client when a key is present, then demo mode.
func (a *app) collector(source string) scraper.Collector {
	switch source {
	case "serpapi":
		return serpapi.New(a.cfg, a.logger)
	case "gmaps":
		return gmaps.New(a.cfg, a.logger)
	case "demo":
		return demo.New(a.logger)
	}
	if a.cfg.HasScrapingAPI() {
		return serpapi.New(a.cfg, a.logger)
	}
	return demo.New(a.logger)
}

func (a *app) discover(args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	query := fs.String("query", "", "business category to search")
	location := fs.String("location", "", "city/area to search")
	max := fs.Int("max", a.cfg.MaxResults, "max results")
	source := fs.String("source", "", "collector: serpapi, gmaps or demo")
	fs.Parse(args)

	if *query == "" || *location == "" {
		return fmt.Errorf("discover: -query and -location are required")
	}

	_, err := a.runDiscover(*query, *location, *max, *source)
	return err
}

func (a *app) runDiscover(query, location string, max int, source string) (string, error) {
	col := a.collector(source)
	records, err := col.Collect(query, location, max)
	if err != nil {
		return "", fmt.Errorf("collect: %w", err)
	}
	if len(records) == 0 {
		a.logger.Warn("Collector %q returned no records", col.Name())
	}

	path, err := a.store.SaveScrape(col.Name(), records)
	if err != nil {
		return "", err
	}
	a.logger.Info("Saved %d record(s) to %s", len(records), path)
	return path, nil
}

func (a *app) analyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	input := fs.String("input", "", "scrape artifact (default: latest)")
	fs.Parse(args)

	_, err := a.runAnalyze(*input)
	return err
}

func (a *app) runAnalyze(input string) (string, error) {
	if input == "" {
		latest, err := a.store.LatestScrape()
		if err != nil {
			return "", err
		}
		if latest == "" {
			return "", fmt.Errorf("analyze: no scrape artifacts found, run discover first")
		}
		input = latest
		a.logger.Info("Using latest scrape: %s", input)
	}

	raw, err := a.store.LoadScrape(input)
	if err != nil {
		return "", err
	}

	ac, err := a.analysisConfig()
	if err != nil {
		return "", err
	}

	normalizer := services.NewNormalizer(a.logger)
	norm := normalizer.Normalize(raw)

	aggregator, err := services.NewAggregator(ac, a.cfg.MaxConcurrency, a.logger)
	if err != nil {
		return "", err
	}
	report := aggregator.Analyze(norm)
	printReport(report)

	path, err := a.store.SaveReport(report)
	if err != nil {
		return "", err
	}
	a.logger.Info("Analysis saved to %s - %s", path, services.Summarize(report))
	return path, nil
}

func (a *app) content(args []string) error {
	fs := flag.NewFlagSet("content", flag.ExitOnError)
	input := fs.String("input", "", "analysis artifact (default: latest)")
	fs.Parse(args)

	return a.runContent(*input)
}

func (a *app) runContent(input string) error {
	report, err := a.loadReport(input)
	if err != nil {
		return err
	}
	top := report.Top()
	if top == nil {
		return fmt.Errorf("content: report has no scored niches")
	}

	gen := services.NewContentGenerator(a.logger)
	plan := gen.Plan(top)
	markdown := gen.Markdown(plan)

	path, err := a.store.SaveContentPlan(plan, markdown)
	if err != nil {
		return err
	}
	a.logger.Info("Content plan for %s saved to %s", plan.Niche, path)
	return nil
}

func (a *app) export(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	input := fs.String("input", "", "analysis artifact (default: latest)")
	useDB := fs.Bool("db", false, "also store leads in PostgreSQL")
	fs.Parse(args)

	return a.runExport(*input, *useDB)
}

func (a *app) runExport(input string, useDB bool) error {
	report, err := a.loadReport(input)
	if err != nil {
		return err
	}

	var leads []*models.Business
	for _, n := range report.Niches {
		leads = append(leads, n.Businesses...)
	}
	if len(leads) == 0 {
		a.logger.Warn("Report contains no businesses to export")
		return nil
	}

	csvPath := fmt.Sprintf("%s/leads_%s.csv", a.cfg.OutputDir, report.RunID)
	csvWriter, err := storage.NewCSVWriter(csvPath)
	if err != nil {
		return err
	}
	defer csvWriter.Close()

	if err := csvWriter.Write(leads); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	a.logger.Info("Exported %d lead(s) to %s", len(leads), csvPath)

	if useDB {
		pg, err := storage.NewPostgresWriter(a.cfg.DSN())
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pg.Close()

		if err := pg.Write(leads); err != nil {
			return fmt.Errorf("postgres export: %w", err)
		}
		a.logger.Info("Leads stored in PostgreSQL (tables: businesses, reviews)")
	}
	return nil
}

func (a *app) pipeline(args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	query := fs.String("query", "", "business category to search")
	location := fs.String("location", "", "city/area to search")
	max := fs.Int("max", a.cfg.MaxResults, "max results")
	source := fs.String("source", "", "collector: serpapi, gmaps or demo")
	useDB := fs.Bool("db", false, "also store leads in PostgreSQL")
	fs.Parse(args)

	if *query == "" || *location == "" {
		return fmt.Errorf("pipeline: -query and -location are required")
	}

	a.logger.Info("=== Pipeline: %s in %s ===", *query, *location)

	scrapePath, err := a.runDiscover(*query, *location, *max, *source)
	if err != nil {
		return err
	}
	reportPath, err := a.runAnalyze(scrapePath)
	if err != nil {
		return err
	}
	if err := a.runContent(reportPath); err != nil {
		a.logger.Warn("Content step skipped: %v", err)
	}
	if err := a.runExport(reportPath, *useDB); err != nil {
		return err
	}

	a.logger.Info("=== Pipeline complete ===")
	return nil
}

func (a *app) loadReport(input string) (*models.OpportunityReport, error) {
	if input == "" {
		latest, err := a.store.LatestReport()
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return nil, fmt.Errorf("no analysis artifacts found, run analyze first")
		}
		input = latest
		a.logger.Info("Using latest analysis: %s", input)
	}
	return a.store.LoadReport(input)
}

// printReport renders the ranked niches to stdout.
func printReport(r *models.OpportunityReport) {
	fmt.Printf("\n  OPPORTUNITY REPORT (%d scored, %d skipped, %d discarded)\n",
		len(r.Niches), len(r.Skipped), r.Discarded)

	for _, n := range r.Niches {
		fmt.Printf("\n  #%d  %s - score %.3f\n", n.Score.Rank, n.Niche, n.Score.Total)
		fmt.Printf("      volume %.2f | velocity %.2f | sentiment-gap %.2f | open-market %.2f\n",
			n.Score.Sub.Volume, n.Score.Sub.Velocity, n.Score.Sub.SentimentGap, n.Score.Sub.Saturation)
		for i, p := range n.PainPoints {
			if i >= 5 {
				fmt.Printf("      ... and %d more theme(s)\n", len(n.PainPoints)-5)
				break
			}
			fmt.Printf("      - %q (support %d, severity %.1f)\n", p.Phrase, p.Support, p.Severity)
		}
	}

	for _, s := range r.Skipped {
		fmt.Printf("\n  skipped: %s - %s\n", s.Niche, s.Reason)
	}
	fmt.Println()
}
