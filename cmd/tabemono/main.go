// Package main is the tabemono CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tabemono/internal/catalog"
	"github.com/hyperjump/tabemono/internal/cli"
	"github.com/hyperjump/tabemono/internal/config"
	"github.com/hyperjump/tabemono/internal/embedding"
	"github.com/hyperjump/tabemono/internal/lexical"
	"github.com/hyperjump/tabemono/internal/models"
	"github.com/hyperjump/tabemono/internal/recognize"
	"github.com/hyperjump/tabemono/internal/server"
	"github.com/hyperjump/tabemono/internal/storage"
	"github.com/hyperjump/tabemono/internal/tracker"
	"github.com/hyperjump/tabemono/internal/vision"
	"github.com/hyperjump/tabemono/internal/watcher"
	"github.com/hyperjump/tabemono/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tabemono/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "scan":
		runScan()
	case "log":
		runLog()
	case "add":
		runAdd()
	case "foods":
		runFoods()
	case "summary":
		runSummary()
	case "goals":
		runGoals()
	case "stats":
		runStats()
	case "version", "--version", "-v":
		fmt.Printf("tabemono version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Catalog  *catalog.Store
	Embedder embedding.Embedder
	Storage  storage.Store
	Engine   *recognize.Engine
	Tracker  *tracker.Tracker
}

func (c *Components) Close() {
	if c.Tracker != nil {
		_ = c.Tracker.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	cat, err := catalog.LoadFile(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	matcher := lexical.NewMatcher(cat, lexical.WithFuzzy(cfg.Recognition.Fuzzy))

	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		logger.Warn("embedding backend unavailable, falling back", zap.Error(err))
		embedder = embedding.NewNullEmbedder()
	}

	var index *recognize.EmbeddingIndex
	if !embedding.IsNull(embedder) {
		index = recognize.NewEmbeddingIndex(cat, embedder, cfg.Embedding.CachePath, logger)
	}

	gateway := vision.NewGateway(&cfg.Vision, logger)

	engine := recognize.NewEngine(cat, matcher, index, gateway, logger)

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	trk, err := tracker.New(context.Background(), engine, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize tracker: %w", err)
	}

	return &Components{
		Catalog:  cat,
		Embedder: embedder,
		Storage:  store,
		Engine:   engine,
		Tracker:  trk,
	}, nil
}

// setup is the shared prologue for subcommands: load config, build logger,
// initialize components. Exits the process on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.Watch {
		watch := watcher.New(cfg.Catalog.Path, func() {
			if err := components.Catalog.ReloadFile(cfg.Catalog.Path); err != nil {
				logger.Warn("catalog reload failed", zap.Error(err))
				return
			}
			components.Engine.InvalidateEmbeddings()
			logger.Info("catalog reloaded", zap.Int("items", components.Catalog.Len()))
		}, logger)
		if err := watch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start catalog watcher", zap.Error(err))
		}
		defer watch.Stop()
	}

	srv := server.NewServer(components.Tracker, &cfg.Server, &cfg.Recognition, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runScan() {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	imagePath := fs.String("image", "", "scan a photo instead of a text description")
	topK := fs.Int("top-k", 0, "number of candidates (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	k := *topK
	if k <= 0 {
		k = cfg.Recognition.DefaultTopK
	}
	if cfg.Recognition.MaxTopK > 0 && k > cfg.Recognition.MaxTopK {
		k = cfg.Recognition.MaxTopK
	}

	var candidates []models.Candidate
	if *imagePath != "" {
		image, err := os.ReadFile(*imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
			os.Exit(1)
		}
		candidates, err = components.Tracker.ScanImage(context.Background(), image, k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		if fs.NArg() < 1 {
			fmt.Println("Usage: tabemono scan [flags] <description>")
			os.Exit(1)
		}
		query := strings.TrimSpace(strings.Join(fs.Args(), " "))
		candidates = components.Tracker.ScanDescription(query, k)
	}

	if err := cli.WriteCandidates(os.Stdout, candidates, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runLog() {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	quantity := fs.Float64("quantity", 1, "number of servings")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Println("Usage: tabemono log [flags] <food name>")
		os.Exit(1)
	}
	name := strings.TrimSpace(strings.Join(fs.Args(), " "))

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	entry, err := components.Tracker.LogFood(context.Background(), name, *quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Log failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteEntry(os.Stdout, entry, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serving := fs.String("serving", "1 serving", "serving size description")
	calories := fs.Float64("calories", 0, "calories per serving")
	protein := fs.Float64("protein", 0, "protein grams per serving")
	carbs := fs.Float64("carbs", 0, "carbohydrate grams per serving")
	fat := fs.Float64("fat", 0, "fat grams per serving")
	aliases := fs.String("aliases", "", "comma-separated aliases")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: tabemono add [flags] <food name>")
		os.Exit(1)
	}
	name := strings.TrimSpace(strings.Join(fs.Args(), " "))

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	item := models.FoodItem{
		Name:           name,
		ServingSize:    *serving,
		Calories:       *calories,
		Macronutrients: map[string]float64{},
	}
	if *protein > 0 {
		item.Macronutrients["protein"] = *protein
	}
	if *carbs > 0 {
		item.Macronutrients["carbs"] = *carbs
	}
	if *fat > 0 {
		item.Macronutrients["fat"] = *fat
	}
	if *aliases != "" {
		for _, alias := range strings.Split(*aliases, ",") {
			if alias = strings.TrimSpace(alias); alias != "" {
				item.Aliases = append(item.Aliases, alias)
			}
		}
	}

	added, err := components.Tracker.RegisterCustomFood(item)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added %s (%s, %.0f kcal)\n", added.Name, added.ServingSize, added.Calories)
}

func runFoods() {
	fs := flag.NewFlagSet("foods", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := cli.WriteFoodLibrary(os.Stdout, components.Tracker.KnownFoods(), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	day := fs.String("day", "", "day to summarize (YYYY-MM-DD, default today)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	when := time.Now().UTC()
	if *day != "" {
		when, err = time.Parse("2006-01-02", *day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid day %q, expected YYYY-MM-DD\n", *day)
			os.Exit(1)
		}
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := cli.WriteDailySummary(os.Stdout, components.Tracker.DailySummary(when), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runGoals() {
	fs := flag.NewFlagSet("goals", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	calories := fs.Float64("calories", 0, "daily calorie target (0 leaves unchanged, negative clears)")
	protein := fs.Float64("protein", 0, "daily protein target in grams")
	carbs := fs.Float64("carbs", 0, "daily carbohydrate target in grams")
	fat := fs.Float64("fat", 0, "daily fat target in grams")
	clear := fs.Bool("clear", false, "clear all goals")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	if *clear {
		if err := components.Tracker.ClearGoals(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Goals cleared.")
		return
	}

	var caloriesPtr *float64
	if *calories != 0 {
		caloriesPtr = calories
	}
	macros := map[string]float64{}
	for name, value := range map[string]float64{"protein": *protein, "carbs": *carbs, "fat": *fat} {
		if value != 0 {
			macros[name] = value
		}
	}
	if caloriesPtr != nil || len(macros) > 0 {
		if _, err := components.Tracker.UpdateGoals(ctx, caloriesPtr, macros); err != nil {
			fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteProgress(os.Stdout, components.Tracker.ProgressForDay(time.Now().UTC()), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	lifetime := fs.Bool("lifetime", false, "show lifetime stats instead of the weekly overview")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if *lifetime {
		err = cli.WriteLifetimeStats(os.Stdout, components.Tracker.LifetimeStats(), format)
	} else {
		err = cli.WriteWeeklyOverview(os.Stdout, components.Tracker.WeeklyOverview(), format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tabemono - Food recognition and nutrition tracking

Usage:
  tabemono server [flags]            Start the HTTP server
  tabemono scan [flags] <text>       Match a food description against the catalog
  tabemono scan --image <path>       Match a food photo against the catalog
  tabemono log [flags] <food name>   Log a food by exact name or alias
  tabemono add [flags] <food name>   Add a custom food to the catalog
  tabemono foods [flags]             List the food catalog
  tabemono summary [flags]           Show a day's log and totals
  tabemono goals [flags]             Show or update nutrition goals
  tabemono stats [flags]             Show weekly or lifetime stats
  tabemono version                   Show version
  tabemono help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/tabemono/config.yaml)
  --output string    Output format: text or json (default: text)

Examples:
  tabemono server
  tabemono scan grilled chicken breast
  tabemono scan --image lunch.jpg
  tabemono log --quantity 2 "greek yogurt"
  tabemono add --calories 220 --protein 30 --serving "1 bottle" "protein shake"
  tabemono summary --day 2026-08-20
  tabemono goals --calories 2200 --protein 140
  tabemono stats --lifetime`)
}
