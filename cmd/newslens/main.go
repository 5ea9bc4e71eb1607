package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sgriesel/newslens/internal/config"
	"github.com/sgriesel/newslens/internal/database"
	"github.com/sgriesel/newslens/internal/fetch"
	"github.com/sgriesel/newslens/internal/pipeline"
	"github.com/sgriesel/newslens/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newslens",
	Short:   "News ingestion and analysis",
	Long:    "newslens collects articles from RSS feeds and news APIs, deduplicates them, analyzes them with an LLM, and serves the results over a JSON API.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// API keys may live in a local .env file
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cleanupCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newslens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newslens/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds and API key environment variables.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Printf("Sources:  %d\n", stats.Sources)
		fmt.Printf("Articles: %d\n", stats.Articles)
		fmt.Printf("Analyzed: %d\n", stats.AnalyzedArticles)

		if len(stats.BySource) > 0 {
			fmt.Println("\nArticles by source:")
			printCounts(stats.BySource)
		}

		if cfg.AnalyzerAPIKey() == "" {
			fmt.Printf("\nNote: %s is not set, ingestion will skip analysis.\n", cfg.Analyzer.APIKeyEnv)
		}
		return nil
	},
}

// --- ingest command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, deduplicate, and analyze articles from all configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Ingesting articles from sources...")

		pipe := pipeline.New(cfg, db)
		result, err := pipe.Run(context.Background())
		if err != nil {
			return err
		}

		fmt.Println("\nIngestion complete:")
		fmt.Printf("  New articles: %d\n", result.Fetched)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		fmt.Printf("  Analyzed: %d\n", result.Analyzed)
		if result.Dropped > 0 {
			fmt.Printf("  Dropped (unroutable): %d\n", result.Dropped)
		}
		if result.AnalysisErrors > 0 {
			fmt.Printf("  Analysis errors: %d\n", result.AnalysisErrors)
		}

		if len(result.Sources) > 0 {
			fmt.Println("\nNew articles by source:")
			printCounts(result.Sources)
		}
		return nil
	},
}

// --- backfill command ---

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fetch full text for stored articles with thin content",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fetcher := fetch.NewContentFetcher(db, 15*time.Second,
			cfg.Analyzer.MinContentLen, cfg.Ingest.MaxCleanLen)
		result := fetcher.BackfillThinArticles()

		fmt.Printf("Backfill complete: %d fetched, %d failed\n", result.Fetched, result.Failed)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		pipe := pipeline.New(cfg, db)
		engine := server.New(server.NewHandler(db, pipe))

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return engine.Run(fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- cleanup command ---

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [source]",
	Short: "Delete a source and all its articles and analyses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		name := args[0]
		src, err := db.GetSourceByName(name)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("source %q not found", name)
		}

		articles, analyses, err := db.DeleteSourceCascade(name)
		if err != nil {
			return err
		}

		fmt.Printf("Removed source %q: %d articles, %d analyses\n", name, articles, analyses)
		return nil
	},
}

func printCounts(counts map[string]int) {
	type kv struct {
		key string
		val int
	}
	var sorted []kv
	for k, v := range counts {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
	for _, s := range sorted {
		fmt.Printf("  %s: %d\n", s.key, s.val)
	}
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "newslens.db")
	return database.Open(dbPath)
}
