// Package main is the glossary CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/glossary/internal/cli"
	"github.com/hyperjump/glossary/internal/client"
	"github.com/hyperjump/glossary/internal/config"
	"github.com/hyperjump/glossary/internal/extract"
	"github.com/hyperjump/glossary/internal/indexer"
	"github.com/hyperjump/glossary/internal/keyword"
	"github.com/hyperjump/glossary/internal/lookup"
	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/page"
	"github.com/hyperjump/glossary/internal/search"
	"github.com/hyperjump/glossary/internal/server"
	"github.com/hyperjump/glossary/internal/storage"
	"github.com/hyperjump/glossary/internal/watcher"
	"github.com/hyperjump/glossary/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/glossary/config.yaml"

// loadConfig loads config from path. When path is the default and it does not
// exist, config.yaml in the current directory is tried, and failing that the
// built-in defaults are used. Returns the config and the path actually loaded
// ("" for built-in defaults).
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "lookup":
		runLookup()
	case "import":
		runImport()
	case "add":
		runAdd()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("glossary version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := components.RebuildIfEmpty(context.Background()); err != nil {
		logger.Warn("term index rebuild failed", zap.Error(err))
	}

	idx := components.Indexer
	watchSvc := watcher.NewWatcher(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		watcher.HandlerFuncs{
			Changed: func(path string) {
				if _, err := idx.ImportFile(context.Background(), path); err != nil {
					logger.Warn("watch import failed", zap.String("path", path), zap.Error(err))
				}
			},
			Removed: func(path string) {
				if _, err := idx.ForgetFile(context.Background(), path); err != nil {
					logger.Warn("watch forget failed", zap.String("path", path), zap.Error(err))
				}
			},
		},
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Storage,
		cfg,
		logger,
		watchSvc,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printLookupUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: glossary lookup [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  glossary lookup umfula
  glossary lookup --expand 0,2 umfula
  glossary lookup --output json "umfula omkhulu"
`)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front so that flag.Parse sees them; the flag package stops at the
// first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// lookupDefaults returns the client settings from the config at path, or the
// built-in defaults when it cannot be loaded.
func lookupDefaults(path string) config.ClientConfig {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	return cfg.Client
}

func runLookup() {
	args := argsReorder(os.Args[2:])
	configPath := configPathFromArgs(args, defaultConfigPath)
	defaults := lookupDefaults(configPath)

	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	_ = fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaults.BaseURL, "backend URL")
	expandFlag := fs.String("expand", "", "comma-separated entry indexes to show expanded, e.g. 0,2")
	outputFormat := fs.String("output", "text", "output format: text, html, or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printLookupUsage(fs) }
	_ = fs.Parse(args)

	query := buildQuery(fs.Args())
	if query == "" {
		printLookupUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	expand, err := cli.ParseIndexes(*expandFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *debug {
		if logger, err = utils.NewLogger(true); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	backend := client.New(*serverURL,
		client.WithTimeout(defaults.Timeout()),
		client.WithRateLimit(defaults.RequestsPerSecond),
		client.WithLogger(logger),
	)
	rendered, err := lookup.Snapshot(context.Background(), backend, query, expand,
		lookup.WithLogger(logger),
		lookup.WithMaxInFlight(defaults.MaxInFlight),
		lookup.WithPreviewLimit(previewLimit(configPath)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}
	doc, err := page.Parse(strings.NewReader(rendered))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteDocument(os.Stdout, doc, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func previewLimit(configPath string) int {
	cfg, _, err := loadConfig(configPath)
	if err != nil || cfg == nil {
		return lookup.DefaultPreviewLimit
	}
	return cfg.Render.PreviewLimit
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: glossary import [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	var results []*indexer.ImportResult
	if info.IsDir() {
		results, err = components.Indexer.ImportDirectory(ctx, path)
	} else {
		var res *indexer.ImportResult
		res, err = components.Indexer.ImportFile(ctx, path)
		if res != nil {
			results = append(results, res)
		}
	}
	for _, res := range results {
		if res.Unchanged {
			fmt.Printf("%s: unchanged\n", res.Path)
			continue
		}
		fmt.Printf("%s: %d imported, %d skipped\n", res.Path, res.Imported, res.Skipped)
	}
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	var input models.EntryInput
	fs.StringVar(&input.IsiZulu, "isizulu", "", "isiZulu term (required)")
	fs.StringVar(&input.English, "english", "", "English term (required)")
	fs.StringVar(&input.IsiXhosa, "isixhosa", "", "isiXhosa term")
	fs.StringVar(&input.SiSwati, "siswati", "", "siSwati term")
	fs.StringVar(&input.Context, "context", "", "usage context (required)")
	fs.StringVar(&input.Page, "page", "", "source page")
	_ = fs.Parse(os.Args[2:])

	if err := input.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid entry: %v\n", err)
		fs.Usage()
		os.Exit(1)
	}

	if *serverURL != "" {
		id, err := addViaHTTP(*serverURL, &input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Entry added: %d\n", id)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	entry, err := components.Indexer.AddEntry(context.Background(), &input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Entry added: %d\n", entry.ID)
}

func addViaHTTP(serverURL string, input *models.EntryInput) (int64, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return 0, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/add", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return out.ID, nil
}

// statusResponse is the shape of the GET /status response.
type statusResponse struct {
	Entries          int64         `json:"entries"`
	DiskUsageBytes   *int64        `json:"disk_usage_bytes,omitempty"`
	WatchDirectories []string      `json:"watch_directories,omitempty"`
	Config           *statusConfig `json:"config,omitempty"`
}

type statusConfig struct {
	DatabasePath   string `json:"database_path,omitempty"`
	BleveIndexPath string `json:"bleve_index_path,omitempty"`
	UploadDir      string `json:"upload_dir,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		n, err := components.Storage.CountEntries(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count entries failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Entries:          n,
			WatchDirectories: cfg.Watch.Directories,
			Config: &statusConfig{
				DatabasePath:   cfg.Storage.DatabasePath,
				BleveIndexPath: cfg.Storage.BleveIndexPath,
				UploadDir:      cfg.Storage.UploadDir,
			},
		}
		usage, err := storage.MeasureUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.UploadDir)
		if err == nil {
			total := usage.Total()
			status.DiskUsageBytes = &total
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "entries:            %d   # glossary entries in the corpus\n", status.Entries)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + term index + uploads\n", *status.DiskUsageBytes)
	}
	for _, d := range status.WatchDirectories {
		fmt.Fprintf(w, "watching:           %s\n", d)
	}
	if status.Config != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		if status.Config.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
		}
		if status.Config.BleveIndexPath != "" {
			fmt.Fprintf(w, "bleve_index_path:   %s\n", status.Config.BleveIndexPath)
		}
		if status.Config.UploadDir != "" {
			fmt.Fprintf(w, "upload_dir:         %s\n", status.Config.UploadDir)
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Terms   *keyword.BleveIndex
	Engine  *search.Engine
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Terms != nil {
		_ = c.Terms.Close()
	}
}

// RebuildIfEmpty repopulates the term index when it is empty but the corpus is not.
func (c *Components) RebuildIfEmpty(ctx context.Context) error {
	docs, err := c.Terms.DocCount()
	if err != nil {
		return err
	}
	entries, err := c.Storage.CountEntries(ctx)
	if err != nil {
		return err
	}
	if docs > 0 || entries == 0 {
		return nil
	}
	_, err = c.Indexer.Rebuild(ctx)
	return err
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	for _, p := range []string{cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	terms, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize term index: %w", err)
	}

	engine := search.NewEngine(store, terms, &cfg.Search, logger)
	idx := indexer.NewIndexer(store, terms, extract.NewExtractor(),
		indexer.WithLogger(logger),
		indexer.WithUploadDir(cfg.Storage.UploadDir),
		indexer.WithOnChange(engine.Refresh),
	)
	return &Components{
		Storage: store,
		Terms:   terms,
		Engine:  engine,
		Indexer: idx,
	}, nil
}

func printUsage() {
	fmt.Println(`glossary - multilingual glossary lookup

Usage:
  glossary server [flags]            Start the HTTP server
  glossary lookup [flags] <query>    Look up a term and show the rendered results
  glossary import [flags] <path>     Import a CSV/XLSX glossary file or directory
  glossary add [flags]               Add one entry
  glossary status [flags]            Show corpus/storage status
  glossary version                   Show version
  glossary help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/glossary/config.yaml)
  --debug            Enable debug logging

Lookup Flags:
  --config string    Config file path (client defaults)
  --server string    Backend URL (default from config client.base_url)
  --expand string    Entry indexes to expand, e.g. 0,2
  --output string    Output format: text, html, or json (default: text)
  --debug            Log requests and stale responses

Add Flags:
  --isizulu, --english, --context (required); --isixhosa, --siswati, --page
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  glossary server
  glossary lookup umfula
  glossary lookup --expand 0 --output json umfula
  glossary import ./glossaries/terms.xlsx
  glossary add --isizulu umfula --english river --context geography
  glossary status --output json`)
}
