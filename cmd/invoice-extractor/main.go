package main

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/invoice-extractor/internal/analysis"
	"github.com/zombor/invoice-extractor/internal/invoice"
)

//go:embed VERSION.txt
var versionFile string
var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional, flags and the environment still apply without one
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("invoice-extractor")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "invoice-extractor.db", "Database file path")
		storagePath     = fs.StringLong("storage", "./invoices", "Storage directory path for uploaded documents")
		analyzerType    = fs.StringLong("analyzer", "azure", "Analyzer type: 'azure', 'gemini' or 'ollama'")
		azureEndpoint   = fs.StringLong("azure-endpoint", "", "Azure Document Intelligence endpoint")
		azureKey        = fs.StringLong("azure-key", "", "Azure Document Intelligence API key")
		azureAPIVersion = fs.StringLong("azure-api-version", analysis.DefaultAzureAPIVersion, "Azure Document Intelligence API version")
		invoiceModel    = fs.StringLong("invoice-model", analysis.InvoiceModel, "Model for invoice fields (empty to skip)")
		customModel     = fs.StringLong("custom-model", "", "Custom model whose fields complement the invoice fields (optional)")
		layoutModel     = fs.StringLong("layout-model", analysis.LayoutModel, "Model for table layout (empty to use invoice tables)")
		analyzeTimeout  = fs.DurationLong("analyze-timeout", 2*time.Minute, "Timeout of a single analysis call")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "qwen2.5vl", "Ollama vision model name")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := invoice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize analyzer based on type
	var analyzer analysis.Analyzer
	switch *analyzerType {
	case "azure":
		slog.Info("Initializing Azure Document Intelligence analyzer...", "endpoint", *azureEndpoint, "api_version", *azureAPIVersion)
		analyzer, err = analysis.NewAzure(*azureEndpoint, *azureKey, *azureAPIVersion, analysis.WithTimeout(*analyzeTimeout))
		if err != nil {
			slog.Error("Failed to initialize Azure analyzer", "error", err)
			os.Exit(1)
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini analyzer...", "model", *geminiModel)
		analyzer, err = analysis.NewGemini(apiKey, *geminiModel, *analyzeTimeout)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama analyzer...", "url", *ollamaURL, "model", *ollamaModel)
		analyzer, err = analysis.NewOllama(*ollamaURL, *ollamaModel, *analyzeTimeout)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid analyzer type", "type", *analyzerType, "valid", "azure, gemini or ollama")
		os.Exit(1)
	}
	defer analyzer.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := invoice.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	models := invoice.Models{
		Invoice: *invoiceModel,
		Custom:  *customModel,
		Layout:  *layoutModel,
	}
	slog.Info("Analysis passes configured", "invoice", models.Invoice, "custom", models.Custom, "layout", models.Layout)

	invoiceService := invoice.NewService(db, analyzer, store, models)

	server := invoice.NewServer(invoiceService, invoice.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
