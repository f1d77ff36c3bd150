package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/hsa-ocr/internal/extraction"
	"github.com/zombor/hsa-ocr/internal/receipt"
	"github.com/zombor/hsa-ocr/internal/scanning"
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

	fs := ff.NewFlagSet("hsa-ocr")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		scannerType     = fs.StringLong("scanner", "tesseract", "OCR engine: 'tesseract', 'gemini', 'ollama' or 'none'")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		tessLang        = fs.StringLong("tesseract-lang", "eng", "Tesseract languages, '+' separated")
		tessData        = fs.StringLong("tessdata", "", "Tesseract tessdata directory (optional)")
		tessPSM         = fs.IntLong("tesseract-psm", 0, "Tesseract page segmentation mode (0 keeps the default)")
		minConfidence   = fs.Float64Long("min-confidence", extraction.DefaultMinConfidence, "Overall confidence below which a record is invalid")
		reviewThreshold = fs.Float64Long("review-threshold", extraction.DefaultReviewThreshold, "Field confidence below which a human should verify")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("HSA_OCR"),
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

	// Initialize scanner based on type
	var (
		scanner scanning.Scanner
		err     error
	)
	switch *scannerType {
	case "tesseract":
		slog.Info("Initializing Tesseract scanner...", "languages", *tessLang, "psm", *tessPSM)
		scanner, err = scanning.NewTesseract(scanning.TesseractConfig{
			Languages:   strings.Split(*tessLang, "+"),
			TessdataDir: *tessData,
			PageSegMode: *tessPSM,
		})
		if err != nil {
			slog.Error("Failed to initialize Tesseract", "error", err)
			os.Exit(1)
		}
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	case "none":
		slog.Warn("No OCR engine configured; only /api/extract will accept receipts")
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "tesseract, gemini, ollama or none")
		os.Exit(1)
	}
	if scanner != nil {
		defer scanner.Close()
	}

	analyzer := extraction.NewAnalyzer(extraction.NewExtractor(), extraction.Thresholds{
		MinConfidence: *minConfidence,
		Review:        *reviewThreshold,
	})

	thresholds := analyzer.Thresholds()
	slog.Info("Extraction thresholds", "min_confidence", thresholds.MinConfidence, "review", thresholds.Review)

	// Initialize service
	receiptService := receipt.NewService(scanner, analyzer)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

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
