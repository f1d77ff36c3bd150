package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/hsa-ocr/internal/extraction"
	"github.com/zombor/hsa-ocr/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// receipt-extract reads OCR text from a file (or stdin) and prints the analysis as JSON
func main() {
	fs := ff.NewFlagSet("receipt-extract")
	var (
		confidence      = fs.Float64Long("confidence", 100, "OCR engine confidence for the text, 0-100")
		minConfidence   = fs.Float64Long("min-confidence", extraction.DefaultMinConfidence, "Overall confidence below which a record is invalid")
		reviewThreshold = fs.Float64Long("review-threshold", extraction.DefaultReviewThreshold, "Field confidence below which a human should verify")
		indent          = fs.BoolLong("indent", "Pretty-print the JSON output")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("HSA_OCR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs, "receipt-extract [FLAGS] [FILE]"))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	text, err := readInput(fs.GetArgs())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	analyzer := extraction.NewAnalyzer(extraction.NewExtractor(), extraction.Thresholds{
		MinConfidence: *minConfidence,
		Review:        *reviewThreshold,
	})
	analysis := receipt.NewService(nil, analyzer).ExtractText(text, *confidence)

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(analysis); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func readInput(args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("expected at most one file, got %d", len(args))
	}
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(b), nil
}
