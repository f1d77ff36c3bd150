package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/zombor/hsa-ocr/internal/extraction"
	"github.com/zombor/hsa-ocr/internal/scanning"
)

// ErrNoScanner is returned when an upload arrives but no OCR engine is configured
var ErrNoScanner = errors.New("no OCR engine configured")

// IDGenerator generates unique IDs for analyses
type IDGenerator interface {
	Generate() string
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// Service runs OCR and field extraction for receipts
type Service struct {
	scanner     scanning.Scanner
	analyzer    *extraction.Analyzer
	idGenerator IDGenerator
	timeSource  extraction.TimeSource
}

// NewService creates a new Service with a random ID generator. Timestamps come
// from the analyzer's clock so they agree with the date window.
// scanner may be nil when only text extraction is needed.
func NewService(scanner scanning.Scanner, analyzer *extraction.Analyzer) *Service {
	return &Service{
		scanner:     scanner,
		analyzer:    analyzer,
		idGenerator: &defaultIDGenerator{},
		timeSource:  analyzer,
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, analyzer *extraction.Analyzer, idGen IDGenerator, timeSrc extraction.TimeSource) *Service {
	return &Service{
		scanner:     scanner,
		analyzer:    analyzer,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	filenameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces     = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = filenameDisallowed.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// phones generate very long names
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + filenameDisallowed.ReplaceAllString(ext, "")
}

// ExtractText analyzes OCR text that was produced elsewhere.
// ocrConfidence is the engine confidence in percent.
func (s *Service) ExtractText(text string, ocrConfidence float64) *Analysis {
	return s.newAnalysis(s.analyzer.Analyze(text, ocrConfidence))
}

// ProcessReceipt runs OCR over an uploaded receipt and analyzes the text
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Analysis, error) {
	if s.scanner == nil {
		return nil, ErrNoScanner
	}

	start := s.timeSource.Now()
	ocr, err := s.scanner.ScanText(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	analysis := s.newAnalysis(s.analyzer.Analyze(ocr.Text, ocr.Confidence))
	analysis.Filename = sanitizeFilename(filename)
	analysis.ContentType = contentType
	analysis.OCREngine = ocr.Engine

	slog.Info("Receipt extracted",
		"id", analysis.ID,
		"engine", ocr.Engine,
		"ocr_confidence", ocr.Confidence,
		"category", analysis.Category,
		"review_required", analysis.Required,
		"validation_errors", len(analysis.ValidationErrors),
		"duration_ms", s.timeSource.Now().Sub(start).Milliseconds(),
	)
	return analysis, nil
}

// ValidateRecord checks a (possibly hand-corrected) record
func (s *Service) ValidateRecord(rec extraction.Record) *ValidationReport {
	errs := s.analyzer.Validate(rec)
	return &ValidationReport{Valid: len(errs) == 0, Errors: errs}
}

func (s *Service) newAnalysis(a *extraction.Analysis) *Analysis {
	return &Analysis{
		ID:               s.idGenerator.Generate(),
		Record:           a.Result.Record(),
		Category:         a.Category,
		Valid:            len(a.ValidationErrors) == 0,
		ValidationErrors: a.ValidationErrors,
		ReviewFlags:      a.Review,
		CreatedAt:        s.timeSource.Now(),
	}
}
