package extraction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field is an extracted value together with its confidence.
// Found is false when nothing was extracted; Confidence is 0 in that case.
type Field[T any] struct {
	Value      T
	Confidence float64
	Found      bool
}

func found[T any](v T, confidence float64) Field[T] {
	return Field[T]{Value: v, Confidence: clamp01(confidence), Found: true}
}

// LineItem is a single purchased item from the receipt body
type LineItem struct {
	Description string `json:"description"`
	Price       string `json:"price"` // decimal with 2 fraction digits
}

// Confidence holds the per-field scores and the overall OCR confidence
type Confidence struct {
	StoreName float64 `json:"store_name"`
	Amount    float64 `json:"amount"`
	Date      float64 `json:"date"`
	Overall   float64 `json:"overall"`
}

// Result is the structured data extracted from one OCR pass
type Result struct {
	StoreName  Field[string]
	Amount     Field[decimal.Decimal]
	Date       Field[time.Time]
	LineItems  []LineItem
	Confidence Confidence
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Extractor turns OCR text into a Result.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	timeSource TimeSource
}

// NewExtractor creates an Extractor that uses the wall clock for the date window
func NewExtractor() *Extractor {
	return &Extractor{timeSource: defaultTimeSource{}}
}

// NewExtractorWithTimeSource creates an Extractor with a custom clock for testing
func NewExtractorWithTimeSource(ts TimeSource) *Extractor {
	return &Extractor{timeSource: ts}
}

// Extract runs every field extractor over the text.
// ocrConfidence is the engine-reported confidence in percent (0-100).
func (e *Extractor) Extract(text string, ocrConfidence float64) *Result {
	lines := SplitLines(text)
	today := e.timeSource.Now()

	r := &Result{
		StoreName: extractStoreName(lines),
		Amount:    extractAmount(lines),
		Date:      extractDate(lines, today),
		LineItems: extractLineItems(lines),
	}
	r.Confidence = Confidence{
		StoreName: r.StoreName.Confidence,
		Amount:    r.Amount.Confidence,
		Date:      r.Date.Confidence,
		Overall:   clamp01(ocrConfidence / 100),
	}
	return r
}

// Record returns the wire form of the result
func (r *Result) Record() Record {
	rec := Record{
		StoreName:  r.StoreName.Value,
		LineItems:  r.LineItems,
		Confidence: r.Confidence,
	}
	if r.Amount.Found {
		rec.Amount = r.Amount.Value.StringFixed(2)
	}
	if r.Date.Found {
		rec.Date = r.Date.Value.Format(isoDate)
	}
	if rec.LineItems == nil {
		rec.LineItems = []LineItem{}
	}
	return rec
}

// Record is the serialized form of a Result. It is also what a reviewer
// submits back after correcting fields by hand.
type Record struct {
	StoreName  string     `json:"store_name"`
	Amount     string     `json:"amount"`
	Date       string     `json:"date"`
	LineItems  []LineItem `json:"line_items"`
	Confidence Confidence `json:"confidence_scores"`
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
