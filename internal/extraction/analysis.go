package extraction

import "time"

// Default thresholds. Both are configurable through Thresholds.
const (
	DefaultMinConfidence   = 0.5
	DefaultReviewThreshold = 0.7
)

// Thresholds configures validation and review routing
type Thresholds struct {
	// MinConfidence is the lowest overall OCR confidence accepted by Validate
	MinConfidence float64
	// Review is the confidence below which a value is flagged for a human
	Review float64
}

// DefaultThresholds returns the thresholds used when none are configured
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinConfidence: DefaultMinConfidence,
		Review:        DefaultReviewThreshold,
	}
}

// Analysis is everything derived from one OCR pass
type Analysis struct {
	Result           *Result
	ValidationErrors []ValidationError
	Category         Category
	Review           ReviewFlags
}

// Analyzer runs extraction and the checks that consume its result
type Analyzer struct {
	extractor  *Extractor
	thresholds Thresholds
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(extractor *Extractor, thresholds Thresholds) *Analyzer {
	return &Analyzer{extractor: extractor, thresholds: thresholds}
}

// Thresholds returns the configured thresholds
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Now reports the time the extractor treats as today
func (a *Analyzer) Now() time.Time {
	return a.extractor.timeSource.Now()
}

// Analyze extracts fields from OCR text and validates, classifies and flags the result
func (a *Analyzer) Analyze(text string, ocrConfidence float64) *Analysis {
	result := a.extractor.Extract(text, ocrConfidence)
	return &Analysis{
		Result:           result,
		ValidationErrors: Validate(result.Record(), a.thresholds.MinConfidence),
		Category:         Classify(result.StoreName.Value, result.LineItems),
		Review:           Review(result.Confidence, a.thresholds.Review),
	}
}

// Validate checks a record with the configured minimum confidence
func (a *Analyzer) Validate(rec Record) []ValidationError {
	return Validate(rec, a.thresholds.MinConfidence)
}
