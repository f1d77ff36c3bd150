package scanning

import "context"

// OCRText is the raw output of an OCR engine
type OCRText struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-100 as reported by the engine
	Engine     string  `json:"engine"`
}

// Scanner defines the interface for OCR engines
type Scanner interface {
	// ScanText recognizes the text in a receipt image/PDF
	ScanText(ctx context.Context, imageData []byte, contentType string) (*OCRText, error)
	// Close closes the scanner and releases resources
	Close() error
}
