package receipt

import (
	"time"

	"github.com/zombor/hsa-ocr/internal/extraction"
)

// Analysis is the response for one extracted receipt
type Analysis struct {
	ID          string `json:"id"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	OCREngine   string `json:"ocr_engine,omitempty"`

	extraction.Record

	Category         extraction.Category          `json:"category"`
	Valid            bool                         `json:"valid"`
	ValidationErrors []extraction.ValidationError `json:"validation_errors"`

	extraction.ReviewFlags

	CreatedAt time.Time `json:"created_at"`
}

// ValidationReport is the response for a validated record
type ValidationReport struct {
	Valid  bool                         `json:"valid"`
	Errors []extraction.ValidationError `json:"errors"`
}
