package scanning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig holds Tesseract configuration
type TesseractConfig struct {
	Languages     []string // default "eng"
	TessdataDir   string
	PageSegMode   int // 0 keeps the Tesseract default
	CharWhitelist string
}

// Tesseract implements the Scanner interface with a local Tesseract install
type Tesseract struct {
	cfg TesseractConfig
}

// NewTesseract creates a new Tesseract Scanner instance
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if cfg.PageSegMode < 0 || cfg.PageSegMode > int(gosseract.PSM_RAW_LINE) {
		return nil, fmt.Errorf("invalid tesseract page segmentation mode: %d", cfg.PageSegMode)
	}
	return &Tesseract{cfg: cfg}, nil
}

// ScanText runs Tesseract over the image. Confidence is the mean word confidence.
func (t *Tesseract) ScanText(ctx context.Context, imageData []byte, contentType string) (*OCRText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pngData, converted, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, err
	}
	if converted {
		slog.Debug("Converted upload to PNG", "content_type", contentType, "size", len(pngData))
	}

	// gosseract clients are not safe for concurrent use; one per scan
	client := gosseract.NewClient()
	defer client.Close()

	if t.cfg.TessdataDir != "" {
		client.TessdataPrefix = t.cfg.TessdataDir
	}
	if err := client.SetLanguage(t.cfg.Languages...); err != nil {
		return nil, fmt.Errorf("setting tesseract language: %w", err)
	}
	if t.cfg.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.cfg.PageSegMode)); err != nil {
			return nil, fmt.Errorf("setting page segmentation mode: %w", err)
		}
	}
	if t.cfg.CharWhitelist != "" {
		if err := client.SetWhitelist(t.cfg.CharWhitelist); err != nil {
			return nil, fmt.Errorf("setting whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(pngData); err != nil {
		return nil, fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("reading word confidences: %w", err)
	}
	confidences := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		confidences = append(confidences, b.Confidence)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &OCRText{
		Text:       text,
		Confidence: meanConfidence(confidences),
		Engine:     "tesseract",
	}, nil
}

// meanConfidence averages word confidences, ignoring Tesseract's -1 "no value"
func meanConfidence(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v < 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return clampPercent(sum / float64(n))
}

// Close is a no-op; clients are created per scan
func (t *Tesseract) Close() error {
	return nil
}
