package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// transcriptionPrompt is the shared prompt used by the LLM engines. They act as
// plain OCR: the heuristics in the extraction package do the field work.
const transcriptionPrompt = `You are an OCR engine. Transcribe all text printed on this receipt or invoice exactly as it appears.

Rules:
- Keep the original line breaks: one printed line per output line, top to bottom
- Keep the original spelling, capitalization, numbers, currency signs and punctuation
- Do not summarize, translate, correct or reorder anything
- Do not add any text that is not printed on the document
- Estimate how legible the document was as a confidence from 0 to 100

Return ONLY valid JSON in this exact format:
{
  "text": "LINE 1\nLINE 2\n...",
  "confidence": 0
}

Do not include any text before or after the JSON and do not use markdown code blocks`

type transcription struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// parseTranscriptionJSON parses the JSON response of an LLM engine
func parseTranscriptionJSON(text, engine string) (*OCRText, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var t transcription
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &t); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	// Models that omit the estimate get a neutral score rather than zero
	confidence := 50.0
	if t.Confidence != nil {
		confidence = clampPercent(*t.Confidence)
	}

	return &OCRText{
		Text:       t.Text,
		Confidence: confidence,
		Engine:     engine,
	}, nil
}

func clampPercent(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
