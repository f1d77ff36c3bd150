package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/hsa-ocr/internal/extraction"
	"github.com/zombor/hsa-ocr/internal/scanning"
)

const (
	// high-resolution phone photos can be large
	maxUploadSize = int64(50 << 20)
	// OCR text is small; anything bigger is not a receipt
	maxTextBodySize = int64(1 << 20)
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// detectContentType picks the upload's MIME type from the part header,
// the file extension, and finally the content itself
func detectContentType(header *multipart.FileHeader, data []byte) string {
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}

	// sniff the bytes as a last resort
	return http.DetectContentType(data)
}

// handleUploadReceipt runs OCR and extraction over an uploaded receipt
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		jsonError(w, "The uploaded file is empty.", http.StatusBadRequest)
		return
	}

	contentType := detectContentType(header, data)

	analysis, err := s.service.ProcessReceipt(r.Context(), header.Filename, data, contentType)
	switch {
	case errors.Is(err, ErrNoScanner):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, scanning.ErrUnsupportedFormat):
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	case err != nil:
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusCreated, analysis)
}

// extractTextRequest carries OCR output produced by an external engine
type extractTextRequest struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// handleExtractText runs extraction over OCR text posted as JSON
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	var req extractTextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBodySize)).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Confidence == nil {
		jsonError(w, "confidence is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.service.ExtractText(req.Text, *req.Confidence))
}

// handleValidateRecord validates a record, typically after human review
func (s *Server) handleValidateRecord(w http.ResponseWriter, r *http.Request) {
	var rec extraction.Record
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBodySize)).Decode(&rec); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.service.ValidateRecord(rec))
}

// handleListCategories returns the supported expense categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, extraction.Categories)
}
