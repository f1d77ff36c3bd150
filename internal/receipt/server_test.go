package receipt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/hsa-ocr/internal/extraction"
	"github.com/zombor/hsa-ocr/internal/scanning"
)

func multipartUpload(filename string, data []byte) (*bytes.Buffer, string) {
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(data)
	writer.Close()
	return &b, writer.FormDataContentType()
}

func decodeBody(resp *http.Response, v any) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(body, v)).To(Succeed(), string(body))
}

var _ = Describe("Server", func() {
	var (
		scanner     *mockScanner
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AllowUnhandledRequests = false
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		scanner = newMockScanner()
		service = newTestService(scanner)
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
			ghttpServer = nil
		}
	})

	Describe("handleHealth", func() {
		It("should return status OK", func() {
			resp, err := http.Get(ghttpServer.URL() + "/healthz")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})
	})

	Describe("handleUploadReceipt", func() {
		When("upload succeeds", func() {
			It("should return the analysis", func() {
				body, contentType := multipartUpload("test.jpg", []byte("fake image data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var got map[string]any
				decodeBody(resp, &got)
				Expect(got["id"]).To(Equal("test-id"))
				Expect(got["store_name"]).To(Equal("Cvs Pharmacy"))
				Expect(got["amount"]).To(Equal("14.00"))
				Expect(got["date"]).To(Equal("2024-08-07"))
				Expect(got["category"]).To(Equal("Pharmacy"))
				Expect(got["valid"]).To(BeTrue())
				Expect(got["review_required"]).To(BeFalse())
				Expect(got["fields_to_verify"]).To(ConsistOf("date"))
				Expect(got["line_items"]).To(HaveLen(1))
				Expect(got["confidence_scores"]).To(HaveKeyWithValue("overall", BeNumerically("~", 0.9, 1e-9)))
			})

			It("should infer the content type from the extension", func() {
				body, contentType := multipartUpload("scan.pdf", []byte("fake pdf data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				Expect(scanner.lastType).To(Equal("application/pdf"))
			})

			It("should sniff unknown extensions", func() {
				body, contentType := multipartUpload("scan", []byte("%PDF-1.4 fake"))
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(scanner.lastType).To(Equal("application/pdf"))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var got map[string]string
				decodeBody(resp, &got)
				Expect(got["error"]).To(ContainSubstring("file"))
			})
		})

		When("the file is empty", func() {
			It("should return status Bad Request", func() {
				body, contentType := multipartUpload("test.jpg", nil)
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(scanner.calls).To(BeZero())
			})
		})

		When("invalid multipart form", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", "multipart/form-data", bytes.NewBufferString("invalid"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var got map[string]string
				decodeBody(resp, &got)
				Expect(got["error"]).To(Equal("Error parsing form"))
			})
		})

		When("the scanner fails", func() {
			BeforeEach(func() {
				scanner.scanErr = errors.New("scan error")
			})

			It("should return status Bad Gateway with the error", func() {
				body, contentType := multipartUpload("test.jpg", []byte("fake image data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

				var got map[string]string
				decodeBody(resp, &got)
				Expect(got["error"]).To(ContainSubstring("scan error"))
			})
		})

		When("the format is unsupported", func() {
			BeforeEach(func() {
				scanner.scanErr = fmt.Errorf("decoding: %w", scanning.ErrUnsupportedFormat)
			})

			It("should return status Unsupported Media Type", func() {
				body, contentType := multipartUpload("test.bmp", []byte("BM fake"))
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnsupportedMediaType))
			})
		})

		When("no scanner is configured", func() {
			BeforeEach(func() {
				service = newTestService(nil)
				setupServer()
			})

			It("should return status Service Unavailable", func() {
				body, contentType := multipartUpload("test.jpg", []byte("fake image data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/receipts", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
			})
		})
	})

	Describe("handleExtractText", func() {
		post := func(body string) *http.Response {
			resp, err := http.Post(ghttpServer.URL()+"/api/extract", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		When("the request is valid", func() {
			It("should return the analysis", func() {
				payload, _ := json.Marshal(map[string]any{"text": cvsReceiptText, "confidence": 90})
				resp := post(string(payload))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var got Analysis
				decodeBody(resp, &got)
				Expect(got.StoreName).To(Equal("Cvs Pharmacy"))
				Expect(got.Amount).To(Equal("14.00"))
				Expect(got.LineItems).To(Equal([]extraction.LineItem{{Description: "Advil", Price: "12.99"}}))
				Expect(got.Category).To(Equal(extraction.Pharmacy))
			})

			It("should not run OCR", func() {
				resp := post(`{"text": "walmart", "confidence": 50}`)
				resp.Body.Close()
				Expect(scanner.calls).To(BeZero())
			})
		})

		When("the text has no date", func() {
			It("should fall back to today and ask for verification", func() {
				resp := post(`{"text": "WALGREENS\nTOTAL 5.99", "confidence": 95}`)
				var got Analysis
				decodeBody(resp, &got)
				Expect(got.Date).To(Equal("2024-09-01"))
				Expect(got.Confidence.Date).To(BeNumerically("~", 0.1, 1e-9))
				Expect(got.FieldsToVerify).To(ContainElement("date"))
			})
		})

		When("the confidence is missing", func() {
			It("should return status Bad Request", func() {
				resp := post(`{"text": "walmart"}`)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the body is not JSON", func() {
			It("should return status Bad Request", func() {
				resp := post(`nope`)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleValidateRecord", func() {
		It("should report validation errors", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/validate", "application/json",
				strings.NewReader(`{"store_name": "Cvs", "amount": "0", "date": "2024-02-30", "confidence_scores": {"overall": 0.9}}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var got ValidationReport
			decodeBody(resp, &got)
			Expect(got.Valid).To(BeFalse())
			Expect(got.Errors).To(ConsistOf(extraction.ErrAmountNotPositive, extraction.ErrDateInvalid))
		})

		It("should accept a valid record", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/validate", "application/json",
				strings.NewReader(`{"store_name": "Cvs", "amount": "3.50", "date": "2024-02-29", "confidence_scores": {"overall": 0.9}}`))
			Expect(err).NotTo(HaveOccurred())

			var got ValidationReport
			decodeBody(resp, &got)
			Expect(got.Valid).To(BeTrue())
			Expect(got.Errors).To(BeEmpty())
		})
	})

	Describe("handleListCategories", func() {
		It("should return every category in order", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/categories")
			Expect(err).NotTo(HaveOccurred())

			var got []string
			decodeBody(resp, &got)
			Expect(got).To(Equal([]string{"Pharmacy", "Dental", "Vision", "DoctorVisit", "MedicalDevice", "Other"}))
		})
	})

	Describe("CORS", func() {
		It("should answer preflight requests", func() {
			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/api/extract", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "pass"}
			setupServer()
		})

		It("should reject requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/categories")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("should reject wrong credentials", func() {
			req, _ := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/categories", nil)
			req.SetBasicAuth("user", "wrong")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should accept valid credentials", func() {
			req, _ := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/categories", nil)
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should leave the health check open", func() {
			resp, err := http.Get(ghttpServer.URL() + "/healthz")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
