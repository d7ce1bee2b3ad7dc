package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nordprofil/quote-ai/internal/ai"
	"github.com/nordprofil/quote-ai/internal/config"
	"github.com/nordprofil/quote-ai/internal/excel"
	"github.com/nordprofil/quote-ai/internal/files"
	"github.com/nordprofil/quote-ai/internal/model"
	"github.com/nordprofil/quote-ai/internal/pdf"
	"github.com/nordprofil/quote-ai/internal/predictor"
	"github.com/nordprofil/quote-ai/internal/repository"
	"github.com/nordprofil/quote-ai/internal/service"
)

var testSchema = []string{
	`CREATE TABLE customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name TEXT NOT NULL,
		contact_person TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		address TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		reference_number TEXT NOT NULL UNIQUE,
		validity_date TIMESTAMP NOT NULL,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		predicted_price REAL,
		final_price REAL,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE product_specifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quote_id INTEGER NOT NULL REFERENCES quotes(id),
		description TEXT NOT NULL,
		profile_type TEXT NOT NULL,
		alloy TEXT NOT NULL,
		weight_per_meter REAL NOT NULL,
		total_length REAL NOT NULL,
		surface_treatment TEXT NOT NULL,
		machining_complexity TEXT NOT NULL
	);`,
	`CREATE TABLE communication_contexts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quote_id INTEGER NOT NULL REFERENCES quotes(id),
		context_text TEXT NOT NULL,
		extracted_urgency TEXT,
		custom_requests TEXT,
		past_agreements TEXT
	);`,
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema: %v", err)
		}
	}

	log := zerolog.Nop()
	customerRepo := repository.NewCustomerRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)

	pricePredictor := predictor.New(config.PredictorConfig{
		ModelPath: filepath.Join(t.TempDir(), "model.json"),
	}, log)
	if err := pricePredictor.Load(); err != nil {
		t.Fatalf("load predictor: %v", err)
	}

	fake := &ai.FakeProvider{}
	gate := ai.NewGate(2)

	fileStore, err := files.NewService(t.TempDir(), 1<<20, log)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	cfg := &config.Config{Quotes: config.QuotesConfig{ValidityDays: 30}}
	quoteService := service.NewQuoteService(
		quoteRepo,
		customerRepo,
		pricePredictor,
		ai.NewExtractor(fake, gate, "test-model", log),
		ai.NewQuoteWriter(fake, gate, "test-model", log),
		pdf.NewGenerator(),
		excel.NewGenerator(),
		fileStore,
		cfg,
	)

	handler := NewHandler(service.NewCustomerService(customerRepo), quoteService, fileStore, log)
	return NewRouter(handler, "test")
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v\n%s", err, w.Body.String())
	}
	return out
}

func createTestCustomer(t *testing.T, router *gin.Engine) model.Customer {
	t.Helper()
	w := doJSON(t, router, nethttp.MethodPost, "/customers", map[string]any{
		"company_name":   "Nordic Extrusions AB",
		"contact_person": "Anna Berg",
		"email":          "anna@nordic.se",
	})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("create customer: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	return decode[model.Customer](t, w)
}

func quotePayload(customerID int64) map[string]any {
	return map[string]any{
		"title":       "Window frames",
		"customer_id": customerID,
		"product_specs": map[string]any{
			"description":          "U-profile for window frames",
			"profile_type":         "U-profile",
			"alloy":                "6063",
			"weight_per_meter":     1.8,
			"total_length":         250,
			"surface_treatment":    "anodized",
			"machining_complexity": "medium",
		},
		"communication_context": map[string]any{
			"context_text": "repeat customer",
		},
	}
}

func createTestQuote(t *testing.T, router *gin.Engine, customerID int64) model.Quote {
	t.Helper()
	w := doJSON(t, router, nethttp.MethodPost, "/quotes", quotePayload(customerID))
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("create quote: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	return decode[model.Quote](t, w)
}

func TestHealth(t *testing.T) {
	router := setupRouter(t)
	w := doJSON(t, router, nethttp.MethodGet, "/health", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestCustomerLifecycle(t *testing.T) {
	router := setupRouter(t)
	customer := createTestCustomer(t, router)

	w := doJSON(t, router, nethttp.MethodGet, fmt.Sprintf("/customers/%d", customer.ID), nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("get: expected 200 got %d", w.Code)
	}

	w = doJSON(t, router, nethttp.MethodPut, fmt.Sprintf("/customers/%d", customer.ID), map[string]any{
		"email": "orders@nordic.se",
	})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if updated := decode[model.Customer](t, w); updated.Email != "orders@nordic.se" {
		t.Fatalf("patch not applied: %q", updated.Email)
	}

	w = doJSON(t, router, nethttp.MethodDelete, fmt.Sprintf("/customers/%d", customer.ID), nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("delete: expected 200 got %d", w.Code)
	}

	w = doJSON(t, router, nethttp.MethodGet, fmt.Sprintf("/customers/%d", customer.ID), nil)
	if w.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", w.Code)
	}
}

func TestCustomerValidation(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, nethttp.MethodPost, "/customers", map[string]any{
		"company_name":   "No Mail AB",
		"contact_person": "Nils",
		"email":          "not-an-email",
	})
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}

	w = doJSON(t, router, nethttp.MethodPost, "/customers", map[string]any{"company_name": "Partial"})
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields got %d", w.Code)
	}
}

func TestCustomerDeleteConflict(t *testing.T) {
	router := setupRouter(t)
	customer := createTestCustomer(t, router)
	createTestQuote(t, router, customer.ID)

	w := doJSON(t, router, nethttp.MethodDelete, fmt.Sprintf("/customers/%d", customer.ID), nil)
	if w.Code != nethttp.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestQuoteLifecycle(t *testing.T) {
	router := setupRouter(t)
	customer := createTestCustomer(t, router)
	quote := createTestQuote(t, router, customer.ID)

	if quote.Status != model.QuoteStatusDraft {
		t.Fatalf("expected draft got %q", quote.Status)
	}

	w := doJSON(t, router, nethttp.MethodGet, fmt.Sprintf("/quotes/%d", quote.ID), nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("get: expected 200 got %d", w.Code)
	}
	fetched := decode[model.Quote](t, w)
	if fetched.ProductSpec == nil || fetched.CommunicationContext == nil || fetched.Customer == nil {
		t.Fatalf("relations missing: %s", w.Body.String())
	}

	w = doJSON(t, router, nethttp.MethodPut, fmt.Sprintf("/quotes/%d", quote.ID), map[string]any{
		"status": "approved",
	})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("update: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if updated := decode[model.Quote](t, w); updated.Status != model.QuoteStatusApproved {
		t.Fatalf("status not updated: %q", updated.Status)
	}

	w = doJSON(t, router, nethttp.MethodDelete, fmt.Sprintf("/quotes/%d", quote.ID), nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("delete: expected 200 got %d", w.Code)
	}
	w = doJSON(t, router, nethttp.MethodGet, fmt.Sprintf("/quotes/%d", quote.ID), nil)
	if w.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", w.Code)
	}
}

func TestQuoteCreateUnknownCustomer(t *testing.T) {
	router := setupRouter(t)
	w := doJSON(t, router, nethttp.MethodPost, "/quotes", quotePayload(999))
	if w.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestPredictPriceEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, nethttp.MethodPost, "/quotes/predict-price", map[string]any{
		"product_specs": quotePayload(1)["product_specs"],
	})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	result := decode[map[string]float64](t, w)
	if result["predicted_price"] < 0 {
		t.Fatalf("negative price %f", result["predicted_price"])
	}
	if result["confidence"] != 0.85 {
		t.Fatalf("unexpected confidence %f", result["confidence"])
	}
}

func TestPredictPriceRejectsUnknownAlloy(t *testing.T) {
	router := setupRouter(t)

	specs := quotePayload(1)["product_specs"].(map[string]any)
	specs["alloy"] = "7075"
	w := doJSON(t, router, nethttp.MethodPost, "/quotes/predict-price", map[string]any{"product_specs": specs})
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestGenerateQuoteEndpoint(t *testing.T) {
	router := setupRouter(t)
	customer := createTestCustomer(t, router)

	payload := quotePayload(customer.ID)
	delete(payload, "title")
	w := doJSON(t, router, nethttp.MethodPost, "/quotes/generate", payload)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	result := decode[map[string]any](t, w)
	if result["status"] != "success" {
		t.Fatalf("unexpected status %v", result["status"])
	}
	if result["quote_text"] != "This is a test quote text" {
		t.Fatalf("unexpected quote text %v", result["quote_text"])
	}
}

func TestQuotePDFEndpoint(t *testing.T) {
	router := setupRouter(t)
	customer := createTestCustomer(t, router)
	quote := createTestQuote(t, router, customer.ID)

	w := doJSON(t, router, nethttp.MethodGet, fmt.Sprintf("/quotes/%d/pdf", quote.ID), nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a pdf")
	}
}

func TestExcelExportEndpoint(t *testing.T) {
	router := setupRouter(t)
	customer := createTestCustomer(t, router)
	createTestQuote(t, router, customer.ID)

	w := doJSON(t, router, nethttp.MethodGet, "/quotes/export/excel", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty workbook")
	}
}

func TestModelInfoEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, nethttp.MethodGet, "/quotes/model-info", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	info := decode[map[string]any](t, w)
	if info["model_type"] != "GradientBoostingRegressor" {
		t.Fatalf("unexpected model type %v", info["model_type"])
	}
}

func uploadRequest(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestFileUploadAndProcess(t *testing.T) {
	router := setupRouter(t)

	body, contentType := uploadRequest(t, "notes.txt", []byte("anodized profiles needed by June"))
	req := httptest.NewRequest(nethttp.MethodPost, "/quotes/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("upload: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	uploaded := decode[map[string]string](t, w)

	w2 := doJSON(t, router, nethttp.MethodPost, "/quotes/files/process", map[string]any{
		"file_path": uploaded["file_path"],
	})
	if w2.Code != nethttp.StatusOK {
		t.Fatalf("process: expected 200 got %d body=%s", w2.Code, w2.Body.String())
	}
	result := decode[map[string]any](t, w2)
	extracted, ok := result["extracted_context"].(map[string]any)
	if !ok {
		t.Fatalf("missing extracted context: %s", w2.Body.String())
	}
	if extracted["extracted_urgency"] != "medium" {
		t.Fatalf("unexpected urgency %v", extracted["extracted_urgency"])
	}
}

func TestFileUploadRejectsBadExtension(t *testing.T) {
	router := setupRouter(t)

	body, contentType := uploadRequest(t, "malware.exe", []byte("nope"))
	req := httptest.NewRequest(nethttp.MethodPost, "/quotes/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestFileUploadRejectsOversizedPayload(t *testing.T) {
	router := setupRouter(t)

	body, contentType := uploadRequest(t, "big.txt", bytes.Repeat([]byte("a"), 1<<20+1))
	req := httptest.NewRequest(nethttp.MethodPost, "/quotes/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != nethttp.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", w.Code)
	}
}

func TestFileUploadOversizedBadTypeIsTypeError(t *testing.T) {
	router := setupRouter(t)

	body, contentType := uploadRequest(t, "huge.exe", bytes.Repeat([]byte("a"), 1<<20+1))
	req := httptest.NewRequest(nethttp.MethodPost, "/quotes/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "file type not allowed") {
		t.Fatalf("expected type rejection, got %s", w.Body.String())
	}
}

func TestFileDownloadAndDelete(t *testing.T) {
	router := setupRouter(t)

	body, contentType := uploadRequest(t, "doc.txt", []byte("stored content"))
	req := httptest.NewRequest(nethttp.MethodPost, "/quotes/files/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("upload failed: %d", w.Code)
	}
	uploaded := decode[map[string]string](t, w)
	stored := filepath.Base(uploaded["file_path"])

	w2 := doJSON(t, router, nethttp.MethodGet, "/quotes/files/download/"+stored, nil)
	if w2.Code != nethttp.StatusOK {
		t.Fatalf("download: expected 200 got %d", w2.Code)
	}
	if w2.Body.String() != "stored content" {
		t.Fatalf("unexpected body %q", w2.Body.String())
	}

	w3 := doJSON(t, router, nethttp.MethodDelete, "/quotes/files/"+stored, nil)
	if w3.Code != nethttp.StatusOK {
		t.Fatalf("delete: expected 200 got %d", w3.Code)
	}
	w4 := doJSON(t, router, nethttp.MethodGet, "/quotes/files/download/"+stored, nil)
	if w4.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404 after delete got %d", w4.Code)
	}
}
