package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/finsight-labs/reportqa-core/internal/core/domain"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven"
	"github.com/finsight-labs/reportqa-core/internal/core/ports/driven/mocks"
	"github.com/finsight-labs/reportqa-core/internal/core/services"
	"github.com/finsight-labs/reportqa-core/internal/files"
	"github.com/finsight-labs/reportqa-core/internal/index"
	"github.com/finsight-labs/reportqa-core/internal/runtime"
)

type serverTestEnv struct {
	server    *Server
	embedding *mocks.MockEmbeddingService
	llm       *mocks.MockLLMService
	store     *mocks.MockIndexStore
	loader    *mocks.MockDocumentLoader
	registry  *runtime.Registry
	fileStore *files.Store
	fileDir   string
}

func newTestServer(t *testing.T) *serverTestEnv {
	t.Helper()

	registry := runtime.NewRegistry()
	embedding := mocks.NewMockEmbeddingService()
	llm := mocks.NewMockLLMService()
	store := mocks.NewMockIndexStore()
	docLoader := mocks.NewMockDocumentLoader()

	chunker, err := services.NewChunker(1000, 200)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}
	retriever := services.NewRetriever(registry, embedding)
	synthesizer := services.NewAnswerSynthesizer(llm, nil)
	ingestService := services.NewIngestService(chunker, embedding, store, docLoader, nil, registry, nil)
	queryService := services.NewQueryService(registry, retriever, synthesizer, nil, 5, time.Minute, nil)

	fileDir := t.TempDir()
	fileStore, err := files.NewStore(fileDir)
	if err != nil {
		t.Fatalf("files.NewStore() error = %v", err)
	}

	cfg := Config{Host: "127.0.0.1", Port: 0, Version: "test"}
	server := NewServer(cfg, queryService, ingestService, fileStore, nil, nil)

	return &serverTestEnv{
		server:    server,
		embedding: embedding,
		llm:       llm,
		store:     store,
		loader:    docLoader,
		registry:  registry,
		fileStore: fileStore,
		fileDir:   fileDir,
	}
}

func (env *serverTestEnv) addYear(t *testing.T, year int, texts []string) {
	t.Helper()
	vectors := make([][]float32, len(texts))
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		vs, err := env.embedding.Embed(context.Background(), []string{text})
		if err != nil {
			t.Fatalf("Embed() error = %v", err)
		}
		vectors[i] = vs[0]
		chunks[i] = domain.Chunk{ID: text, Year: year, Position: i, Text: text}
	}
	ix, err := index.Build(year, env.embedding.Model(), env.embedding.Dimensions(), vectors, chunks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	env.registry.Set(year, ix)
}

func (env *serverTestEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestHandleVersion(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["version"] != "test" {
		t.Errorf("version = %q, want test", body["version"])
	}
}

func TestHandleQuery_SingleYear(t *testing.T) {
	env := newTestServer(t)
	env.addYear(t, 2023, []string{"Revenue was $120M."})
	env.llm.SetResponse("Revenue was $120M.")

	rec := env.do(t, http.MethodPost, "/api/v1/query", QueryRequest{
		Query: "What was the revenue?",
		Year:  2023,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Query      string           `json:"query"`
		SearchMode string           `json:"search_mode"`
		Year       int              `json:"year"`
		Result     *domain.QAResult `json:"result"`
	}
	decodeBody(t, rec, &body)
	if body.SearchMode != "single_year" || body.Year != 2023 {
		t.Errorf("search_mode = %q, year = %d", body.SearchMode, body.Year)
	}
	if body.Result == nil || body.Result.Answer != "Revenue was $120M." {
		t.Errorf("result = %+v", body.Result)
	}
}

func TestHandleQuery_AllYears(t *testing.T) {
	env := newTestServer(t)
	env.addYear(t, 2022, []string{"Revenue was $100M."})
	env.addYear(t, 2023, []string{"Revenue was $120M."})
	env.llm.SetResponse("An answer.")

	rec := env.do(t, http.MethodPost, "/api/v1/query", QueryRequest{
		Query:    "What was the revenue?",
		AllYears: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		SearchMode string                      `json:"search_mode"`
		Results    map[string]*domain.QAResult `json:"results"`
	}
	decodeBody(t, rec, &body)
	if body.SearchMode != "all_years" {
		t.Errorf("search_mode = %q", body.SearchMode)
	}
	if len(body.Results) != 2 {
		t.Errorf("got %d results, want 2", len(body.Results))
	}
}

func TestHandleQuery_Errors(t *testing.T) {
	env := newTestServer(t)
	env.addYear(t, 2023, []string{"Revenue was $120M."})

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"missing year", QueryRequest{Query: "What was the revenue?"}, http.StatusBadRequest},
		{"empty query", QueryRequest{Query: "", Year: 2023}, http.StatusBadRequest},
		{"unknown year", QueryRequest{Query: "What was the revenue?", Year: 1999}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/query", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleQuery_EmbeddingOutage(t *testing.T) {
	env := newTestServer(t)
	env.addYear(t, 2023, []string{"Revenue was $120M."})
	env.embedding.SetFailNext(true)

	rec := env.do(t, http.MethodPost, "/api/v1/query", QueryRequest{
		Query: "What was the revenue?",
		Year:  2023,
	})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleStats(t *testing.T) {
	env := newTestServer(t)
	env.addYear(t, 2023, []string{"a", "b"})

	rec := env.do(t, http.MethodGet, "/api/v1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats domain.Stats
	decodeBody(t, rec, &stats)
	if stats.TotalYears != 1 || stats.TotalChunks != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHandleYears(t *testing.T) {
	env := newTestServer(t)
	env.addYear(t, 2021, []string{"a"})
	env.addYear(t, 2023, []string{"b"})

	rec := env.do(t, http.MethodGet, "/api/v1/years", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string][]int
	decodeBody(t, rec, &body)
	years := body["years"]
	if len(years) != 2 || years[0] != 2021 || years[1] != 2023 {
		t.Errorf("years = %v", years)
	}
}

func TestHandleIngest(t *testing.T) {
	env := newTestServer(t)

	path, err := env.fileStore.Save("report_2023.txt", 4, strings.NewReader("text"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	env.loader.SetPages(path, []driven.PageText{
		{Source: "report_2023.txt", Page: 1, Text: "Revenue was $120M."},
	})

	rec := env.do(t, http.MethodPost, "/api/v1/ingest", IngestRequest{Year: 2023, File: "report_2023.txt"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if _, ok := env.registry.Get(2023); !ok {
		t.Error("ingested year not registered")
	}
	if env.store.SaveCalls() != 1 {
		t.Errorf("SaveCalls() = %d, want 1", env.store.SaveCalls())
	}
}

func TestHandleIngest_Validation(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		name       string
		body       IngestRequest
		wantStatus int
	}{
		{"missing year", IngestRequest{File: "report.txt"}, http.StatusBadRequest},
		{"missing file", IngestRequest{Year: 2023}, http.StatusBadRequest},
		{"unknown file", IngestRequest{Year: 2023, File: "nope.txt"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/ingest", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandleUpload(t *testing.T) {
	env := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "annual_report_2023.txt")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte("Revenue was $120M.")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	decodeBody(t, rec, &resp)
	if resp.File != "annual_report_2023.txt" {
		t.Errorf("file = %q", resp.File)
	}
	if resp.SuggestedYear != 2023 {
		t.Errorf("suggested_year = %d, want 2023", resp.SuggestedYear)
	}

	if _, err := env.fileStore.Path("annual_report_2023.txt"); err != nil {
		t.Errorf("uploaded file not stored: %v", err)
	}
}

func TestHandleUpload_MissingFileField(t *testing.T) {
	env := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFiles_ListAndDelete(t *testing.T) {
	env := newTestServer(t)

	if _, err := env.fileStore.Save("report_2023.txt", 4, strings.NewReader("text")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/files", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var listing struct {
		Files []files.FileInfo `json:"files"`
		Count int              `json:"count"`
	}
	decodeBody(t, rec, &listing)
	if listing.Count != 1 || len(listing.Files) != 1 || listing.Files[0].Name != "report_2023.txt" {
		t.Errorf("listing = %+v", listing)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/files/report_2023.txt", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/files/report_2023.txt", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing status = %d, want 404", rec.Code)
	}
}

func TestHandleFiles_Cleanup(t *testing.T) {
	env := newTestServer(t)

	if _, err := env.fileStore.Save("report_2023.txt", 4, strings.NewReader("text")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// A disallowed file placed in the upload directory out of band.
	if err := os.WriteFile(filepath.Join(env.fileDir, "stray.exe"), []byte("MZ"), 0o644); err != nil {
		t.Fatalf("plant file: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/files/cleanup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result files.CleanupResult
	decodeBody(t, rec, &result)
	if result.TotalCleaned != 1 || len(result.CleanedFiles) != 1 || result.CleanedFiles[0] != "stray.exe" {
		t.Errorf("cleanup result = %+v", result)
	}
	if result.CleanedSize != 2 {
		t.Errorf("cleaned size = %d, want 2", result.CleanedSize)
	}

	// The valid upload survives.
	rec = env.do(t, http.MethodGet, "/api/v1/files", nil)
	var listing struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &listing)
	if listing.Count != 1 {
		t.Errorf("files remaining = %d, want 1", listing.Count)
	}
}

func TestHandleExampleQueries(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/example-queries", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Examples []string `json:"examples"`
	}
	decodeBody(t, rec, &body)
	if len(body.Examples) == 0 {
		t.Fatal("no example queries returned")
	}
	for i, q := range body.Examples {
		if strings.TrimSpace(q) == "" {
			t.Errorf("example %d is blank", i)
		}
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}

func TestRequestTimingHeader(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Header().Get("X-Process-Time") == "" {
		t.Error("missing X-Process-Time header")
	}
}
