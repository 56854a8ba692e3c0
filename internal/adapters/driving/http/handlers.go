package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finsight-labs/reportqa-core/internal/adapters/driven/loader"
	"github.com/finsight-labs/reportqa-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// QueryRequest is the request body for the query endpoint
// @Description QA query request
type QueryRequest struct {
	Query    string `json:"query" example:"What was the total revenue in 2023?"`
	Year     int    `json:"year,omitempty" example:"2023"`
	AllYears bool   `json:"all_years,omitempty"`
}

// IngestRequest is the request body for the ingest endpoint
// @Description Ingestion request for an uploaded file
type IngestRequest struct {
	Year  int    `json:"year" example:"2023"`
	File  string `json:"file" example:"annual_report_2023.txt"`
	Force bool   `json:"force,omitempty"`
}

// UploadResponse is returned after a successful upload
// @Description Upload result
type UploadResponse struct {
	File          string `json:"file"`
	SuggestedYear int    `json:"suggested_year,omitempty"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks optional infrastructure connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Query endpoints

// handleQuery godoc
// @Summary      Answer a question
// @Description  Answers a natural-language question against one report year, or against all years when all_years is set
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      QueryRequest  true  "Question and target year"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      404      {object}  ErrorResponse  "Year not ingested"
// @Failure      500      {object}  ErrorResponse  "Internal error"
// @Router       /api/v1/query [post]
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AllYears {
		results, err := s.queryService.AnswerAllYears(r.Context(), req.Query)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"query":       req.Query,
			"search_mode": "all_years",
			"results":     results,
		})
		return
	}

	if req.Year == 0 {
		writeError(w, http.StatusBadRequest, "year is required unless all_years is set")
		return
	}

	result, err := s.queryService.AnswerYear(r.Context(), req.Query, req.Year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":       req.Query,
		"search_mode": "single_year",
		"year":        req.Year,
		"result":      result,
	})
}

// handleStats godoc
// @Summary      System statistics
// @Description  Returns available years and chunk counts
// @Tags         Query
// @Produce      json
// @Success      200  {object}  domain.Stats
// @Router       /api/v1/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queryService.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleYears godoc
// @Summary      Available years
// @Description  Returns the years currently available for querying
// @Tags         Query
// @Produce      json
// @Success      200  {object}  map[string][]int
// @Router       /api/v1/years [get]
func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]int{"years": s.ingestService.Years()})
}

// exampleQueries are starter questions shown by clients before a user has
// asked anything.
var exampleQueries = []string{
	"What was the total revenue for the year?",
	"How much did net income change compared to the prior year?",
	"What were the main sources of revenue?",
	"How much was spent on research and development?",
	"What was the gross margin?",
	"What were the operating expenses?",
	"How much cash and cash equivalents were held at year end?",
	"What were the major risk factors mentioned?",
	"How many employees did the company have?",
	"What was the earnings per share?",
}

// handleExampleQueries godoc
// @Summary      Example questions
// @Description  Returns suggested questions clients can offer as starting points
// @Tags         Query
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Router       /api/v1/example-queries [get]
func (s *Server) handleExampleQueries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"examples": exampleQueries})
}

// Ingestion endpoints

// handleIngest godoc
// @Summary      Ingest an uploaded file
// @Description  Chunks, embeds and indexes a previously uploaded file for the given year
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      IngestRequest  true  "File and target year"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      404      {object}  ErrorResponse  "File not found"
// @Failure      409      {object}  ErrorResponse  "Build already in progress"
// @Router       /api/v1/ingest [post]
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Year <= 0 {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}
	if req.File == "" {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	path, err := s.fileStore.Path(req.File)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.ingestService.IngestFile(r.Context(), req.Year, path, req.Force); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ingested"})
}

// handleUpload godoc
// @Summary      Upload a source file
// @Description  Stores a report source file in the upload directory. The file is not ingested until /ingest is called with an explicit year.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Report file (.txt, .json, .pdf)"
// @Success      201   {object}  UploadResponse
// @Failure      400   {object}  ErrorResponse  "Invalid upload"
// @Router       /api/v1/upload [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if _, err := s.fileStore.Save(header.Filename, header.Size, file); err != nil {
		writeDomainError(w, err)
		return
	}

	resp := UploadResponse{File: header.Filename}
	if year, ok := loader.YearFromFilename(header.Filename); ok {
		resp.SuggestedYear = year
	}
	writeJSON(w, http.StatusCreated, resp)
}

// File endpoints

// handleListFiles godoc
// @Summary      List uploaded files
// @Tags         Files
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/files [get]
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.fileStore.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": list, "count": len(list)})
}

// handleDeleteFile godoc
// @Summary      Delete an uploaded file
// @Tags         Files
// @Produce      json
// @Param        name  path      string  true  "File name"
// @Success      200   {object}  StatusResponse
// @Failure      404   {object}  ErrorResponse  "File not found"
// @Router       /api/v1/files/{name} [delete]
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.fileStore.Delete(name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleCleanupFiles godoc
// @Summary      Remove invalid uploaded files
// @Description  Deletes stored files that fail validation, such as disallowed file types placed in the upload directory out of band
// @Tags         Files
// @Produce      json
// @Success      200  {object}  files.CleanupResult
// @Router       /api/v1/files/cleanup [post]
func (s *Server) handleCleanupFiles(w http.ResponseWriter, r *http.Request) {
	result, err := s.fileStore.Cleanup()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clean up files")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Helpers

// writeDomainError maps domain error kinds to HTTP status codes
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrIndexNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBuildInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrEmbeddingService), errors.Is(err, domain.ErrLanguageModel):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
