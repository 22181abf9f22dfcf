package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/history"
	"github.com/efebarandurmaz/ontometer/internal/loader"
)

// Multipart form fields accepted by POST /api/assess.
const (
	fieldFile        = "ontology_file"
	fieldOntologyURL = "ontology_url"
	fieldKeyword     = "keyword"
	fieldSource      = "source"
)

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	req, err := s.decodeAssessRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeBadRequestResponse(w, err.Error())
		return
	}

	a, err := s.assessor.Assess(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, loader.ErrEmptySource):
			writeBadRequestResponse(w, "ontology_file, source or ontology_url is required")
		case errors.Is(err, loader.ErrLocalSource):
			writeBadRequestResponse(w, err.Error())
		case errors.Is(err, loader.ErrUnsupportedFormat):
			writeErrorResponse(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, a)
}

// decodeAssessRequest accepts the multipart form (file upload plus
// ontology_url and keyword) or a JSON evaluation.Request. Without an
// uploaded file or explicit source, ontology_url is loaded directly.
func (s *Server) decodeAssessRequest(r *http.Request) (evaluation.Request, error) {
	var req evaluation.Request
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			return req, fmt.Errorf("failed to parse multipart form: %w", err)
		}
		req.OntologyURL = strings.TrimSpace(r.FormValue(fieldOntologyURL))
		req.Keyword = strings.TrimSpace(r.FormValue(fieldKeyword))
		req.Source = strings.TrimSpace(r.FormValue(fieldSource))

		file, header, err := r.FormFile(fieldFile)
		switch {
		case err == nil:
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return req, fmt.Errorf("failed to read %s: %w", fieldFile, err)
			}
			req.Upload = data
			req.UploadName = header.Filename
		case !errors.Is(err, http.ErrMissingFile):
			return req, fmt.Errorf("failed to get %s: %w", fieldFile, err)
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("failed to parse form: %w", err)
		}
		req.OntologyURL = strings.TrimSpace(r.FormValue(fieldOntologyURL))
		req.Keyword = strings.TrimSpace(r.FormValue(fieldKeyword))
		req.Source = strings.TrimSpace(r.FormValue(fieldSource))
	default:
		return req, fmt.Errorf("unsupported content type %q", mediaType)
	}

	for field, v := range map[string]string{fieldSource: req.Source, fieldOntologyURL: req.OntologyURL} {
		if v != "" && !loader.IsRemote(v) {
			return req, fmt.Errorf("%s must be an http(s) URL", field)
		}
	}
	if len(req.Upload) == 0 && req.Source == "" {
		req.Source = req.OntologyURL
	}
	return req, nil
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return
	}

	limit := history.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeBadRequestResponse(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	summaries, err := s.history.List(r.Context(), r.URL.Query().Get("source"), limit)
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("failed to list assessments: %v", err))
		return
	}
	if summaries == nil {
		summaries = []history.Summary{}
	}
	writeJSONResponse(w, http.StatusOK, summaries)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*evaluation.Assessment, bool) {
	if s.history == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return nil, false
	}
	id := mux.Vars(r)["id"]
	a, err := s.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeNotFoundResponse(w, fmt.Sprintf("assessment %s not found", id))
		return nil, false
	}
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("failed to load assessment: %v", err))
		return nil, false
	}
	return a, true
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	if a, ok := s.lookup(w, r); ok {
		writeJSONResponse(w, http.StatusOK, a)
	}
}

// handleGetReport returns only the ordered metrics report, as JSON or,
// with ?format=yaml, YAML.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(w, r)
	if !ok {
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSONResponse(w, http.StatusOK, a.Report)
	case "yaml":
		data, err := yaml.Marshal(a.Report)
		if err != nil {
			writeInternalServerErrorResponse(w, fmt.Sprintf("failed to encode report: %v", err))
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		writeBadRequestResponse(w, fmt.Sprintf("unknown format %q", format))
	}
}

func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return
	}
	id := mux.Vars(r)["id"]
	err := s.history.Delete(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeNotFoundResponse(w, fmt.Sprintf("assessment %s not found", id))
		return
	}
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("failed to delete assessment: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
