package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/history"
	"github.com/efebarandurmaz/ontometer/internal/loader"
	"github.com/efebarandurmaz/ontometer/internal/observability"
	"github.com/efebarandurmaz/ontometer/internal/report"
	"github.com/efebarandurmaz/ontometer/internal/server"
)

const pizzaOntology = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/pizza/> .

ex:Food a owl:Class .
ex:Pizza a owl:Class ; rdfs:subClassOf ex:Food .
ex:Topping a owl:Class ; rdfs:subClassOf ex:Food .
ex:hasTopping a owl:ObjectProperty .
`

func newTestServer(t *testing.T) (*Server, *history.Store) {
	t.Helper()
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	metrics := observability.NewMetrics()
	svc := evaluation.NewService(evaluation.ServiceOptions{
		Loader:  loader.New(loader.Options{ResolveImports: true, RemoteOnly: true}),
		Store:   store,
		Metrics: metrics,
	})
	srv := NewServer(Options{
		Assessor: svc,
		History:  store,
		Metrics:  metrics,
		Health:   server.NewHealthServer(nil),
	})
	return srv, store
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile(fieldFile, fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, h http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAssess_MultipartUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartBody(t, map[string]string{fieldKeyword: "pizza"}, "pizza.ttl", pizzaOntology)
	w := do(t, srv, http.MethodPost, "/api/assess", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var a evaluation.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "pizza.ttl", a.Source)
	assert.Equal(t, "pizza", a.Keyword)
	assert.Equal(t, 6, a.Triples)
	assert.Equal(t, 3, a.Structural.Classes)

	depth, ok := a.Report.Get(report.KeyInheritanceDepth)
	require.True(t, ok)
	assert.EqualValues(t, 2, depth)
}

func TestAssess_JSONBody(t *testing.T) {
	srv, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"source": ""}`)
	w := do(t, srv, http.MethodPost, "/api/assess", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "required")
}

func TestAssess_LoadFailure(t *testing.T) {
	srv, _ := newTestServer(t)
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	body := bytes.NewBufferString(`{"source": "` + missing.URL + `/ontology.ttl"}`)
	w := do(t, srv, http.MethodPost, "/api/assess", body, "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

const privateOntology = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix ex: <http://example.org/private/> .

ex:SecretProject a owl:Class .
`

func writePrivate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "private.ttl")
	require.NoError(t, os.WriteFile(path, []byte(privateOntology), 0o600))
	return path
}

func TestAssess_RejectsLocalSources(t *testing.T) {
	srv, _ := newTestServer(t)
	path := writePrivate(t)

	for _, body := range []string{
		`{"source": "` + path + `"}`,
		`{"source": "file://` + path + `"}`,
		`{"ontology_url": "` + path + `"}`,
	} {
		w := do(t, srv, http.MethodPost, "/api/assess", bytes.NewBufferString(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "http(s) URL")
		assert.NotContains(t, w.Body.String(), "SecretProject")
	}

	form, ct := multipartBody(t, map[string]string{fieldSource: path}, "", "")
	w := do(t, srv, http.MethodPost, "/api/assess", form, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssess_UploadCannotImportLocalFiles(t *testing.T) {
	srv, _ := newTestServer(t)
	path := writePrivate(t)

	upload := pizzaOntology + "\n<http://example.org/pizza> a owl:Ontology ; owl:imports <file://" + path + "> .\n"
	body, ct := multipartBody(t, nil, "pizza.ttl", upload)
	w := do(t, srv, http.MethodPost, "/api/assess", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "SecretProject")

	var a evaluation.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, 3, a.Structural.Classes)
}

func TestAssess_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/assess", bytes.NewBufferString("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/assess", bytes.NewBufferString("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported content type")

	w = do(t, srv, http.MethodGet, "/api/assess", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAssess_BodyTooLarge(t *testing.T) {
	srv := NewServer(Options{
		Assessor:       evaluation.NewService(evaluation.ServiceOptions{}),
		MaxUploadBytes: 64,
	})

	body := bytes.NewBufferString(`{"source": "` + strings.Repeat("a", 200) + `"}`)
	w := do(t, srv, http.MethodPost, "/api/assess", body, "application/json")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAssess_FormFallsBackToOntologyURL(t *testing.T) {
	var got evaluation.Request
	srv := NewServer(Options{Assessor: assessorFunc(func(_ context.Context, req evaluation.Request) (*evaluation.Assessment, error) {
		got = req
		return &evaluation.Assessment{ID: "x"}, nil
	})})

	body, ct := multipartBody(t, map[string]string{
		fieldOntologyURL: " http://example.org/onto/pizza.ttl ",
		fieldKeyword:     "pizza",
	}, "", "")
	w := do(t, srv, http.MethodPost, "/api/assess", body, ct)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://example.org/onto/pizza.ttl", got.Source)
	assert.Equal(t, "http://example.org/onto/pizza.ttl", got.OntologyURL)
	assert.Empty(t, got.Upload)
}

type assessorFunc func(ctx context.Context, req evaluation.Request) (*evaluation.Assessment, error)

func (f assessorFunc) Assess(ctx context.Context, req evaluation.Request) (*evaluation.Assessment, error) {
	return f(ctx, req)
}

func TestAssessments_ListGetReportDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartBody(t, nil, "pizza.ttl", pizzaOntology)
	w := do(t, srv, http.MethodPost, "/api/assess", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created evaluation.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = do(t, srv, http.MethodGet, "/api/assessments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []history.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, created.ID, summaries[0].ID)

	w = do(t, srv, http.MethodGet, "/api/assessments/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched evaluation.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	w = do(t, srv, http.MethodGet, "/api/assessments/"+created.ID+"/report?format=yaml", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &doc))
	require.NotEmpty(t, doc.Content)
	assert.Equal(t, report.KeyRelationshipRichness, doc.Content[0].Content[0].Value)

	w = do(t, srv, http.MethodGet, "/api/assessments/"+created.ID+"/report?format=xml", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodDelete, "/api/assessments/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodGet, "/api/assessments/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, srv, http.MethodDelete, "/api/assessments/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssessments_ListEmptyAndLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/assessments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = do(t, srv, http.MethodGet, "/api/assessments?limit=zero", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingHistory struct{}

func (failingHistory) Get(context.Context, string) (*evaluation.Assessment, error) {
	return nil, errors.New("disk I/O error")
}
func (failingHistory) List(context.Context, string, int) ([]history.Summary, error) {
	return nil, errors.New("disk I/O error")
}
func (failingHistory) Delete(context.Context, string) error { return errors.New("disk I/O error") }

func TestAssessments_HistoryErrors(t *testing.T) {
	srv := NewServer(Options{Assessor: assessorFunc(nil), History: failingHistory{}})

	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodGet, "/api/assessments", nil, "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodGet, "/api/assessments/a", nil, "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodDelete, "/api/assessments/a", nil, "").Code)

	noHistory := NewServer(Options{Assessor: assessorFunc(nil)})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, noHistory, http.MethodGet, "/api/assessments", nil, "").Code)
}

func TestMetricsAndHealthRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartBody(t, nil, "pizza.ttl", pizzaOntology)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/assess", body, ct).Code)

	w := do(t, srv, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ontometer_assessments_total{result="success"} 1`)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/live", nil, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/ready", nil, "").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := NewServer(Options{Assessor: assessorFunc(func(context.Context, evaluation.Request) (*evaluation.Assessment, error) {
		panic("boom")
	})})

	body := bytes.NewBufferString(`{"source": "x.ttl"}`)
	w := do(t, srv, http.MethodPost, "/api/assess", body, "application/json")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	var seen string
	srv := NewServer(Options{Assessor: assessorFunc(func(ctx context.Context, _ evaluation.Request) (*evaluation.Assessment, error) {
		seen = RequestID(ctx)
		return &evaluation.Assessment{}, nil
	})})

	req := httptest.NewRequest(http.MethodPost, "/api/assess", bytes.NewBufferString(`{"source": "x.ttl"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-7")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "req-7", seen)
	assert.Equal(t, "req-7", w.Header().Get("X-Request-Id"))
}
