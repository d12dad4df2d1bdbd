package api

import (
	"bytes"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soochol/hydrahunt/internal/config"
	"github.com/soochol/hydrahunt/internal/extract"
	"github.com/soochol/hydrahunt/internal/parse"
	"github.com/soochol/hydrahunt/internal/repository"
	"github.com/soochol/hydrahunt/internal/resume"
	"github.com/soochol/hydrahunt/internal/services"
	"github.com/soochol/hydrahunt/internal/storage"
)

const sampleResume = "John Smith. Email: john@x.com, Phone: 555-123-4567. Experienced with Python and Docker."

func newTestServer(t *testing.T) *Server {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	limiter := services.NewParseLimiter(2)
	svc := services.NewImportService(extract.New(), parse.NewParser(nil), files, repository.NewMemoryImportRepository(), limiter)
	srv := NewServer(svc, files)
	srv.SetParseLimiter(limiter)
	return srv
}

type part struct {
	field, filename string
	data            []byte
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestAPI_ServeFileNeverInline(t *testing.T) {
	srv := newTestServer(t)
	page := []byte(`<html><body><h1>Jane Doe</h1><p>Go engineer</p><script>alert(document.cookie)</script></body></html>`)
	w := serve(srv, multipartRequest(t, "/api/resumes/upload", part{"file", `cv "final".html`, page}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec resume.ImportRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))

	w = serve(srv, httptest.NewRequest("GET", "/api/files/"+rec.FileID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	disposition := w.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment;"), disposition)
	_, params, err := mime.ParseMediaType(disposition)
	require.NoError(t, err)
	assert.Equal(t, `cv "final".html`, params["filename"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "sandbox")
}

func TestAPI_Healthz(t *testing.T) {
	w := serve(newTestServer(t), httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
}

func TestAPI_UploadResume(t *testing.T) {
	srv := newTestServer(t)
	w := serve(srv, multipartRequest(t, "/api/resumes/upload", part{"file", "john.txt", []byte(sampleResume)}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec resume.ImportRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "john.txt", rec.Filename)
	assert.Equal(t, sampleResume, rec.TextPreview)
	assert.Equal(t, resume.SourceHeuristic, rec.ParseSource)
	assert.Equal(t, "John Smith", rec.Resume.FullName)
	assert.Contains(t, w.Body.String(), `"raw_text"`)

	// The import is listed, readable and its source file downloadable.
	w = serve(srv, httptest.NewRequest("GET", "/api/imports", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []resume.ImportRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = serve(srv, httptest.NewRequest("GET", "/api/imports/"+rec.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(srv, httptest.NewRequest("GET", "/api/files/"+rec.FileID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sampleResume, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "john.txt")
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))

	w = serve(srv, httptest.NewRequest("DELETE", "/api/imports/"+rec.ID, nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	w = serve(srv, httptest.NewRequest("GET", "/api/imports/"+rec.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_UploadUnreadable(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		filename string
		data     []byte
		kind     string
	}{
		{"empty.pdf", []byte{}, "decode_failure"},
		{"broken.docx", []byte("garbage"), "decode_failure"},
		{"short.txt", []byte("hey"), "empty_or_too_short"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			w := serve(srv, multipartRequest(t, "/api/resumes/upload", part{"file", tt.filename, tt.data}))
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "file empty or unreadable, try again", resp.Error)
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}
}

func TestAPI_UploadMissingField(t *testing.T) {
	w := serve(newTestServer(t), multipartRequest(t, "/api/resumes/upload", part{"document", "john.txt", []byte(sampleResume)}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/api/resumes/upload", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	w = serve(newTestServer(t), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_UploadTooLarge(t *testing.T) {
	srv := newTestServer(t)
	srv.SetMaxUploadSize(1024)
	w := serve(srv, multipartRequest(t, "/api/resumes/upload", part{"file", "big.txt", bytes.Repeat([]byte("a"), 4096)}))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, w.Code)
}

func TestAPI_Extract(t *testing.T) {
	w := serve(newTestServer(t), multipartRequest(t, "/api/extract", part{"file", "cv.md", []byte("# Jane Doe\nGo engineer")}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res extract.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "# Jane Doe\nGo engineer", res.Text)
	assert.Equal(t, extract.FormatPlainText, res.Format)
}

func TestAPI_ExtractBatch(t *testing.T) {
	w := serve(newTestServer(t), multipartRequest(t, "/api/extract/batch",
		part{"files", "a.txt", []byte("first resume text")},
		part{"files", "b.pdf", []byte("not a pdf at all")},
		part{"files", "c.txt", []byte("third resume text")},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var items []batchItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.Equal(t, "a.txt", items[0].Filename)
	assert.Equal(t, "first resume text", items[0].Text)
	assert.Equal(t, "b.pdf", items[1].Filename)
	assert.Equal(t, "decode_failure", items[1].Kind)
	assert.Empty(t, items[1].Text)
	assert.Equal(t, "third resume text", items[2].Text)
}

func TestAPI_NotFound(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/imports/nope", "/api/files/nope"} {
		w := serve(srv, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := serve(srv, httptest.NewRequest("DELETE", "/api/imports/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Providers(t *testing.T) {
	srv := newTestServer(t)
	srv.SetProviderConfigs(map[string]config.ProviderConfig{
		"gemini": {Type: "gemini", APIKey: "secret", Model: "gemini-2.0-flash"},
		"local":  {Type: "openai", URL: "http://localhost:11434/v1"},
	}, "gemini")

	w := serve(srv, httptest.NewRequest("GET", "/api/providers", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")

	var resp providersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Providers, 2)
	assert.Equal(t, "gemini", resp.Providers[0].Name)
	assert.True(t, resp.Providers[0].Active)
	assert.False(t, resp.Providers[1].Active)
	require.NotNil(t, resp.Parser)
	assert.Equal(t, 2, resp.Parser.Max)
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusUnsupportedMediaType, statusForKind(extract.KindUnsupportedFormat))
	assert.Equal(t, http.StatusServiceUnavailable, statusForKind(extract.KindCapabilityLoadFailure))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind(extract.KindDecodeFailure))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind(extract.KindEmptyOrTooShort))
}
