package cli

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philip-sorokin/word-template-engine/pkg/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.docx")
	require.NoError(t, os.WriteFile(path, minimalPackage(t), 0o644))
	return path
}

func TestRenderHandler(t *testing.T) {
	handler := renderHandler(writeTemplate(t), "out.docx", false, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/render",
		strings.NewReader(`{"values": {"customer": "Ada", "item": "Pens"}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, packageContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="out.docx"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.Bytes()
	_, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	doc, err := document.Load(body, nil)
	require.NoError(t, err)
	assert.Contains(t, documentText(t, doc), "Invoice for Ada")
}

func TestRenderHandlerRejectsGet(t *testing.T) {
	handler := renderHandler(writeTemplate(t), "out.docx", false, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/render", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRenderHandlerRejectsMalformedBody(t *testing.T) {
	handler := renderHandler(writeTemplate(t), "out.docx", false, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render", strings.NewReader("{broken")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderHandlerKeepsArtifacts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := renderHandler(writeTemplate(t), "out.docx", true, zap.New(core))

	req := httptest.NewRequest(http.MethodPost, "/render",
		strings.NewReader(`{"values": {"customer": "Ada"}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("keeping rendered artifact").All()
	require.Len(t, entries, 1)
	path, ok := entries[0].ContextMap()["path"].(string)
	require.True(t, ok)
	assert.FileExists(t, path)
	require.NoError(t, os.Remove(path))
}

func TestRenderHandlerSectionErrorIsUnprocessable(t *testing.T) {
	handler := renderHandler(writeTemplate(t), "out.docx", false, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render",
		strings.NewReader(`{"use_section": 9}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "SECTION_NOT_FOUND")
}
