// Package emitter streams a generated file as an HTTP response. It is the
// transfer collaborator of the engine: headers and copying only, no document
// knowledge.
package emitter

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/philip-sorokin/word-template-engine/pkg/document"
)

// Emit writes filePath to w with the given content type, disposition
// ("attachment" or "inline") and download file name. Empty contentType falls
// back to the extension's registered type; empty fileName falls back to the
// file's base name.
func Emit(w http.ResponseWriter, filePath, contentType, disposition, fileName string) error {
	if filePath == "" {
		return document.NewError(document.CodeEmptyDestination, "no file to emit")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", filePath, err)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filePath))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if disposition == "" {
		disposition = "attachment"
	}
	if fileName == "" {
		fileName = filepath.Base(filePath)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, fileName))

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("streaming %s: %w", filePath, err)
	}
	return nil
}
