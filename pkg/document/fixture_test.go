package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const namespaceDecls = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

// mainXML wraps body content in a minimal main document part with a terminal
// section marker.
func mainXML(body string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document %s>
<w:body>
%s
<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>
</w:body>
</w:document>`, namespaceDecls, body))
}

// bareMainXML wraps body content verbatim, without adding a section marker.
func bareMainXML(body string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document %s>
<w:body>
%s
</w:body>
</w:document>`, namespaceDecls, body))
}

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
<Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
<Relationship Id="rId6" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/profile/${profile}" TargetMode="External"/>
</Relationships>`

const corePropsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:creator>Original Author</dc:creator>
<dc:title>Template</dc:title>
</cp:coreProperties>`

const appPropsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
<Company>Initial Company</Company>
</Properties>`

// pngStub stands in for real image bytes; the engine never inspects them.
var pngStub = []byte("\x89PNG\r\n\x1a\nstub")

// packageEntries assembles the archive content of a template whose main body
// is the given XML fragment.
func packageEntries(body string) map[string][]byte {
	return map[string][]byte{
		"word/document.xml":            mainXML(body),
		"word/_rels/document.xml.rels": []byte(documentRelsXML),
		"word/media/image1.png":        pngStub,
		"docProps/core.xml":            []byte(corePropsXML),
		"docProps/app.xml":             []byte(appPropsXML),
	}
}

// buildPackage packs the entries into an in-memory zip archive.
func buildPackage(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// loadPackage builds and loads a template in one step.
func loadPackage(t *testing.T, entries map[string][]byte) *Document {
	t.Helper()
	doc, err := Load(buildPackage(t, entries), zap.NewNop())
	require.NoError(t, err)
	return doc
}

// loadBody loads a template whose body is the given fragment, with the
// default relationships, media and metadata parts around it.
func loadBody(t *testing.T, body string) *Document {
	t.Helper()
	return loadPackage(t, packageEntries(body))
}

// savedEntries saves the document and returns the resulting archive content
// by entry name.
func savedEntries(t *testing.T, d *Document) map[string][]byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, d.Save(&buf))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = content
	}
	return out
}
