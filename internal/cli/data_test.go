package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeValuesFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRenderSpecJSON(t *testing.T) {
	path := writeValuesFile(t, "values.json", `{
  "use_section": 2,
  "values": {"name": "Ada"},
  "rows": [{"name": "item", "items": [{"item": "Apples", "price": "2.50"}]}],
  "delete_images": ["7"]
}`)

	spec, err := LoadRenderSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 2, spec.UseSection)
	assert.Equal(t, "Ada", spec.Values["name"])
	require.Len(t, spec.Rows, 1)
	assert.Equal(t, "item", spec.Rows[0].Name)
	require.Len(t, spec.Rows[0].Items, 1)
	assert.Equal(t, "2.50", spec.Rows[0].Items[0]["price"])
	assert.Equal(t, []string{"7"}, spec.DeleteImages)
}

func TestLoadRenderSpecYAML(t *testing.T) {
	path := writeValuesFile(t, "values.yaml", `
repeat_document: 1
values:
  city: Berlin
repeat_sections:
  - index: 1
    count: 2
properties:
  creator: Jane
`)

	spec, err := LoadRenderSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 1, spec.RepeatDocument)
	assert.Equal(t, "Berlin", spec.Values["city"])
	require.Len(t, spec.RepeatSections, 1)
	assert.Equal(t, 1, spec.RepeatSections[0].Index)
	assert.Equal(t, 2, spec.RepeatSections[0].Count)
	assert.Equal(t, "Jane", spec.Properties["creator"])
}

func TestLoadRenderSpecTOML(t *testing.T) {
	path := writeValuesFile(t, "values.toml", `
use_section = 1

[values]
total = "42"

[images]
7 = "new.png"
`)

	spec, err := LoadRenderSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 1, spec.UseSection)
	assert.Equal(t, "42", spec.Values["total"])
	assert.Equal(t, "new.png", spec.Images["7"])
}

func TestLoadRenderSpecUnsupportedExtension(t *testing.T) {
	path := writeValuesFile(t, "values.ini", "x = 1")

	_, err := LoadRenderSpec(path)
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestLoadRenderSpecMissingFile(t *testing.T) {
	_, err := LoadRenderSpec(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "reading values file")
}

func TestLoadRenderSpecMalformed(t *testing.T) {
	path := writeValuesFile(t, "values.json", "{not json")

	_, err := LoadRenderSpec(path)
	assert.ErrorContains(t, err, "parsing values file")
}
