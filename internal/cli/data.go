package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	yaml "github.com/goccy/go-yaml"
	"github.com/philip-sorokin/word-template-engine/pkg/document"
)

// RenderSpec is a declarative description of one generation run, loaded from
// a JSON, YAML or TOML values file.
type RenderSpec struct {
	// UseSection truncates the document to one section before anything
	// else runs. Zero keeps every section.
	UseSection int `json:"use_section" yaml:"use_section" toml:"use_section"`
	// RepeatDocument duplicates the whole document this many times.
	RepeatDocument int `json:"repeat_document" yaml:"repeat_document" toml:"repeat_document"`
	// RepeatSections duplicates single sections.
	RepeatSections []SectionRepeat `json:"repeat_sections" yaml:"repeat_sections" toml:"repeat_sections"`
	// Rows replicates table rows and fills the per-instance values.
	Rows []RowSpec `json:"rows" yaml:"rows" toml:"rows"`
	// Values maps placeholder names to their replacement text.
	Values map[string]string `json:"values" yaml:"values" toml:"values"`
	// Properties sets core/extended metadata fields.
	Properties map[string]string `json:"properties" yaml:"properties" toml:"properties"`
	// Images maps authored image identifiers to replacement files.
	Images map[string]string `json:"images" yaml:"images" toml:"images"`
	// DeleteImages lists authored image identifiers to remove.
	DeleteImages []string `json:"delete_images" yaml:"delete_images" toml:"delete_images"`
}

// SectionRepeat duplicates section Index Count times.
type SectionRepeat struct {
	Index int `json:"index" yaml:"index" toml:"index"`
	Count int `json:"count" yaml:"count" toml:"count"`
}

// RowSpec replicates the rows containing placeholder Name once per item; the
// engine renames the clones' placeholders with #1..#n suffixes, so item i's
// keys become "key#i".
type RowSpec struct {
	Name  string              `json:"name" yaml:"name" toml:"name"`
	Items []map[string]string `json:"items" yaml:"items" toml:"items"`
}

// LoadRenderSpec parses a values file by extension.
func LoadRenderSpec(path string) (*RenderSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading values file: %w", err)
	}
	var spec RenderSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &spec)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &spec)
	case ".toml":
		err = toml.Unmarshal(data, &spec)
	default:
		return nil, fmt.Errorf("values file %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing values file %s: %w", path, err)
	}
	return &spec, nil
}

// Apply runs the spec against a loaded document. Structural operations run
// first: the placeholder index has no automatic invalidation, so sections
// must be settled before substitution relies on indexed paragraphs.
func (s *RenderSpec) Apply(doc *document.Document) error {
	if s.UseSection > 0 {
		if err := doc.UseSection(s.UseSection); err != nil {
			return err
		}
	}
	if s.RepeatDocument > 0 {
		if err := doc.Repeat(s.RepeatDocument); err != nil {
			return err
		}
	}
	for _, rep := range s.RepeatSections {
		if err := doc.RepeatSection(rep.Index, rep.Count); err != nil {
			return err
		}
	}

	// All rows clone before the first substitution: SetValue builds the
	// paragraph index lazily and cloning never re-indexes, so a later
	// CloneRow would leave its #i clones invisible to lookups.
	for _, row := range s.Rows {
		doc.CloneRow(row.Name, len(row.Items))
	}
	for _, row := range s.Rows {
		for i, item := range row.Items {
			for key, value := range item {
				doc.SetValue(fmt.Sprintf("%s#%d", key, i+1), value)
			}
		}
	}

	for name, value := range s.Values {
		doc.SetValue(name, value)
	}
	for name, value := range s.Properties {
		doc.SetProperty(name, value)
	}

	for id, path := range s.Images {
		if err := doc.ReplaceImage(id, path); err != nil {
			return err
		}
	}
	for _, id := range s.DeleteImages {
		if err := doc.DeleteImage(id); err != nil {
			return err
		}
	}
	return nil
}
