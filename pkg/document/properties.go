package document

import (
	"sort"

	"go.uber.org/zap"
)

// SetProperty sets a core or extended metadata property by its local element
// name ("title", "creator", "Company", ...). Unknown properties are ignored
// with a warning; metadata edits are plain key/value writes, never part of
// the editing engine proper.
func (d *Document) SetProperty(name, value string) {
	for _, part := range []*Part{d.core, d.app} {
		if part == nil {
			continue
		}
		if node := findProperty(part.Root, name); node != nil {
			node.Text = value
			node.Children = nil
			return
		}
	}
	d.log.Warn("metadata property not present in package",
		zap.String("session", d.id),
		zap.String("name", name))
}

func findProperty(root *Node, local string) *Node {
	if root.Local() == local {
		return root
	}
	return root.FindFirst(local)
}

// PlaceholderNames lists every placeholder name indexed against paragraphs,
// sorted. Useful for template inspection; building the list builds the
// paragraph index.
func (d *Document) PlaceholderNames() []string {
	names := d.knownNames(lookupParagraph)
	sort.Strings(names)
	return names
}

// RowPlaceholderNames lists every placeholder name indexed against table
// rows, sorted.
func (d *Document) RowPlaceholderNames() []string {
	names := d.knownNames(lookupRow)
	sort.Strings(names)
	return names
}

// PlaceholderParagraphCount returns how many paragraphs contain the named
// placeholder.
func (d *Document) PlaceholderParagraphCount(name string) int {
	return len(d.lookupParagraphs(name))
}

// PlaceholderRowCount returns how many table rows contain the named
// placeholder.
func (d *Document) PlaceholderRowCount(name string) int {
	return len(d.lookupRows(name))
}
