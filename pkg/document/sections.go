package document

import (
	"go.uber.org/zap"
)

// MarkSections scans the body for section-properties markers in document
// order and assigns 1-based indices. Each marker's root — the marker itself
// when it is a direct body child (the final section), otherwise its
// grandparent paragraph — is tagged through a side table so the annotation
// never leaks into serialized output.
func (d *Document) MarkSections() {
	d.sectionRoots = make(map[*Node]int)
	d.sectionOrder = nil
	body := d.body()
	if body == nil {
		return
	}
	idx := 0
	body.Walk(func(n *Node) bool {
		if n.Local() != "sectPr" {
			return true
		}
		idx++
		root := n
		if n.Parent() != body {
			// Earlier sections live inside a paragraph: sectPr sits in the
			// paragraph properties, so the root is the grandparent.
			if gp := grandparent(n); gp != nil {
				root = gp
			}
		}
		d.sectionRoots[root] = idx
		d.sectionOrder = append(d.sectionOrder, root)
		return true
	})
	d.log.Debug("sections marked",
		zap.String("session", d.id),
		zap.Int("count", idx))
}

// SectionCount returns the number of sections, marking them if needed.
func (d *Document) SectionCount() int {
	d.ensureSectionsMarked()
	return len(d.sectionOrder)
}

// UseSection truncates the body to the single section idx (1-based). A body
// child belongs to the section whose marker is the first one at or after it
// in document order. When the surviving marker is not a direct body child,
// it is promoted out of its wrapping paragraph so the document keeps a
// well-formed terminal section marker.
//
// Section operations restructure the body; run them before relying on a
// placeholder index built against the pre-mutation structure.
func (d *Document) UseSection(idx int) error {
	d.ensureSectionsMarked()
	if idx < 1 || idx > len(d.sectionOrder) {
		return d.fail(sectionNotFound(idx))
	}
	body := d.body()

	// Reverse walk: crossing a tagged root updates the active section for
	// everything encountered earlier in document order.
	active := 0
	for i := len(body.Children) - 1; i >= 0; i-- {
		child := body.Children[i]
		if tag, ok := d.sectionRoots[child]; ok {
			active = tag
		}
		if active != idx {
			body.RemoveChild(child)
		}
	}

	// Promote a paragraph-wrapped marker to a direct body child.
	root := d.sectionOrder[idx-1]
	if root.Local() == "p" {
		marker := root.FindFirst("sectPr")
		if marker != nil {
			wrapper := marker.Parent()
			marker.Detach()
			if wrapper != nil && len(wrapper.Children) == 0 {
				wrapper.Detach()
			}
			body.InsertBefore(marker, root)
		}
		body.RemoveChild(root)
	}
	delete(d.sectionRoots, root)

	// The marking is stale after truncation; rebuild on next use.
	d.sectionRoots = nil
	d.sectionOrder = nil
	d.log.Debug("section selected",
		zap.String("session", d.id),
		zap.Int("index", idx))
	return nil
}

// Repeat appends count whole-document duplicates after the current content.
// Each repetition re-establishes a valid terminal section marker before the
// duplicated content follows.
func (d *Document) Repeat(count int) error {
	return d.repeat(count, 0)
}

// RepeatSection appends count duplicates of the single section idx
// (1-based). It fails with the section-not-found error for an out-of-range
// index.
func (d *Document) RepeatSection(idx, count int) error {
	if idx < 1 {
		return d.fail(sectionNotFound(idx))
	}
	return d.repeat(count, idx)
}

func (d *Document) repeat(count, idx int) error {
	if count <= 0 {
		return nil
	}
	d.ensureSectionsMarked()
	body := d.body()

	// Snapshot the template: the full body for whole-document mode, or the
	// slice from the end of the previous section through this section's own
	// root for single-section mode.
	var template []*Node
	if idx == 0 {
		template = snapshot(body.Children)
	} else {
		if idx > len(d.sectionOrder) {
			return d.fail(sectionNotFound(idx))
		}
		start := 0
		if idx > 1 {
			start = body.ChildIndex(d.sectionOrder[idx-2]) + 1
		}
		end := body.ChildIndex(d.sectionOrder[idx-1])
		if end < 0 {
			return d.fail(sectionNotFound(idx))
		}
		template = snapshot(body.Children[start : end+1])
	}

	for r := 0; r < count; r++ {
		// The current last body child carries the page layout of the
		// terminal section; detach it and close the copy that precedes the
		// duplicated content with a synthesized marker paragraph.
		separator := body.Children[len(body.Children)-1]
		body.RemoveChild(separator)

		paragraph := NewNode("w:p")
		props := NewNode("w:pPr")
		props.AppendChild(separator.Clone())
		paragraph.AppendChild(props)
		body.AppendChild(paragraph)

		for _, t := range template {
			body.AppendChild(t.Clone())
		}
		if idx != 0 {
			// Single-section templates may end with a paragraph-wrapped
			// marker; re-append the terminal marker to keep the trailing
			// boundary well formed.
			body.AppendChild(separator)
		}
	}

	// Marking is stale after duplication.
	d.sectionRoots = nil
	d.sectionOrder = nil
	d.log.Debug("content repeated",
		zap.String("session", d.id),
		zap.Int("count", count),
		zap.Int("section", idx))
	return nil
}

func (d *Document) ensureSectionsMarked() {
	if d.sectionRoots == nil {
		d.MarkSections()
	}
}

func snapshot(nodes []*Node) []*Node {
	copies := make([]*Node, len(nodes))
	for i, n := range nodes {
		copies[i] = n.Clone()
	}
	return copies
}

func grandparent(n *Node) *Node {
	p := n.Parent()
	if p == nil {
		return nil
	}
	return p.Parent()
}
