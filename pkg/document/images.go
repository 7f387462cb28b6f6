package document

import (
	"os"
	"sort"

	"go.uber.org/zap"
)

// imageKey scopes a relationship id to the part that owns it; ids are only
// unique per part.
type imageKey struct {
	relID string
	part  string
}

// imageOccurrence is one drawing in a content part. Copy/paste duplicates
// produce several occurrences sharing one relationship id and backing file.
type imageOccurrence struct {
	// container is the node removed on delete: the run enclosing the
	// drawing, or the drawing itself when it sits outside a run.
	container *Node
	part      *Part
	relID     string
}

// imageGroup collects every occurrence behind one composite key, reachable
// through each authored id that references it.
type imageGroup struct {
	key         imageKey
	occurrences []*imageOccurrence
}

// Images returns the authored ids of every image occurrence sharing the
// given id's backing relationship, building the image index on first use.
// The index scans every drawing across the main part, headers and footers.
func (d *Document) Images(id string) []*Node {
	d.buildImageIndex()
	group := d.imageIndex[id]
	if group == nil {
		return nil
	}
	nodes := make([]*Node, len(group.occurrences))
	for i, occ := range group.occurrences {
		nodes[i] = occ.container
	}
	return nodes
}

// ImageIDs lists every authored image identifier in the document, sorted.
func (d *Document) ImageIDs() []string {
	d.buildImageIndex()
	ids := make([]string, 0, len(d.imageIndex))
	for id := range d.imageIndex {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReplaceImage overwrites the backing file of every occurrence behind the
// authored id with the contents of path. The relationship entries stay
// untouched; occurrences sharing one backing file all change together.
//
// The replacement file is checked before any mutation happens.
func (d *Document) ReplaceImage(id, path string) error {
	d.buildImageIndex()
	group := d.imageIndex[id]
	if group == nil {
		return d.fail(NewError(CodeImageNotFound, "no image with identifier %q", id))
	}
	if _, err := os.Stat(path); err != nil {
		return d.fail(WrapError(CodeReplacementImageMissing, err, "replacement image %q does not exist", path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return d.fail(WrapError(CodeReplacementImageMissing, err, "replacement image %q cannot be read", path))
	}
	for _, occ := range group.occurrences {
		rel := d.relationship(occ.part.Base, occ.relID)
		if rel == nil {
			continue
		}
		d.raw[d.targetPath(rel, occ.part)] = data
	}
	d.log.Debug("image replaced",
		zap.String("session", d.id),
		zap.String("image", id),
		zap.String("file", path),
		zap.Int("occurrences", len(group.occurrences)))
	return nil
}

// DeleteImage removes every occurrence behind the authored id: the visual
// element, the relationship entry of its owning part, and the backing file.
func (d *Document) DeleteImage(id string) error {
	d.buildImageIndex()
	group := d.imageIndex[id]
	if group == nil {
		return d.fail(NewError(CodeImageNotFound, "no image with identifier %q", id))
	}
	for _, occ := range group.occurrences {
		rel := d.relationship(occ.part.Base, occ.relID)
		if rel != nil {
			target := d.targetPath(rel, occ.part)
			if _, ok := d.raw[target]; ok {
				delete(d.raw, target)
				d.deleted[target] = true
			}
			d.removeRelationship(rel)
		}
		occ.container.Detach()
	}
	for authored, g := range d.imageIndex {
		if g.key == group.key {
			delete(d.imageIndex, authored)
		}
	}
	d.log.Debug("image deleted",
		zap.String("session", d.id),
		zap.String("image", id))
	return nil
}

// buildImageIndex maps authored drawing ids to the occurrence list of their
// (relationship id, owning part) composite key. Built once, lazily.
func (d *Document) buildImageIndex() {
	if d.imageIndex != nil {
		return
	}
	d.imageIndex = make(map[string]*imageGroup)
	groups := make(map[imageKey]*imageGroup)
	for _, part := range d.contentParts() {
		part.Root.Walk(func(n *Node) bool {
			if n.Local() != "drawing" {
				return true
			}
			authored, relID := drawingIdentifiers(n)
			if authored == "" || relID == "" {
				return true
			}
			key := imageKey{relID: relID, part: part.Name}
			group := groups[key]
			if group == nil {
				group = &imageGroup{key: key}
				groups[key] = group
			}
			container := n.Ancestor("r")
			if container == nil {
				container = n
			}
			group.occurrences = append(group.occurrences, &imageOccurrence{
				container: container,
				part:      part,
				relID:     relID,
			})
			d.imageIndex[authored] = group
			return true
		})
	}
}

// drawingIdentifiers reads the authored numeric id (wp:docPr/@id) and the
// embedded blip relationship reference (a:blip/@r:embed) of a drawing.
func drawingIdentifiers(drawing *Node) (authored, relID string) {
	if docPr := drawing.FindFirst("docPr"); docPr != nil {
		authored, _ = docPr.AttrLocal("id")
	}
	if blip := drawing.FindFirst("blip"); blip != nil {
		relID, _ = blip.AttrLocal("embed")
		if relID == "" {
			relID, _ = blip.AttrLocal("link")
		}
	}
	return authored, relID
}
