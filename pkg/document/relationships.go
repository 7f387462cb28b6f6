package document

import (
	"path"
	"strings"

	"go.uber.org/zap"
)

// Relationship is one entry of a part's relationship manifest. Ids are
// unique within the owning part only; the engine therefore always addresses
// entries by (owning part base name, id).
type Relationship struct {
	ID     string
	Type   string
	Target string

	// node is the backing manifest element; owner is the base name of the
	// part the manifest describes.
	node  *Node
	owner string
}

// buildRelationshipIndex parses every discovered relationship part and
// registers dynamic-link entries: a relationship whose target embeds a
// placeholder token is reachable through SetValue under that variable name.
func (d *Document) buildRelationshipIndex() {
	for _, part := range d.parts {
		if part.Role != RoleRelationships {
			continue
		}
		byID := make(map[string]*Relationship)
		for _, child := range part.Root.Children {
			if child.Local() != "Relationship" {
				continue
			}
			id, _ := child.Attr("Id")
			typ, _ := child.Attr("Type")
			target, _ := child.Attr("Target")
			rel := &Relationship{
				ID:     id,
				Type:   typ,
				Target: target,
				node:   child,
				owner:  part.Base,
			}
			byID[id] = rel
			for _, name := range extractNames(target) {
				d.dynLinks[name] = append(d.dynLinks[name], rel)
				d.log.Debug("dynamic relationship target registered",
					zap.String("session", d.id),
					zap.String("part", part.Base),
					zap.String("id", id),
					zap.String("name", name))
			}
		}
		d.rels[part.Base] = byID
	}
}

// relationship resolves an id within the part that owns it.
func (d *Document) relationship(ownerBase, id string) *Relationship {
	return d.rels[ownerBase][id]
}

// removeRelationship deletes a manifest entry and its index record.
func (d *Document) removeRelationship(rel *Relationship) {
	if rel == nil {
		return
	}
	rel.node.Detach()
	delete(d.rels[rel.owner], rel.ID)
	for name, rels := range d.dynLinks {
		kept := rels[:0]
		for _, r := range rels {
			if r != rel {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(d.dynLinks, name)
		} else {
			d.dynLinks[name] = kept
		}
	}
}

// targetPath resolves a relationship target to its archive path, relative to
// the directory of the part that owns the manifest.
func (d *Document) targetPath(rel *Relationship, ownerPart *Part) string {
	target := rel.Target
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(ownerPart.dir(), target)
}
