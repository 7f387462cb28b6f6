package document

import (
	"path"
	"strings"
)

// Role classifies an XML part within the package.
type Role int

const (
	RoleMain Role = iota
	RoleHeader
	RoleFooter
	RoleCoreProperties
	RoleExtendedProperties
	RoleRelationships
)

func (r Role) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleHeader:
		return "header"
	case RoleFooter:
		return "footer"
	case RoleCoreProperties:
		return "core-properties"
	case RoleExtendedProperties:
		return "extended-properties"
	case RoleRelationships:
		return "relationships"
	default:
		return "unknown"
	}
}

// Part is one XML tree of the package. It exclusively owns its tree; other
// parts refer to its content only through ids, never through live node
// references.
type Part struct {
	// Name is the archive path, e.g. "word/document.xml".
	Name string
	// Base is the file name without directory and extension, e.g.
	// "document" or "header1". Relationship parts use the base name of the
	// part they describe.
	Base string
	Role Role
	Root *Node
}

// dir returns the archive directory of the part ("word", "docProps").
func (p *Part) dir() string {
	return path.Dir(p.Name)
}

// relsName returns the conventional path of the relationship file that
// describes this part: a sibling sub-directory named for the relationship
// extension holding "<file>.<ext>".
func (p *Part) relsName() string {
	return path.Join(p.dir(), "_rels", path.Base(p.Name)+".rels")
}

// partBase strips directory and the trailing ".xml" from an archive path.
func partBase(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, ".xml")
}
