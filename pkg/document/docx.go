package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	headerPartPattern = regexp.MustCompile(`^word/header(\d+)\.xml$`)
	footerPartPattern = regexp.MustCompile(`^word/footer(\d+)\.xml$`)
	relsPartPattern   = regexp.MustCompile(`^word/_rels/([^/]+\.xml)\.rels$`)
)

// Document is the in-memory editing session over one template package. It
// owns one XML tree per part and mutates them in place; Save re-serializes
// the package 1:1 in structure.
//
// The engine is single-threaded by design: a Document must not be shared
// between goroutines. Mutations are not transactional — a failed operation
// aborts the session rather than rolling back.
type Document struct {
	log *zap.Logger
	id  string

	main    *Part
	headers []*Part
	footers []*Part
	core    *Part
	app     *Part

	// parts indexes every parsed part by archive path; raw carries all
	// remaining entries byte-for-byte. order preserves the archive layout.
	parts   map[string]*Part
	raw     map[string][]byte
	order   []string
	deleted map[string]bool

	index *placeholderIndex

	// rels indexes relationship entries by owning part base name, then id.
	// dynLinks registers relationships whose target embeds a placeholder
	// token, keyed by the lowercase variable name.
	rels     map[string]map[string]*Relationship
	dynLinks map[string][]*Relationship

	// imageIndex is built lazily by Images; see images.go.
	imageIndex map[string]*imageGroup

	// sectionRoots is a side table from marker root node to 1-based section
	// index. It never serializes into the document. sectionOrder keeps the
	// roots in document order.
	sectionRoots map[*Node]int
	sectionOrder []*Node

	onError ErrorHandler
}

// LoadFile opens a template package from disk.
func LoadFile(path string, log *zap.Logger) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapError(CodeTemplateNotFound, err, "template %q does not exist", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(CodePackageUnreadable, err, "template %q cannot be read", path)
	}
	return Load(data, log)
}

// Load parses a template package from memory.
func Load(data []byte, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, WrapError(CodePackageUnreadable, err, "package is not a readable archive")
	}

	d := &Document{
		log:      log,
		id:       uuid.NewString(),
		parts:    make(map[string]*Part),
		raw:      make(map[string][]byte),
		deleted:  make(map[string]bool),
		index:    newPlaceholderIndex(),
		rels:     make(map[string]map[string]*Relationship),
		dynLinks: make(map[string][]*Relationship),
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		content, err := readZipEntry(f)
		if err != nil {
			return nil, WrapError(CodeExtractionFailed, err, "entry %q cannot be extracted", f.Name)
		}
		d.order = append(d.order, f.Name)

		role, ok := partRole(f.Name)
		if !ok {
			d.raw[f.Name] = content
			continue
		}
		root, err := ParseXML(content)
		if err != nil {
			return nil, WrapError(CodeExtractionFailed, err, "part %q cannot be parsed", f.Name)
		}
		part := &Part{Name: f.Name, Role: role, Root: root}
		switch role {
		case RoleRelationships:
			m := relsPartPattern.FindStringSubmatch(f.Name)
			part.Base = partBase(m[1])
		default:
			part.Base = partBase(f.Name)
		}
		d.parts[f.Name] = part
		switch role {
		case RoleMain:
			d.main = part
		case RoleHeader:
			d.headers = append(d.headers, part)
		case RoleFooter:
			d.footers = append(d.footers, part)
		case RoleCoreProperties:
			d.core = part
		case RoleExtendedProperties:
			d.app = part
		}
	}

	if d.main == nil {
		return nil, NewError(CodeExtractionFailed, "package has no main document part")
	}
	sortPartsByNumber(d.headers, headerPartPattern)
	sortPartsByNumber(d.footers, footerPartPattern)
	d.buildRelationshipIndex()

	d.log.Debug("template package loaded",
		zap.String("session", d.id),
		zap.Int("parts", len(d.parts)),
		zap.Int("headers", len(d.headers)),
		zap.Int("footers", len(d.footers)))
	return d, nil
}

// SetErrorHandler installs an override for the default abort-and-report
// behavior. The handler sees every fatal engine error before it propagates.
func (d *Document) SetErrorHandler(h ErrorHandler) {
	d.onError = h
}

// fail routes an engine error through the session error channel.
func (d *Document) fail(e *Error) error {
	if d.onError != nil {
		d.onError(e.Code, e.Message)
	} else {
		d.log.Error("document operation failed",
			zap.String("session", d.id),
			zap.String("code", string(e.Code)),
			zap.String("message", e.Message))
	}
	return e
}

// ID returns the session identifier used in log output.
func (d *Document) ID() string {
	return d.id
}

// Main returns the main document part.
func (d *Document) Main() *Part {
	return d.main
}

// Headers returns the header parts in document order.
func (d *Document) Headers() []*Part {
	return d.headers
}

// Footers returns the footer parts in document order.
func (d *Document) Footers() []*Part {
	return d.footers
}

// body returns the body element of the main part.
func (d *Document) body() *Node {
	return d.main.Root.FindFirst("body")
}

// contentParts returns the parts whose text participates in placeholder
// lookups: the main body plus every header and footer.
func (d *Document) contentParts() []*Part {
	parts := make([]*Part, 0, 1+len(d.headers)+len(d.footers))
	parts = append(parts, d.main)
	parts = append(parts, d.headers...)
	parts = append(parts, d.footers...)
	return parts
}

// Save re-packs the session into w. Parts serialize from their trees; every
// untouched entry is copied byte-for-byte in its original position.
func (d *Document) Save(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, name := range d.order {
		if d.deleted[name] {
			continue
		}
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("creating archive entry %s: %w", name, err)
		}
		var content []byte
		if part, ok := d.parts[name]; ok {
			content = SerializeXML(part.Root)
		} else {
			content = d.raw[name]
		}
		if _, err := fw.Write(content); err != nil {
			return fmt.Errorf("writing archive entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

// SaveFile writes the session to the given path.
func (d *Document) SaveFile(path string) error {
	if path == "" {
		return d.fail(NewError(CodeEmptyDestination, "destination path is empty"))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return d.Save(f)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// partRole maps an archive path to the role of its XML tree. Paths that are
// not role parts stay raw.
func partRole(name string) (Role, bool) {
	switch {
	case name == "word/document.xml":
		return RoleMain, true
	case headerPartPattern.MatchString(name):
		return RoleHeader, true
	case footerPartPattern.MatchString(name):
		return RoleFooter, true
	case name == "docProps/core.xml":
		return RoleCoreProperties, true
	case name == "docProps/app.xml":
		return RoleExtendedProperties, true
	case relsPartPattern.MatchString(name):
		return RoleRelationships, true
	}
	return 0, false
}

func sortPartsByNumber(parts []*Part, pattern *regexp.Regexp) {
	sort.SliceStable(parts, func(i, j int) bool {
		return partNumber(parts[i].Name, pattern) < partNumber(parts[j].Name, pattern)
	})
}

func partNumber(name string, pattern *regexp.Regexp) int {
	m := pattern.FindStringSubmatch(name)
	if len(m) != 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
