package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Attr is a single XML attribute with its original prefixed name preserved.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a part tree. Tag names keep their namespace prefix
// ("w:p", "a:blip"), attributes keep document order with unique keys, and a
// node either carries children or leaf text. A node is owned exclusively by
// its parent; the root of a tree is owned by its Part.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string

	parent *Node
}

// NewNode creates a detached element node.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Parent returns the owning node, or nil for a tree root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Local returns the tag name without its namespace prefix.
func (n *Node) Local() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrLocal returns the value of the first attribute whose local name
// matches, regardless of prefix.
func (n *Node) AttrLocal(local string) (string, bool) {
	for _, a := range n.Attrs {
		name := a.Name
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[i+1:]
		}
		if name == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or appends the named attribute, keeping keys unique.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// AppendChild adds child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// InsertBefore inserts child immediately before ref among n's children.
// When ref is not a child of n, child is appended.
func (n *Node) InsertBefore(child, ref *Node) {
	idx := n.ChildIndex(ref)
	if idx < 0 {
		n.AppendChild(child)
		return
	}
	child.parent = n
	n.Children = append(n.Children, nil)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = child
}

// RemoveChild detaches child from n. It is a no-op when child does not
// belong to n.
func (n *Node) RemoveChild(child *Node) {
	idx := n.ChildIndex(child)
	if idx < 0 {
		return
	}
	child.parent = nil
	n.Children = append(n.Children[:idx], n.Children[idx+1:]...)
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// ChildIndex returns the position of child among n's children, or -1.
func (n *Node) ChildIndex(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Clone returns a detached deep copy of n.
func (n *Node) Clone() *Node {
	c := &Node{
		Name: n.Name,
		Text: n.Text,
	}
	if len(n.Attrs) > 0 {
		c.Attrs = make([]Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	for _, child := range n.Children {
		c.AppendChild(child.Clone())
	}
	return c
}

// Ancestor returns the nearest ancestor (excluding n itself) whose local tag
// name matches, or nil.
func (n *Node) Ancestor(local string) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.Local() == local {
			return p
		}
	}
	return nil
}

// FindFirst returns the first descendant (document order, excluding n) whose
// local tag name matches, or nil.
func (n *Node) FindFirst(local string) *Node {
	for _, child := range n.Children {
		if child.Local() == local {
			return child
		}
		if found := child.FindFirst(local); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits n and every descendant in document order. Returning false from
// fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// nsScope reconstructs original namespace prefixes while decoding.
// encoding/xml resolves prefixes to URIs; the declarations travel as
// xmlns attributes, so a stack of URI -> prefix maps recovers them.
type nsScope struct {
	frames []map[string]string
}

func newNSScope() *nsScope {
	return &nsScope{frames: []map[string]string{{
		"http://www.w3.org/XML/1998/namespace": "xml",
	}}}
}

func (s *nsScope) push(attrs []xml.Attr) {
	var frame map[string]string
	for _, a := range attrs {
		switch {
		case a.Name.Space == "xmlns":
			if frame == nil {
				frame = make(map[string]string)
			}
			frame[a.Value] = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			if frame == nil {
				frame = make(map[string]string)
			}
			frame[a.Value] = ""
		}
	}
	s.frames = append(s.frames, frame)
}

func (s *nsScope) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// prefixed renders an xml.Name back to its authored form.
func (s *nsScope) prefixed(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if name.Space == "xmlns" {
		return "xmlns:" + name.Local
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i] == nil {
			continue
		}
		if prefix, ok := s.frames[i][name.Space]; ok {
			if prefix == "" {
				return name.Local
			}
			return prefix + ":" + name.Local
		}
	}
	// Undeclared namespace: the decoder kept the literal prefix in Space.
	return name.Space + ":" + name.Local
}

// ParseXML parses one XML part into a node tree.
func ParseXML(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	scope := newNSScope()

	var root *Node
	var current *Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing XML part: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			scope.push(t.Attr)
			node := NewNode(scope.prefixed(t.Name))
			for _, a := range t.Attr {
				node.Attrs = append(node.Attrs, Attr{
					Name:  scope.prefixed(a.Name),
					Value: a.Value,
				})
			}
			if current == nil {
				root = node
			} else {
				current.AppendChild(node)
			}
			current = node
		case xml.EndElement:
			if current == nil {
				return nil, fmt.Errorf("parsing XML part: unexpected end element %s", t.Name.Local)
			}
			// Drop inter-element indentation; keep leaf text as-is.
			if len(current.Children) > 0 && strings.TrimSpace(current.Text) == "" {
				current.Text = ""
			}
			current = current.parent
			scope.pop()
		case xml.CharData:
			if current != nil {
				current.Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parsing XML part: no root element")
	}
	return root, nil
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// SerializeXML renders a tree back to a standalone XML part.
func SerializeXML(root *Node) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	writeNode(&buf, root)
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	buf.WriteByte('<')
	buf.WriteString(n.Name)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(a.Value))
		buf.WriteByte('"')
	}
	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	if n.Text != "" {
		buf.WriteString(escapeText(n.Text))
	}
	for _, child := range n.Children {
		writeNode(buf, child)
	}
	buf.WriteString("</")
	buf.WriteString(n.Name)
	buf.WriteByte('>')
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
