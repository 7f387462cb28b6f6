package document

import (
	"strings"
)

// Syntax is one placeholder punctuation style: <anchor><open>name<close>.
// Names are matched case-insensitively, literally, and never nest.
type Syntax struct {
	Anchor byte
	Open   byte
	Close  byte
}

// The two punctuation styles authors may use. Both are always active; a
// template may even mix them.
var (
	DefaultSyntax     = Syntax{'$', '{', '}'}
	AlternativeSyntax = Syntax{'~', '(', ')'}

	syntaxes = [2]Syntax{DefaultSyntax, AlternativeSyntax}
)

// Token renders the full placeholder token for a name.
func (s Syntax) Token(name string) string {
	return string([]byte{s.Anchor, s.Open}) + name + string(s.Close)
}

// opener is the two-character sequence that starts a token.
func (s Syntax) opener() string {
	return string([]byte{s.Anchor, s.Open})
}

// lookupMode selects the container granularity of the placeholder index.
type lookupMode int

const (
	lookupParagraph lookupMode = iota
	lookupRow
	lookupModeCount
)

// placeholderIndex is a lazily built cache mapping lowercase variable names
// to the structural nodes that contain them. It has no automatic refresh:
// entries are dropped only when row cloning destroys their backing rows, so
// operation ordering is the caller's contract (section operations must run
// before the index is relied upon).
type placeholderIndex struct {
	built   [lookupModeCount]bool
	entries [lookupModeCount]map[string][]*Node
}

func newPlaceholderIndex() *placeholderIndex {
	return &placeholderIndex{}
}

// lookupParagraphs returns the paragraphs containing the named placeholder,
// building the paragraph-scoped index on first use.
func (d *Document) lookupParagraphs(name string) []*Node {
	d.buildIndex(lookupParagraph)
	return d.index.entries[lookupParagraph][strings.ToLower(name)]
}

// lookupRows returns the table rows containing the named placeholder,
// building the row-scoped index on first use.
func (d *Document) lookupRows(name string) []*Node {
	d.buildIndex(lookupRow)
	return d.index.entries[lookupRow][strings.ToLower(name)]
}

// buildIndex scans every content part once, recording each placeholder name
// against its paragraph (mode 1) or its enclosing table row (mode 2).
func (d *Document) buildIndex(mode lookupMode) {
	if d.index.built[mode] {
		return
	}
	entries := make(map[string][]*Node)
	seen := make(map[string]map[*Node]bool)
	for _, part := range d.contentParts() {
		part.Root.Walk(func(n *Node) bool {
			if n.Local() != "p" {
				return true
			}
			text := aggregateText(n)
			if !containsOpener(text) {
				return true
			}
			container := n
			if mode == lookupRow {
				container = n.Ancestor("tr")
				if container == nil {
					return true
				}
			}
			for _, name := range extractNames(text) {
				if seen[name] == nil {
					seen[name] = make(map[*Node]bool)
				}
				if seen[name][container] {
					continue
				}
				seen[name][container] = true
				entries[name] = append(entries[name], container)
			}
			return true
		})
	}
	d.index.entries[mode] = entries
	d.index.built[mode] = true
}

// dropRowEntry removes a row-index entry whose backing rows were destroyed
// by cloning. This is the only invalidation the cache performs.
func (d *Document) dropRowEntry(name string) {
	if d.index.built[lookupRow] {
		delete(d.index.entries[lookupRow], strings.ToLower(name))
	}
}

// knownNames lists every indexed placeholder name for the given mode.
func (d *Document) knownNames(mode lookupMode) []string {
	d.buildIndex(mode)
	names := make([]string, 0, len(d.index.entries[mode]))
	for name := range d.index.entries[mode] {
		names = append(names, name)
	}
	return names
}

// aggregateText concatenates the text leaves of a subtree in document order.
func aggregateText(n *Node) string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Local() == "t" {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// textLeaves flattens the text-leaf nodes of a subtree in document order.
func textLeaves(n *Node) []*Node {
	var leaves []*Node
	n.Walk(func(c *Node) bool {
		if c.Local() == "t" {
			leaves = append(leaves, c)
		}
		return true
	})
	return leaves
}

// containsOpener reports whether text contains either punctuation style's
// token opener.
func containsOpener(text string) bool {
	for _, s := range syntaxes {
		if strings.Contains(text, s.opener()) {
			return true
		}
	}
	return false
}

// extractNames lists the lowercase placeholder names appearing in text, in
// order, for both punctuation styles.
func extractNames(text string) []string {
	var names []string
	for _, s := range syntaxes {
		opener := s.opener()
		rest := text
		for {
			start := strings.Index(rest, opener)
			if start < 0 {
				break
			}
			rest = rest[start+len(opener):]
			end := strings.IndexByte(rest, s.Close)
			if end < 0 {
				break
			}
			name := rest[:end]
			rest = rest[end+1:]
			if name == "" {
				continue
			}
			names = append(names, strings.ToLower(name))
		}
	}
	return names
}

// containsToken reports whether text holds the named placeholder in either
// punctuation style, ignoring case.
func containsToken(text, name string) bool {
	for _, s := range syntaxes {
		if indexFold(text, s.Token(name)) >= 0 {
			return true
		}
	}
	return false
}

// indexFold returns the byte offset of the first case-insensitive occurrence
// of token in s, or -1. Folding is ASCII-only so offsets always map back
// into s unchanged.
func indexFold(s, token string) int {
	if len(token) == 0 || len(s) < len(token) {
		return -1
	}
	for i := 0; i+len(token) <= len(s); i++ {
		if equalFoldASCII(s[i:i+len(token)], token) {
			return i
		}
	}
	return -1
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
