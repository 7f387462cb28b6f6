// Package inliner flattens single-level CSS selectors from <style> blocks
// onto element style attributes, producing markup usable by mail clients
// that ignore external and linked styles. It handles only the selector
// subset the document converter emits, not general CSS.
package inliner

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Doctype is forced onto every re-serialized document.
const Doctype = "<!DOCTYPE html>"

var (
	commentPattern     = regexp2.MustCompile(`/\*[\s\S]*?\*/`, regexp2.None)
	trailingDotPattern = regexp2.MustCompile(`\.\s*$`, regexp2.None)
	simpleNamePattern  = regexp2.MustCompile(`^[A-Za-z][\w-]*$`, regexp2.None)
)

// rule is one accepted selector with its declaration block.
type rule struct {
	selector selector
	decl     string
}

// selector is one parsed single-level selector: an optional tag qualified by
// at most one class or id.
type selector struct {
	universal bool
	tag       string
	class     string
	id        string
}

// Inliner rewrites rendered markup in place.
type Inliner struct {
	log *zap.Logger
}

// New creates an Inliner. A nil logger disables logging.
func New(log *zap.Logger) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inliner{log: log}
}

// Inline parses the markup, moves every accepted style rule onto the
// elements it matches, forces a zero body margin, and re-serializes with the
// fixed doctype.
//
// Rules apply in reverse order of appearance, each declaration block
// prepended to the element's existing style attribute. This inverts the
// usual last-rule-wins cascade on purpose: it reproduces the behavior of the
// system this engine replaces.
func (in *Inliner) Inline(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parsing markup: %w", err)
	}

	var rules []rule
	doc.Find("style").Each(func(_ int, block *goquery.Selection) {
		rules = append(rules, in.parseBlock(block.Text())...)
	})

	index := buildIndex(doc)
	for i := len(rules) - 1; i >= 0; i-- {
		r := rules[i]
		for _, node := range index.match(r.selector) {
			prependStyle(node, r.decl)
		}
	}

	if body := doc.Find("body"); body.Length() > 0 {
		forceBodyMargin(body.Nodes[0])
	}

	root := doc.Find("html")
	if root.Length() == 0 {
		return "", fmt.Errorf("markup has no root element")
	}
	rendered, err := goquery.OuterHtml(root)
	if err != nil {
		return "", fmt.Errorf("serializing markup: %w", err)
	}
	return Doctype + "\n" + rendered, nil
}

// parseBlock extracts the accepted rules of one <style> block.
func (in *Inliner) parseBlock(css string) []rule {
	css = stripComments(css)
	css = stripAtRules(css)

	var rules []rule
	rest := css
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			break
		}
		selectors := rest[:open]
		decl := strings.TrimSpace(rest[open+1 : open+closing])
		rest = rest[open+closing+1:]

		for _, raw := range strings.Split(selectors, ",") {
			sel, ok := in.parseSelector(strings.TrimSpace(raw))
			if !ok {
				continue
			}
			rules = append(rules, rule{selector: sel, decl: decl})
		}
	}
	return rules
}

// parseSelector accepts `*`, a bare tag, `.class`, `#id`, or a tag qualified
// by exactly one class or id. Everything else — combinators, pseudo-classes,
// stacked qualifiers, malformed trailing dots — is rejected.
func (in *Inliner) parseSelector(raw string) (selector, bool) {
	if raw == "" {
		return selector{}, false
	}
	if ok, _ := trailingDotPattern.MatchString(raw); ok {
		in.log.Debug("rejecting malformed selector", zap.String("selector", raw))
		return selector{}, false
	}
	if raw == "*" {
		return selector{universal: true}, true
	}

	var sel selector
	name := raw
	if i := strings.IndexAny(raw, ".#"); i >= 0 {
		qualifier := raw[i+1:]
		if !isSimpleName(qualifier) {
			return selector{}, false
		}
		if raw[i] == '.' {
			sel.class = qualifier
		} else {
			sel.id = qualifier
		}
		name = raw[:i]
	}
	if name != "" {
		if !isSimpleName(name) {
			return selector{}, false
		}
		sel.tag = strings.ToLower(name)
	}
	if sel.tag == "" && sel.class == "" && sel.id == "" {
		return selector{}, false
	}
	return sel, true
}

func isSimpleName(s string) bool {
	ok, _ := simpleNamePattern.MatchString(s)
	return ok
}

// stripComments removes /* ... */ comments.
func stripComments(css string) string {
	out, err := commentPattern.Replace(css, "", -1, -1)
	if err != nil {
		return css
	}
	return out
}

// stripAtRules removes at-rules: statements through their semicolon, blocks
// through their brace-matched closing brace (non-nested input is assumed,
// nesting is tolerated).
func stripAtRules(css string) string {
	var b strings.Builder
	for {
		at := strings.IndexByte(css, '@')
		if at < 0 {
			b.WriteString(css)
			break
		}
		b.WriteString(css[:at])
		rest := css[at:]
		stop := strings.IndexAny(rest, "{;")
		if stop < 0 {
			break
		}
		if rest[stop] == ';' {
			css = rest[stop+1:]
			continue
		}
		depth := 0
		end := -1
		for i := stop; i < len(rest); i++ {
			switch rest[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			break
		}
		css = rest[end+1:]
	}
	return b.String()
}

// elementIndex resolves selectors against the parsed tree, excluding the
// head subtree.
type elementIndex struct {
	all     []*html.Node
	byTag   map[string][]*html.Node
	byClass map[string][]*html.Node
	byID    map[string][]*html.Node
}

func buildIndex(doc *goquery.Document) *elementIndex {
	idx := &elementIndex{
		byTag:   make(map[string][]*html.Node),
		byClass: make(map[string][]*html.Node),
		byID:    make(map[string][]*html.Node),
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "head" {
				return
			}
			idx.all = append(idx.all, n)
			idx.byTag[n.Data] = append(idx.byTag[n.Data], n)
			if class := attrValue(n, "class"); class != "" {
				for _, c := range strings.Fields(class) {
					idx.byClass[c] = append(idx.byClass[c], n)
				}
			}
			if id := attrValue(n, "id"); id != "" {
				idx.byID[id] = append(idx.byID[id], n)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range doc.Selection.Nodes {
		walk(n)
	}
	return idx
}

func (idx *elementIndex) match(sel selector) []*html.Node {
	var candidates []*html.Node
	switch {
	case sel.universal:
		return idx.all
	case sel.class != "":
		candidates = idx.byClass[sel.class]
	case sel.id != "":
		candidates = idx.byID[sel.id]
	default:
		return idx.byTag[sel.tag]
	}
	if sel.tag == "" {
		return candidates
	}
	var matched []*html.Node
	for _, n := range candidates {
		if n.Data == sel.tag {
			matched = append(matched, n)
		}
	}
	return matched
}

// prependStyle puts a semicolon-terminated declaration block in front of the
// element's existing inline style.
func prependStyle(n *html.Node, decl string) {
	decl = strings.TrimSpace(decl)
	if decl == "" {
		return
	}
	if !strings.HasSuffix(decl, ";") {
		decl += ";"
	}
	existing := attrValue(n, "style")
	setAttrValue(n, "style", decl+existing)
}

// forceBodyMargin appends a zero margin so it wins over anything inlined
// earlier.
func forceBodyMargin(body *html.Node) {
	existing := strings.TrimSpace(attrValue(body, "style"))
	if existing != "" && !strings.HasSuffix(existing, ";") {
		existing += ";"
	}
	setAttrValue(body, "style", existing+"margin: 0;")
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setAttrValue(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}
