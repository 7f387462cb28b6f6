package document

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
)

// SetValue replaces every occurrence of the named placeholder with value, in
// both punctuation styles, across the indexed paragraphs and any dynamic
// relationship targets registered for the name.
//
// The originating editor may split a single token across arbitrarily many
// adjacent formatting runs, so replacement never operates per run: for each
// occurrence the minimal contiguous span of text leaves covering the token
// is merged into its first leaf before exactly one substitution is applied.
func (d *Document) SetValue(name, value string) {
	paragraphs := d.lookupParagraphs(name)
	links := d.dynLinks[strings.ToLower(name)]
	if len(paragraphs) == 0 && len(links) == 0 {
		d.warnUnknownName(name)
		return
	}

	for _, syntax := range &syntaxes {
		token := syntax.Token(name)
		for _, paragraph := range paragraphs {
			replaceInParagraph(paragraph, token, value)
		}
		for _, rel := range links {
			d.replaceInTarget(rel, token, value)
		}
	}
}

// replaceInParagraph substitutes every occurrence of token inside one
// paragraph, splicing across text-run boundaries.
func replaceInParagraph(paragraph *Node, token, value string) {
	for {
		leaves := textLeaves(paragraph)
		parts := make([]string, len(leaves))
		for i, leaf := range leaves {
			parts[i] = leaf.Text
		}
		start := indexFold(strings.Join(parts, ""), token)
		if start < 0 {
			return
		}
		end := start + len(token)

		// Minimal contiguous run of leaves covering [start, end).
		first, last := -1, -1
		offset := 0
		for i, leaf := range leaves {
			leafEnd := offset + len(leaf.Text)
			if first < 0 && leafEnd > start {
				first = i
			}
			if first >= 0 {
				last = i
				if leafEnd >= end {
					break
				}
			}
			offset = leafEnd
		}
		if first < 0 {
			return
		}

		// Merge the covering span into the first leaf, then apply exactly
		// one case-insensitive substitution on the merged text.
		var merged strings.Builder
		for i := first; i <= last; i++ {
			merged.WriteString(leaves[i].Text)
			if i > first {
				leaves[i].Text = ""
			}
		}
		text := merged.String()
		idx := indexFold(text, token)
		if idx < 0 {
			// Stale index data; never loop forever on it.
			return
		}
		leaves[first].Text = text[:idx] + value + text[idx+len(token):]
	}
}

// replaceInTarget substitutes token inside a dynamic relationship target and
// its backing element.
func (d *Document) replaceInTarget(rel *Relationship, token, value string) {
	for {
		idx := indexFold(rel.Target, token)
		if idx < 0 {
			return
		}
		rel.Target = rel.Target[:idx] + value + rel.Target[idx+len(token):]
		rel.node.SetAttr("Target", rel.Target)
	}
}

// warnUnknownName logs a fuzzy-matched hint when a caller sets a variable
// the template never mentions.
func (d *Document) warnUnknownName(name string) {
	matches := fuzzy.RankFindNormalizedFold(name, d.knownNames(lookupParagraph))
	sort.Sort(matches)
	suggestions := make([]string, 0, 3)
	for i, m := range matches {
		if i == 3 {
			break
		}
		suggestions = append(suggestions, m.Target)
	}
	d.log.Warn("placeholder not present in template",
		zap.String("session", d.id),
		zap.String("name", name),
		zap.Strings("closest", suggestions))
}
