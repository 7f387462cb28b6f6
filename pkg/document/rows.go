package document

import (
	"strconv"

	"go.uber.org/zap"
)

// CloneRow replicates every table row containing the named placeholder count
// times. Each clone i (1-based) gets every placeholder inside it — of any
// name and either punctuation style — renamed with the suffix "#i", so the
// caller addresses per-instance values as "name#1" .. "name#count". Clones
// are inserted where the original row stood; the original is removed.
//
// count <= 0 mutates nothing. Cloning destroys the rows the row index points
// to, so the index entry for name is dropped afterwards.
func (d *Document) CloneRow(name string, count int) {
	if count <= 0 {
		return
	}
	rows := d.lookupRows(name)
	if len(rows) == 0 {
		d.log.Warn("row placeholder not present in template",
			zap.String("session", d.id),
			zap.String("name", name))
		return
	}
	for _, row := range rows {
		// The index may be stale; only rows that still carry the token at
		// call time are replicated.
		if !containsToken(aggregateText(row), name) {
			continue
		}
		table := row.Parent()
		if table == nil {
			continue
		}
		for i := 1; i <= count; i++ {
			clone := row.Clone()
			suffixPlaceholders(clone, i)
			table.InsertBefore(clone, row)
		}
		table.RemoveChild(row)
	}
	d.dropRowEntry(name)
	d.log.Debug("table row replicated",
		zap.String("session", d.id),
		zap.String("name", name),
		zap.Int("count", count))
}

// Scanner states for placeholder renaming. The scanner renames by
// punctuation position only — it never parses the name — so a single pass
// suffixes every placeholder in the row, even tokens split across leaves.
const (
	scanIdle = iota
	scanAnchorSeen
	scanBracketOpen
)

// suffixPlaceholders walks the text leaves of a cloned row in document
// order, carrying scanner state across leaf boundaries, and inserts "#i"
// immediately before each token's closing character.
func suffixPlaceholders(row *Node, i int) {
	suffix := "#" + strconv.Itoa(i)
	state := scanIdle
	var syntax Syntax
	for _, leaf := range textLeaves(row) {
		text := leaf.Text
		if text == "" {
			continue
		}
		var out []byte
		for j := 0; j < len(text); j++ {
			c := text[j]
			switch {
			case anchorSyntax(c, &syntax):
				// A fresh anchor always restarts the scan, discarding any
				// stale open state.
				state = scanAnchorSeen
			case state == scanAnchorSeen && c == syntax.Open:
				state = scanBracketOpen
			case state == scanBracketOpen && c == syntax.Close:
				out = append(out, suffix...)
				state = scanIdle
			}
			out = append(out, c)
		}
		leaf.Text = string(out)
	}
}

// anchorSyntax reports whether c is a token anchor and selects the matching
// punctuation style.
func anchorSyntax(c byte, syntax *Syntax) bool {
	for _, s := range syntaxes {
		if c == s.Anchor {
			*syntax = s
			return true
		}
	}
	return false
}
