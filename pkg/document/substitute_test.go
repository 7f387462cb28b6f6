package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValueSingleRun(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>Hello ${name}, total: ${total}</w:t></w:r></w:p>`)

	doc.SetValue("name", "World")
	doc.SetValue("total", "42")

	assert.Equal(t, "Hello World, total: 42", aggregateText(doc.body()))
}

func TestSetValueAcrossSplitRuns(t *testing.T) {
	// The editor split the token over four runs, cutting inside the name.
	doc := loadBody(t, `<w:p>
<w:r><w:t>Dear $</w:t></w:r>
<w:r><w:t>{cust</w:t></w:r>
<w:r><w:t>omer</w:t></w:r>
<w:r><w:t>}, welcome</w:t></w:r>
</w:p>`)

	doc.SetValue("customer", "Ada")
	assert.Equal(t, "Dear Ada, welcome", aggregateText(doc.body()))

	// The covering span merges into its first leaf; the rest are emptied but
	// keep their formatting runs in place.
	leaves := textLeaves(doc.body().FindFirst("p"))
	require.Len(t, leaves, 4)
	assert.Equal(t, "Dear Ada, welcome", leaves[0].Text)
	assert.Equal(t, "", leaves[1].Text)
	assert.Equal(t, "", leaves[2].Text)
	assert.Equal(t, "", leaves[3].Text)
}

func TestSetValueCaseInsensitive(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>${Name} and ${NAME}</w:t></w:r></w:p>`)

	doc.SetValue("name", "x")
	assert.Equal(t, "x and x", aggregateText(doc.body()))
}

func TestSetValueAlternativeSyntax(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>Amount: ~(amount) EUR, again ${amount}</w:t></w:r></w:p>`)

	doc.SetValue("amount", "99")
	assert.Equal(t, "Amount: 99 EUR, again 99", aggregateText(doc.body()))
}

func TestSetValueMultipleParagraphs(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>${city}</w:t></w:r></w:p>
<w:p><w:r><w:t>still ${city}</w:t></w:r></w:p>`)

	assert.Equal(t, 2, doc.PlaceholderParagraphCount("city"))
	doc.SetValue("city", "Berlin")
	assert.Equal(t, "Berlinstill Berlin", aggregateText(doc.body()))
}

func TestSetValueIsIdempotentForPlainValues(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>${v}</w:t></w:r></w:p>`)

	doc.SetValue("v", "done")
	doc.SetValue("v", "again")
	assert.Equal(t, "done", aggregateText(doc.body()))
}

func TestSetValueUnknownNameIsHarmless(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>${known}</w:t></w:r></w:p>`)

	doc.SetValue("unknwon", "x")
	assert.Equal(t, "${known}", aggregateText(doc.body()))
}

func TestSetValueDynamicRelationshipTarget(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>See your profile.</w:t></w:r></w:p>`)

	doc.SetValue("profile", "ada-lovelace")

	rel := doc.relationship("document", "rId6")
	require.NotNil(t, rel)
	assert.Equal(t, "https://example.com/profile/ada-lovelace", rel.Target)

	target, ok := rel.node.Attr("Target")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/profile/ada-lovelace", target)

	// The rewritten target must survive a save.
	entries := savedEntries(t, doc)
	assert.Contains(t, string(entries["word/_rels/document.xml.rels"]),
		`Target="https://example.com/profile/ada-lovelace"`)
}

func TestSetValueInHeader(t *testing.T) {
	entries := packageEntries(`<w:p><w:r><w:t>body</w:t></w:r></w:p>`)
	entries["word/header1.xml"] = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:p><w:r><w:t>Issued for ${issuer}</w:t></w:r></w:p>
</w:hdr>`)
	doc := loadPackage(t, entries)

	require.Len(t, doc.Headers(), 1)
	doc.SetValue("issuer", "ACME")
	assert.Equal(t, "Issued for ACME", aggregateText(doc.Headers()[0].Root))
}

func TestPlaceholderNames(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>${Beta} and ~(alpha) and ${beta}</w:t></w:r></w:p>`)

	assert.Equal(t, []string{"alpha", "beta"}, doc.PlaceholderNames())
}

func TestPlaceholderIndexIgnoresEmptyNames(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>${} and ${real}</w:t></w:r></w:p>`)

	assert.Equal(t, []string{"real"}, doc.PlaceholderNames())
}

func TestIndexFold(t *testing.T) {
	assert.Equal(t, 6, indexFold("Hello ${NAME}", "${name}"))
	assert.Equal(t, -1, indexFold("nothing here", "${name}"))
	assert.Equal(t, -1, indexFold("short", "much longer token"))
	// Folding is ASCII-only so multi-byte text keeps its byte offsets.
	assert.Equal(t, 7, indexFold("äöü ${x}", "${x}"))
}
