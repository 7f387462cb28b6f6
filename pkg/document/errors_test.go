package document

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := NewError(CodeImageNotFound, "no image with identifier %q", "7")
	assert.Equal(t, `IMAGE_NOT_FOUND: no image with identifier "7"`, e.Error())
	assert.Nil(t, e.Unwrap())
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	e := WrapError(CodePackageUnreadable, cause, "template %q cannot be read", "a.docx")

	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "PACKAGE_UNREADABLE")
	assert.Contains(t, e.Error(), "a.docx")
}

func TestIsCode(t *testing.T) {
	e := NewError(CodeUnsupportedFormat, "nope")
	assert.True(t, IsCode(e, CodeUnsupportedFormat))
	assert.False(t, IsCode(e, CodeImageNotFound))
	assert.False(t, IsCode(nil, CodeUnsupportedFormat))
	assert.False(t, IsCode(errors.New("plain"), CodeUnsupportedFormat))

	// Codes survive wrapping through the standard error chain.
	wrapped := fmt.Errorf("outer: %w", e)
	assert.True(t, IsCode(wrapped, CodeUnsupportedFormat))
}

func TestSectionNotFoundCarriesIndex(t *testing.T) {
	e := sectionNotFound(5)
	assert.Equal(t, CodeSectionNotFound, e.Code)
	assert.Equal(t, 5, e.Index)
	assert.Contains(t, e.Error(), "(index 5)")
}

func TestErrorHandlerOverridesDefaultReporting(t *testing.T) {
	doc := loadBody(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)

	var calls []Code
	doc.SetErrorHandler(func(code Code, message string) {
		calls = append(calls, code)
	})

	err := doc.DeleteImage("nope")
	require.Error(t, err)
	// The handler sees the failure and the error still propagates.
	assert.Equal(t, []Code{CodeImageNotFound}, calls)
	assert.True(t, IsCode(err, CodeImageNotFound))
}
