// Package converter invokes the external document converter that turns a
// populated package into its delivery format (PDF, HTML, ...). The engine
// never converts itself; this adapter only shells out and classifies
// failures.
package converter

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/philip-sorokin/word-template-engine/internal/config"
	"github.com/philip-sorokin/word-template-engine/pkg/document"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// supportedFormats whitelists the target formats the converter accepts.
var supportedFormats = map[string]bool{
	"pdf":  true,
	"html": true,
	"docx": true,
	"odt":  true,
	"rtf":  true,
	"txt":  true,
}

// Converter runs one external conversion at a time.
type Converter struct {
	binary     string
	timeout    time.Duration
	locale     string
	filterSpec string
	log        *zap.Logger
}

// New builds a converter from configuration.
func New(cfg config.ConverterConfig, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Converter{
		binary:     cfg.Binary,
		timeout:    timeout,
		locale:     cfg.Locale,
		filterSpec: cfg.FilterSpec,
		log:        log,
	}
}

// Convert turns packagePath into targetFormat next to the input file and
// returns the output path. filterSpec qualifies the target format
// ("pdf:writer_pdf_Export") and falls back to the configured filter
// specification; locale overrides the configured converter locale.
func (c *Converter) Convert(ctx context.Context, packagePath, targetFormat, filterSpec, locale string) (string, error) {
	if packagePath == "" {
		return "", document.NewError(document.CodeEmptyDestination, "no package to convert")
	}
	format := strings.ToLower(strings.TrimSpace(targetFormat))
	if !supportedFormats[format] {
		return "", document.NewError(document.CodeUnsupportedFormat, "format %q is not supported", targetFormat)
	}
	binary, err := exec.LookPath(c.binary)
	if err != nil {
		return "", document.WrapError(document.CodeConverterBinaryMissing, err,
			"converter binary %q not found", c.binary)
	}

	if locale == "" {
		locale = c.locale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	convertTo := c.target(format, filterSpec)
	outDir := filepath.Dir(packagePath)

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, binary,
		"--headless", "--norestore",
		"--convert-to", convertTo,
		"--outdir", outDir,
		packagePath)
	cmd.Env = append(os.Environ(), "LC_ALL="+tag.String())

	c.log.Debug("invoking converter",
		zap.String("binary", binary),
		zap.String("format", convertTo),
		zap.String("input", packagePath),
		zap.String("locale", tag.String()))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", document.WrapError(document.CodeConverterUnavailable, err,
			"converter failed: %s", strings.TrimSpace(string(output)))
	}

	base := strings.TrimSuffix(filepath.Base(packagePath), filepath.Ext(packagePath))
	outputPath := filepath.Join(outDir, base+"."+format)
	if _, err := os.Stat(outputPath); err != nil {
		return "", document.WrapError(document.CodeConverterUnavailable, err,
			"converter produced no output at %s", outputPath)
	}
	return outputPath, nil
}

// target renders the convert-to argument, falling back to the configured
// filter specification when the call supplies none.
func (c *Converter) target(format, filterSpec string) string {
	if filterSpec == "" {
		filterSpec = c.filterSpec
	}
	if filterSpec == "" {
		return format
	}
	return format + ":" + filterSpec
}

// FormatSupported reports whether the converter accepts the target format.
func FormatSupported(format string) bool {
	return supportedFormats[strings.ToLower(strings.TrimSpace(format))]
}
