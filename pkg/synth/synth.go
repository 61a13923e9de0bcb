// Package synth converts a design block model into a complete, self-contained
// email document: nested table layout, inline styles, and the vendor
// compatibility hooks (MSO conditionals, dark-mode overrides, responsive
// collapse) that keep the markup rendering consistently across mail clients.
package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/emailforge/emailforge/pkg/compat"
	"github.com/emailforge/emailforge/pkg/design"
)

// Options configures document synthesis.
type Options struct {
	IncludeOutlookFixes bool   // mso conditional comments and VML namespaces
	IncludeDarkMode     bool   // prefers-color-scheme + data-ogsc overrides
	IncludeResponsive   bool   // 600px breakpoint collapsing columns
	Title               string
	BackgroundColor     string // outer canvas; defaults to the palette background
	BodyColor           string // content table; defaults to white
}

// Option configures the synthesis engine.
type Option func(*Options)

// WithOutlookFixes toggles MSO conditional comments and VML fallbacks.
func WithOutlookFixes(enabled bool) Option {
	return func(o *Options) { o.IncludeOutlookFixes = enabled }
}

// WithDarkMode toggles the dark-mode stylesheet and color-scheme metas.
func WithDarkMode(enabled bool) Option {
	return func(o *Options) { o.IncludeDarkMode = enabled }
}

// WithResponsive toggles the 600px single-column media query.
func WithResponsive(enabled bool) Option {
	return func(o *Options) { o.IncludeResponsive = enabled }
}

// WithTitle sets the document title. The value is HTML-escaped on insertion.
func WithTitle(title string) Option {
	return func(o *Options) { o.Title = title }
}

// WithBackgroundColor sets the outer canvas color.
func WithBackgroundColor(hex string) Option {
	return func(o *Options) { o.BackgroundColor = hex }
}

// WithBodyColor sets the content table color.
func WithBodyColor(hex string) Option {
	return func(o *Options) { o.BodyColor = hex }
}

func defaultOptions() *Options {
	return &Options{
		IncludeOutlookFixes: true,
		IncludeDarkMode:     true,
		IncludeResponsive:   true,
		Title:               "Email template",
	}
}

// contentWidth is the fixed content table width. 600px survives every
// desktop client's preview pane.
const contentWidth = "600"

// Synthesize renders the model into a complete HTML document. A nil model
// falls back to design.StarterModel so basic generation always succeeds.
// Given identical arguments the output is byte-identical.
//
// Only the title is escaped; block text is trusted, pre-sanitized design
// content. That boundary is deliberate: escaping everywhere would rewrite
// hand-edited entities and break the auto-fix round-trip guarantees.
func Synthesize(model *design.Model, opts ...Option) (string, error) {
	start := time.Now()

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if model == nil {
		model = design.StarterModel()
	}
	if err := model.Validate(); err != nil {
		return "", err
	}

	light := model.Colors.Light
	dark := model.Colors.Dark
	if len(dark) == 0 {
		dark = design.DefaultDark
	}

	bg := options.BackgroundColor
	if bg == "" {
		if v, ok := light[design.RoleBackground]; ok {
			bg = v
		} else {
			bg = "#f4f4f7"
		}
	}
	body := options.BodyColor
	if body == "" {
		body = "#ffffff"
	}

	family := "Helvetica Neue"
	if len(model.Typography.Families) > 0 {
		family = model.Typography.Families[0]
	}

	rc := renderContext{
		opts:   options,
		light:  light,
		dark:   dark,
		stack:  fontStack(family),
		body:   body,
		canvas: bg,
	}

	var b strings.Builder
	writeHead(&b, rc)
	writeBody(&b, rc, model.Components)
	b.WriteString("</html>\n")

	synthDuration.ObserveFloat(time.Since(start).Seconds(), model.Style)
	documentsSynthesized.Inc(model.Style)

	return b.String(), nil
}

// renderContext carries the resolved colors and fonts every block renderer
// needs.
type renderContext struct {
	opts   *Options
	light  design.Palette
	dark   design.Palette
	stack  string
	body   string
	canvas string
}

func (rc renderContext) role(r design.Role, fallback string) string {
	if v, ok := rc.light[r]; ok {
		return v
	}
	return fallback
}

func writeHead(b *strings.Builder, rc renderContext) {
	b.WriteString(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">` + "\n")

	if rc.opts.IncludeOutlookFixes {
		b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:v="urn:schemas-microsoft-com:vml" xmlns:o="urn:schemas-microsoft-com:office:office">` + "\n")
	} else {
		b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml">` + "\n")
	}

	b.WriteString("<head>\n")
	b.WriteString(`<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0" />` + "\n")
	if rc.opts.IncludeDarkMode {
		b.WriteString(`<meta name="color-scheme" content="light dark" />` + "\n")
		b.WriteString(`<meta name="supported-color-schemes" content="light dark" />` + "\n")
	}
	fmt.Fprintf(b, "<title>%s</title>\n", escapeTitle(rc.opts.Title))

	if rc.opts.IncludeOutlookFixes {
		// Force Outlook to render at 96 DPI instead of scaling the layout.
		b.WriteString("<!--[if mso]>\n<xml><o:OfficeDocumentSettings><o:PixelsPerInch>96</o:PixelsPerInch></o:OfficeDocumentSettings></xml>\n<![endif]-->\n")
	}

	b.WriteString(`<style type="text/css">` + "\n")
	writeResets(b, rc)
	if rc.opts.IncludeResponsive {
		writeResponsive(b)
	}
	if rc.opts.IncludeDarkMode {
		b.WriteString(compat.DarkModeBlock(rc.light, rc.dark))
		b.WriteString(compat.GmailDarkModeSupport())
		b.WriteString(compat.AppleMailDarkModeSupport())
	}
	b.WriteString("</style>\n")
	b.WriteString("</head>\n")
}

func writeResets(b *strings.Builder, rc renderContext) {
	b.WriteString("body, table, td, p, a { -webkit-text-size-adjust: 100%; -ms-text-size-adjust: 100%; }\n")
	b.WriteString("table, td { mso-table-lspace: 0pt; mso-table-rspace: 0pt; border-collapse: collapse; }\n")
	b.WriteString("img { -ms-interpolation-mode: bicubic; border: 0; line-height: 100%; outline: none; text-decoration: none; }\n")
	fmt.Fprintf(b, "body { margin: 0; padding: 0; width: 100%%; background-color: %s; }\n", rc.canvas)
}

func writeResponsive(b *strings.Builder) {
	b.WriteString("@media only screen and (max-width: 600px) {\n")
	b.WriteString("  .ef-content { width: 100% !important; }\n")
	b.WriteString("  .ef-col { display: block !important; width: 100% !important; }\n")
	b.WriteString("}\n")
}

func writeBody(b *strings.Builder, rc renderContext, blocks []design.Block) {
	fmt.Fprintf(b, `<body class="ef-body" style="margin: 0; padding: 0;" bgcolor="%s">`+"\n", rc.canvas)

	// Two nested tables: the outer 100%-width table defends against
	// inconsistent default body margins, the inner fixed-width table centers
	// the content.
	fmt.Fprintf(b, `<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" bgcolor="%s">`+"\n", rc.canvas)
	b.WriteString(`<tr><td align="center" style="padding: 24px 12px;">` + "\n")

	if rc.opts.IncludeOutlookFixes {
		// Outlook ignores max-width; the conditional table pins 600px there.
		fmt.Fprintf(b, "<!--[if mso]><table role=\"presentation\" width=\"%s\" cellpadding=\"0\" cellspacing=\"0\" border=\"0\"><tr><td><![endif]-->\n", contentWidth)
	}

	fmt.Fprintf(b, `<table role="presentation" class="ef-content" width="%s" cellpadding="0" cellspacing="0" border="0" bgcolor="%s" style="border-collapse: collapse; max-width: %spx; width: 100%%;">`+"\n",
		contentWidth, rc.body, contentWidth)

	for _, block := range blocks {
		b.WriteString(renderBlock(block, rc))
	}

	b.WriteString("</table>\n")

	if rc.opts.IncludeOutlookFixes {
		b.WriteString("<!--[if mso]></td></tr></table><![endif]-->\n")
	}

	b.WriteString("</td></tr>\n</table>\n</body>\n")
}

// escapeTitle escapes the five HTML-significant characters in the
// user-supplied title. The only place user content is escaped; see the
// Synthesize doc comment.
var titleEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeTitle(s string) string {
	return titleEscaper.Replace(s)
}
