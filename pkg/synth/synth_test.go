package synth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailforge/emailforge/pkg/design"
	"github.com/emailforge/emailforge/pkg/htmldoc"
)

func TestSynthesizeDefaultsAreComplete(t *testing.T) {
	html, err := Synthesize(nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html"))
	assert.Contains(t, html, `<meta name="color-scheme" content="light dark" />`)
	assert.Contains(t, html, `<meta name="supported-color-schemes" content="light dark" />`)
	assert.Contains(t, html, `<meta name="viewport"`)
	assert.Contains(t, html, `xmlns:v="urn:schemas-microsoft-com:vml"`)
	assert.Contains(t, html, "<!--[if mso]>")
	assert.Contains(t, html, "prefers-color-scheme: dark")
	assert.Contains(t, html, "@media only screen and (max-width: 600px)")
	assert.Contains(t, html, "Welcome to your new template")
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	model := design.StarterModel()
	model.Components = append(model.Components,
		design.Block{Type: design.BlockDivider},
		design.Block{Type: design.BlockDataRow, Cells: []string{"Order", "#1042", "Shipped"}},
		design.Block{Type: design.BlockImage, Src: "https://example.com/hero.png", Alt: "Hero"},
	)

	first, err := Synthesize(model, WithTitle("Receipt"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Synthesize(model, WithTitle("Receipt"))
		require.NoError(t, err)
		assert.Equal(t, first, again, "run %d differed", i)
	}
}

func TestSynthesizeOutputParsesCleanly(t *testing.T) {
	html, err := Synthesize(nil)
	require.NoError(t, err)

	doc, err := htmldoc.Parse(html)
	require.NoError(t, err)
	assert.Empty(t, doc.Imbalances)
}

func TestSynthesizeOptionToggles(t *testing.T) {
	html, err := Synthesize(nil,
		WithOutlookFixes(false),
		WithDarkMode(false),
		WithResponsive(false),
	)
	require.NoError(t, err)

	assert.NotContains(t, html, "[if mso]")
	assert.NotContains(t, html, "xmlns:v")
	assert.NotContains(t, html, "color-scheme")
	assert.NotContains(t, html, "prefers-color-scheme")
	assert.NotContains(t, html, "@media only screen")
}

func TestSynthesizeEscapesTitleOnly(t *testing.T) {
	model := design.StarterModel()
	model.Components[1].Text = `Entities like &amp; stay <em>verbatim</em>`

	html, err := Synthesize(model, WithTitle(`Q3 <Report> & "Review"`))
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Q3 &lt;Report&gt; &amp; &quot;Review&quot;</title>")
	assert.Contains(t, html, `Entities like &amp; stay <em>verbatim</em>`)
}

func TestSynthesizeRejectsInvalidModel(t *testing.T) {
	model := design.StarterModel()
	model.Components[0].Text = ""

	_, err := Synthesize(model)

	var invalid *design.InvalidModelError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Missing, "components[0].text")
}

func TestSynthesizeStyleOverridesKeepOrder(t *testing.T) {
	model := design.StarterModel()
	model.Components[1].Style = design.StyleOverrides{
		design.StyleColor:    "#2f7d32",
		design.StyleFontSize: "18px",
	}

	html, err := Synthesize(model)
	require.NoError(t, err)

	// Overrides replace the base declarations in place.
	assert.Contains(t, html, "color: #2f7d32; font-family:")
	assert.Contains(t, html, "font-size: 18px;")
}

func TestSynthesizeButtonContrast(t *testing.T) {
	light := design.Palette{}
	for role, hex := range design.DefaultLight {
		light[role] = hex
	}
	light[design.RoleLink] = "#f4f49a" // pale button needs dark label

	model := design.StarterModel()
	model.Colors.Light = light

	html, err := Synthesize(model)
	require.NoError(t, err)
	assert.Contains(t, html, `color: #1a1a1a; background-color: #f4f49a;`)
}

func TestSynthesizeCustomCanvasColors(t *testing.T) {
	html, err := Synthesize(nil, WithBackgroundColor("#10131a"), WithBodyColor("#1c2030"))
	require.NoError(t, err)

	assert.Contains(t, html, `bgcolor="#10131a"`)
	assert.Contains(t, html, `bgcolor="#1c2030"`)
}

func TestFontStackClassification(t *testing.T) {
	tests := []struct {
		family string
		want   string
	}{
		{"Source Serif Pro", "serif"},
		{"Courier New", "monospace"},
		{"Helvetica Neue", "sans-serif"},
	}
	for _, tt := range tests {
		stack := fontStack(tt.family)
		assert.True(t, strings.HasPrefix(stack, "'"+tt.family+"'") || strings.HasPrefix(stack, tt.family),
			"stack %q must lead with the requested family", stack)
		assert.True(t, strings.HasSuffix(stack, tt.want), "stack %q must end with %s", stack, tt.want)
	}
}

func TestSynthesizeRejectsUnknownBlockType(t *testing.T) {
	model := design.StarterModel()
	model.Components = append(model.Components, design.Block{Type: "carousel", Text: "x"})

	_, err := Synthesize(model)
	require.Error(t, err)
	var invalid *design.InvalidModelError
	assert.True(t, errors.As(err, &invalid))
}
