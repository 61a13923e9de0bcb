package autofix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailforge/emailforge/pkg/htmldoc"
	"github.com/emailforge/emailforge/pkg/validate"
)

const messyDoc = `<!DOCTYPE html>
<html>
<head><title>Newsletter</title></head>
<body>
<table><tr><td style="color:#fff;color:#1a1a1a;font-size:16px">
<p>Welcome back
<img src="/assets/hero-banner.png" width="520">
</td></tr>
</body>
</html>`

func TestFixClosesUnclosedTags(t *testing.T) {
	out, sum, err := Fix(messyDoc)
	require.NoError(t, err)

	// The p and table never close in the input.
	assert.Equal(t, 2, sum.TagsClosed)

	doc, err := htmldoc.Parse(out)
	require.NoError(t, err)
	assert.Empty(t, doc.Imbalances)
}

func TestFixDropsStrayCloseTags(t *testing.T) {
	in := `<html><body><table><tr><td>x</td></tr></table></span></body></html>`
	out, sum, err := Fix(in)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.StructuralFixes)
	assert.NotContains(t, out, "</span>")
}

func TestFixInjectsPlaceholderAlt(t *testing.T) {
	tests := []struct {
		name string
		img  string
		want string
	}{
		{"from file name", `<img src="/assets/hero-banner.png">`, `alt="hero banner"`},
		{"underscores", `<img src="logo_dark.png">`, `alt="logo dark"`},
		{"no src", `<img>`, `alt="Image"`},
		{"empty alt", `<img src="x.png" alt="">`, `alt="x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, sum, err := Fix(`<html><body>` + tt.img + `</body></html>`)
			require.NoError(t, err)
			assert.Equal(t, 1, sum.AccessibilityFixes)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestFixKeepsExistingAlt(t *testing.T) {
	_, sum, err := Fix(`<html><body><img src="x.png" alt="Launch photo"></body></html>`)
	require.NoError(t, err)
	assert.Zero(t, sum.AccessibilityFixes)
}

func TestFixNormalizesInlineCSS(t *testing.T) {
	in := `<html><body><p style="color:#fff;color:#000;font-size:16px">hi</p></body></html>`
	out, sum, err := Fix(in)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.CSSNormalizations)
	assert.Contains(t, out, `style="color: #000; font-size: 16px;"`)
	assert.NotContains(t, out, "#fff")
}

func TestFixHardensBareButtons(t *testing.T) {
	in := `<html><body><table><tr>` +
		`<td align="center" bgcolor="#3869d4">` +
		`<a href="https://example.com" style="background-color: #3869d4; display: inline-block;">Go</a>` +
		`</td></tr></table></body></html>`

	out, sum, err := Fix(in)
	require.NoError(t, err)

	// One padding wrap plus the namespace declarations the new MSO comments
	// now require.
	assert.Equal(t, 2, sum.OutlookHardening)
	assert.Equal(t, 2, strings.Count(out, "<!--[if mso]>&nbsp;&nbsp;&nbsp;&nbsp;<![endif]-->"))
	assert.Contains(t, out, `xmlns:v="urn:schemas-microsoft-com:vml"`)
	assert.Contains(t, out, `xmlns:o="urn:schemas-microsoft-com:office:office"`)
}

func TestFixLeavesHardenedButtonsAlone(t *testing.T) {
	in := `<html xmlns:v="urn:schemas-microsoft-com:vml" xmlns:o="urn:schemas-microsoft-com:office:office"><body><table><tr>` +
		`<td align="center" bgcolor="#3869d4">` +
		`<!--[if mso]>&nbsp;&nbsp;&nbsp;&nbsp;<![endif]-->` +
		`<a href="https://example.com" style="background-color: #3869d4; display: inline-block;">Go</a>` +
		`<!--[if mso]>&nbsp;&nbsp;&nbsp;&nbsp;<![endif]-->` +
		`</td></tr></table></body></html>`

	_, sum, err := Fix(in)
	require.NoError(t, err)
	assert.Zero(t, sum.OutlookHardening)
}

func TestFixIsIdempotent(t *testing.T) {
	first, sum1, err := Fix(messyDoc)
	require.NoError(t, err)
	assert.Positive(t, sum1.Total())

	second, sum2, err := Fix(first)
	require.NoError(t, err)

	assert.True(t, sum2.IsZero(), "second pass applied repairs: %+v", sum2)
	assert.Equal(t, first, second, "second pass changed bytes")
}

func TestFixNeverLowersQualityScore(t *testing.T) {
	before, err := validate.Validate(messyDoc)
	require.NoError(t, err)

	fixed, _, err := Fix(messyDoc)
	require.NoError(t, err)

	after, err := validate.Validate(fixed)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, after.QualityScore, before.QualityScore)
}

func TestFixFlagsStrandedContent(t *testing.T) {
	in := "<html><body><p>inside</p></body></html>\nstranded text"
	out, sum, err := Fix(in)
	require.NoError(t, err)

	require.Len(t, sum.Unresolved, 1)
	assert.Contains(t, sum.Unresolved[0], "left in place")
	assert.Contains(t, out, "stranded text")
}

func TestFixRejectsUnparseableInput(t *testing.T) {
	_, _, err := Fix("just words, no markup")
	var malformed *htmldoc.MalformedDocumentError
	require.ErrorAs(t, err, &malformed)
}
