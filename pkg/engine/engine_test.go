package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailforge/emailforge/pkg/design"
	"github.com/emailforge/emailforge/pkg/synth"
	"github.com/emailforge/emailforge/pkg/validate"
)

func TestGenerateDefaultsValidateClean(t *testing.T) {
	res, err := Default().Generate(nil)
	require.NoError(t, err)

	assert.NotEmpty(t, res.HTML)
	assert.Equal(t, 100, res.Metrics.QualityScore)
	assert.GreaterOrEqual(t, res.Metrics.Accessibility.Score, 90)
	assert.Empty(t, res.Metrics.Validation.Issues)
}

func TestGenerateRejectsInvalidModel(t *testing.T) {
	model := design.StarterModel()
	model.Components[0].Text = ""

	_, err := Default().Generate(model)

	var invalid *design.InvalidModelError
	require.ErrorAs(t, err, &invalid)
}

// A design with one image lacking alt text must surface exactly one
// auto-fixable accessibility issue, and repairing it must report exactly one
// accessibility fix.
func TestMissingAltRoundTrip(t *testing.T) {
	model := design.StarterModel()
	model.Components = append(model.Components,
		design.Block{Type: design.BlockImage, Src: "https://example.com/launch-photo.png"})

	svc := Default()

	res, err := svc.Generate(model)
	require.NoError(t, err)

	require.Len(t, res.Metrics.Accessibility.Issues, 1)
	issue := res.Metrics.Accessibility.Issues[0]
	assert.Equal(t, validate.SeverityCritical, issue.Severity)
	assert.Equal(t, "1.1.1", issue.WCAGCriterion)
	assert.True(t, issue.AutoFixable)

	fixed, err := svc.AutoFix(res.HTML)
	require.NoError(t, err)

	assert.Equal(t, 1, fixed.Summary.AccessibilityFixes)
	assert.Empty(t, fixed.Metrics.Accessibility.Issues)
	assert.Contains(t, fixed.HTML, `alt="launch photo"`)
}

func TestAutoFixMetricsDescribeRepairedDocument(t *testing.T) {
	broken := `<html><head><meta name="viewport" content="w"><title>t</title></head>` +
		`<body bgcolor="#ffffff"><table><tr><td><p>hi</body></html>`

	svc := Default()

	before, err := svc.Validate(broken)
	require.NoError(t, err)
	require.NotEmpty(t, before.Validation.Issues)

	fixed, err := svc.AutoFix(broken)
	require.NoError(t, err)

	assert.Empty(t, fixed.Metrics.Validation.Issues)
	assert.GreaterOrEqual(t, fixed.Metrics.QualityScore, before.QualityScore)
	assert.Positive(t, fixed.Summary.TagsClosed)
}

func TestAutoFixIsStableThroughTheService(t *testing.T) {
	res, err := Default().Generate(nil, synth.WithOutlookFixes(false))
	require.NoError(t, err)

	first, err := Default().AutoFix(res.HTML)
	require.NoError(t, err)

	second, err := Default().AutoFix(first.HTML)
	require.NoError(t, err)

	assert.True(t, second.Summary.IsZero())
	assert.Equal(t, first.HTML, second.HTML)
}
