// Package validate statically analyzes email HTML — synthesized or
// hand-edited — and produces a structured compliance report: structural
// integrity, WCAG-flavored accessibility, spam-filter risk and a per-client
// compatibility matrix, blended into a single quality score.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/emailforge/emailforge/pkg/compat"
	"github.com/emailforge/emailforge/pkg/htmldoc"
)

// Validator runs the compliance checks under a scoring policy. Safe for
// concurrent use; it holds no per-document state.
type Validator struct {
	policy Policy
}

// New creates a validator. Zero policy fields fall back to defaults.
func New(policy Policy) *Validator {
	return &Validator{policy: policy.withDefaults()}
}

// Validate analyzes a document with the default policy.
func Validate(html string) (*Metrics, error) {
	return New(DefaultPolicy()).Validate(html)
}

// Validate produces a fresh compliance report for the document. The input is
// never mutated. Malformed-but-parseable HTML scores low; genuinely
// unparseable input returns *htmldoc.MalformedDocumentError.
func (v *Validator) Validate(html string) (*Metrics, error) {
	doc, err := htmldoc.Parse(html)
	if err != nil {
		validationsTotal.Inc("malformed")
		return nil, err
	}

	m := &Metrics{
		ReportID:      uuid.NewString(),
		Compatibility: make(map[Client]bool, len(Clients)),
	}

	structural := v.checkStructure(doc)
	m.Accessibility = v.checkAccessibility(doc)
	m.SpamRisk = v.checkSpam(doc)
	compatIssues := v.checkCompatibility(doc, html, m.Compatibility)

	for _, issue := range gather(structural, m.Accessibility.Issues, m.SpamRisk.Issues, compatIssues) {
		issuesFound.Inc(string(issue.Category), string(issue.Severity))
		if issue.Severity == SeverityCritical {
			m.Validation.Issues = append(m.Validation.Issues, issue)
		} else {
			m.Validation.Warnings = append(m.Validation.Warnings, issue)
		}
	}

	// Fixed-weight blend; recomputed on every call, never cached.
	quality := v.policy.AccessibilityWeight*float64(m.Accessibility.Score) +
		v.policy.SpamSafetyWeight*float64(100-m.SpamRisk.Score) +
		v.policy.CompatibilityWeight*float64(m.CompatibilityPassRate())
	m.QualityScore = int(math.Round(quality))

	validationsTotal.Inc("ok")
	qualityScores.ObserveFloat(float64(m.QualityScore), "document")

	return m, nil
}

func gather(lists ...[]Issue) []Issue {
	var all []Issue
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}

// checkStructure turns every recorded tag imbalance into a critical,
// auto-fixable issue carrying the inferred line.
func (v *Validator) checkStructure(doc *htmldoc.Document) []Issue {
	issues := make([]Issue, 0, len(doc.Imbalances))
	for _, im := range doc.Imbalances {
		msg := fmt.Sprintf("unclosed <%s> tag", im.Tag)
		if im.Kind == htmldoc.ImbalanceStray {
			msg = fmt.Sprintf("stray </%s> close tag with no matching open", im.Tag)
		}
		issues = append(issues, Issue{
			Severity:    SeverityCritical,
			Category:    CategoryStructure,
			Message:     msg,
			Line:        im.Line,
			AutoFixable: true,
		})
	}
	return issues
}

func (v *Validator) checkAccessibility(doc *htmldoc.Document) AccessibilityReport {
	var issues []Issue

	doc.Walk(func(idx int, n *htmldoc.Node) {
		if n.Kind != htmldoc.KindElement {
			return
		}

		if n.Tag == "img" {
			if alt, ok := n.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
				src, _ := n.Attr("src")
				issues = append(issues, Issue{
					Severity:      SeverityCritical,
					Category:      CategoryAccessibility,
					Message:       "image is missing alternative text",
					WCAGCriterion: "1.1.1",
					Snippet:       src,
					Line:          n.Line,
					AutoFixable:   true,
				})
			}
		}

		style, _ := n.Attr("style")
		if fg, ok := htmldoc.StyleValue(style, "color"); ok {
			if bg, found := effectiveBackground(doc, idx); found {
				if ratio := compat.ContrastRatio(fg, bg); ratio < v.policy.MinContrastRatio {
					issues = append(issues, Issue{
						Severity:      SeverityWarning,
						Category:      CategoryAccessibility,
						Message:       fmt.Sprintf("text color %s on %s has contrast ratio %.2f, below the %.1f minimum", fg, bg, ratio, v.policy.MinContrastRatio),
						WCAGCriterion: "1.4.3",
						Line:          n.Line,
						AutoFixable:   false,
					})
				}
			}
		}

		if size, ok := htmldoc.StyleValue(style, "font-size"); ok {
			if px, parsed := parsePx(size); parsed && px > 0 && px < v.policy.MinTextSize && hasVisibleText(doc, idx) {
				issues = append(issues, Issue{
					Severity:      SeverityInfo,
					Category:      CategoryAccessibility,
					Message:       fmt.Sprintf("text at %dpx is below the recommended %dpx minimum", px, v.policy.MinTextSize),
					WCAGCriterion: "1.4.4",
					Line:          n.Line,
					AutoFixable:   false,
				})
			}
		}
	})

	score := 100
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical:
			score -= v.policy.CriticalWeight
		case SeverityWarning:
			score -= v.policy.WarningWeight
		default:
			score -= v.policy.InfoWeight
		}
	}
	if score < 0 {
		score = 0
	}

	level := "fail"
	switch {
	case score >= 95:
		level = "AAA"
	case score >= 85:
		level = "AA"
	case score >= 70:
		level = "A"
	}

	return AccessibilityReport{Score: score, Level: level, Issues: issues}
}

// effectiveBackground resolves the background color an element's text renders
// over: its own background-color, else the nearest ancestor with an inline
// background-color or a bgcolor attribute.
func effectiveBackground(doc *htmldoc.Document, idx int) (string, bool) {
	for i := idx; i >= 0; i = doc.Nodes[i].Parent {
		n := &doc.Nodes[i]
		if n.Kind != htmldoc.KindElement {
			continue
		}
		if style, ok := n.Attr("style"); ok {
			if bg, found := htmldoc.StyleValue(style, "background-color"); found {
				return bg, true
			}
		}
		if bg, ok := n.Attr("bgcolor"); ok && bg != "" {
			return bg, true
		}
	}
	return "", false
}

// hasVisibleText reports whether the element contains direct text beyond
// whitespace and non-breaking spaces (spacer and divider cells do not).
func hasVisibleText(doc *htmldoc.Document, idx int) bool {
	for _, c := range doc.Nodes[idx].Children {
		n := &doc.Nodes[c]
		if n.Kind != htmldoc.KindText {
			continue
		}
		text := strings.ReplaceAll(n.Text, "&nbsp;", "")
		if strings.TrimSpace(text) != "" {
			return true
		}
	}
	return false
}

func parsePx(v string) (int, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	px := 0
	if _, err := fmt.Sscanf(v, "%d", &px); err != nil {
		return 0, false
	}
	return px, true
}

var exclamationRuns = regexp.MustCompile(`!{2,}`)

func (v *Validator) checkSpam(doc *htmldoc.Document) SpamReport {
	text := visibleText(doc)
	lower := strings.ToLower(text)

	score := 0
	var issues []Issue

	for _, phrase := range v.policy.SpamPhrases {
		count := strings.Count(lower, strings.ToLower(phrase))
		if count == 0 {
			continue
		}
		score += count * v.policy.SpamPhraseScore
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategorySpam,
			Message:  fmt.Sprintf("trigger phrase %q appears %d time(s)", phrase, count),
			Snippet:  phrase,
		})
	}

	if runs := exclamationRuns.FindAllString(text, -1); len(runs) > 0 {
		score += len(runs) * v.policy.SpamPunctuationScore
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategorySpam,
			Message:  fmt.Sprintf("%d run(s) of repeated exclamation marks", len(runs)),
		})
	}

	caps := 0
	for _, word := range strings.Fields(text) {
		if len(word) >= 4 && isAllCaps(word) {
			caps++
		}
	}
	if caps > 2 {
		score += caps * v.policy.SpamCapsScore
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Category: CategorySpam,
			Message:  fmt.Sprintf("%d all-caps words shout at spam filters", caps),
		})
	}

	if score > 100 {
		score = 100
	}

	return SpamReport{Score: score, Issues: issues}
}

func isAllCaps(word string) bool {
	letters := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return letters >= 4
}

// visibleText concatenates text nodes a recipient would actually read,
// skipping style, script and title content.
func visibleText(doc *htmldoc.Document) string {
	var b strings.Builder
	var hidden func(int) bool
	hidden = func(i int) bool {
		for ; i >= 0; i = doc.Nodes[i].Parent {
			n := &doc.Nodes[i]
			if n.Kind == htmldoc.KindElement && (n.Tag == "style" || n.Tag == "script" || n.Tag == "title") {
				return true
			}
		}
		return false
	}

	doc.Walk(func(idx int, n *htmldoc.Node) {
		if n.Kind != htmldoc.KindText || hidden(idx) {
			return
		}
		b.WriteString(n.Text)
		b.WriteByte(' ')
	})
	return b.String()
}

// checkCompatibility derives the per-client booleans from the presence of
// known-unsafe constructs, in the spirit of a hand-kept client quirk list.
func (v *Validator) checkCompatibility(doc *htmldoc.Document, raw string, matrix map[Client]bool) []Issue {
	var issues []Issue

	css := collectCSS(doc)
	flat := strings.ToLower(strings.ReplaceAll(css, " ", ""))

	hasPosition := strings.Contains(flat, "position:absolute") || strings.Contains(flat, "position:fixed")
	hasFloat := strings.Contains(flat, "float:left") || strings.Contains(flat, "float:right")
	hasFlex := strings.Contains(flat, "display:flex") || strings.Contains(flat, "display:grid")
	hasBgImage := strings.Contains(flat, "background-image")
	hasMSO := strings.Contains(raw, "<!--[if mso")
	hasImport := strings.Contains(flat, "@import")
	hasStylesheetLink := hasExternalStylesheet(doc)
	hasForm := len(doc.Elements("form")) > 0
	hasIframe := len(doc.Elements("iframe")) > 0 || len(doc.Elements("embed")) > 0
	hasViewport := hasViewportMeta(doc)

	record := func(msg string, fixable bool) {
		issues = append(issues, Issue{
			Severity:    SeverityWarning,
			Category:    CategoryCompatibility,
			Message:     msg,
			AutoFixable: fixable,
		})
	}

	matrix[ClientOutlook] = true
	if hasPosition || hasFloat || hasFlex {
		matrix[ClientOutlook] = false
		record("positioned, floated or flex layout is ignored by Outlook's Word engine", false)
	}
	if hasBgImage && !hasMSO {
		matrix[ClientOutlook] = false
		record("background image has no MSO/VML fallback for Outlook", false)
	}

	matrix[ClientOutlookCom] = !hasFlex && !hasForm
	if hasForm {
		record("form elements are stripped by most webmail clients", false)
	}

	matrix[ClientGmail] = true
	if hasStylesheetLink || hasImport {
		matrix[ClientGmail] = false
		record("external stylesheets and @import are stripped by Gmail", false)
	}
	if hasForm {
		matrix[ClientGmail] = false
	}

	matrix[ClientAppleMail] = true
	if !hasViewport {
		matrix[ClientAppleMail] = false
		record("missing viewport meta tag degrades Apple Mail mobile rendering", false)
	}

	matrix[ClientYahoo] = !hasIframe && !hasPosition
	if hasIframe {
		record("iframe/embed content is blocked by webmail clients", false)
	}

	// Documents already using MSO conditionals should also declare the VML
	// namespaces; the auto-fix engine injects them.
	if hasMSO && !strings.Contains(raw, "urn:schemas-microsoft-com:vml") {
		record("MSO conditional comments present but VML namespace is not declared", true)
	}

	return issues
}

func collectCSS(doc *htmldoc.Document) string {
	var b strings.Builder
	doc.Walk(func(idx int, n *htmldoc.Node) {
		switch {
		case n.Kind == htmldoc.KindElement:
			if style, ok := n.Attr("style"); ok {
				b.WriteString(style)
				b.WriteByte(';')
			}
		case n.Kind == htmldoc.KindText && n.Parent >= 0:
			parent := &doc.Nodes[n.Parent]
			if parent.Kind == htmldoc.KindElement && parent.Tag == "style" {
				b.WriteString(n.Text)
			}
		}
	})
	return b.String()
}

func hasExternalStylesheet(doc *htmldoc.Document) bool {
	for _, idx := range doc.Elements("link") {
		if rel, ok := doc.Nodes[idx].Attr("rel"); ok && strings.EqualFold(rel, "stylesheet") {
			return true
		}
	}
	return false
}

func hasViewportMeta(doc *htmldoc.Document) bool {
	for _, idx := range doc.Elements("meta") {
		if name, ok := doc.Nodes[idx].Attr("name"); ok && strings.EqualFold(name, "viewport") {
			return true
		}
	}
	return false
}
