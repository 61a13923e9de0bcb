package validate

// Severity grades a validation issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Category names the check family an issue came from.
type Category string

const (
	CategoryStructure     Category = "structure"
	CategoryAccessibility Category = "accessibility"
	CategorySpam          Category = "spam"
	CategoryCompatibility Category = "compatibility"
	CategoryCSS           Category = "css"
)

// Issue is one finding. Findings are data, never errors: a bad document
// validates successfully and simply scores low.
type Issue struct {
	Severity      Severity `json:"severity"`
	Category      Category `json:"category"`
	Message       string   `json:"message"`
	WCAGCriterion string   `json:"wcagCriterion,omitempty"`
	Snippet       string   `json:"snippet,omitempty"`
	Line          int      `json:"line,omitempty"`
	AutoFixable   bool     `json:"autoFixable"`
}

// AccessibilityReport scores WCAG-flavored findings.
type AccessibilityReport struct {
	Score  int     `json:"score"` // 100 minus per-severity weights, floored at 0
	Level  string  `json:"level"` // AAA, AA, A or fail
	Issues []Issue `json:"issues"`
}

// SpamReport is the heuristic spam-filter risk estimate.
type SpamReport struct {
	Score  int     `json:"score"` // 0 safe .. 100 certain flag
	Issues []Issue `json:"issues"`
}

// Client identifies one mail-client rendering engine in the fixed
// compatibility set.
type Client string

const (
	ClientOutlook    Client = "outlook"
	ClientOutlookCom Client = "outlookCom"
	ClientGmail      Client = "gmail"
	ClientAppleMail  Client = "appleMail"
	ClientYahoo      Client = "yahoo"
)

// Clients lists the compatibility matrix columns in reporting order.
var Clients = []Client{
	ClientOutlook, ClientOutlookCom, ClientGmail, ClientAppleMail, ClientYahoo,
}

// ValidationReport splits findings by weight: Issues carries critical
// findings, Warnings everything advisory.
type ValidationReport struct {
	Issues   []Issue `json:"issues"`
	Warnings []Issue `json:"warnings"`
}

// Metrics is the full compliance report for one document. Produced fresh on
// every call and never cached.
type Metrics struct {
	ReportID      string              `json:"reportId"`
	QualityScore  int                 `json:"qualityScore"`
	Accessibility AccessibilityReport `json:"accessibility"`
	SpamRisk      SpamReport          `json:"spamRisk"`
	Compatibility map[Client]bool     `json:"compatibility"`
	Validation    ValidationReport    `json:"validation"`
}

// CompatibilityPassRate returns the percentage of clients the document is
// expected to render safely on.
func (m *Metrics) CompatibilityPassRate() int {
	if len(m.Compatibility) == 0 {
		return 0
	}
	pass := 0
	for _, ok := range m.Compatibility {
		if ok {
			pass++
		}
	}
	return pass * 100 / len(m.Compatibility)
}
