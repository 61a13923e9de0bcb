package validate

// Policy is the externally supplied scoring table: issue weights, thresholds,
// spam trigger phrases and quality-score weights. The zero value of any field
// falls back to the default below, so a partial config file only overrides
// what it names. Loaded with go-zero conf in the daemon and CLI.
type Policy struct {
	// Accessibility score deductions per issue severity.
	CriticalWeight int `json:",default=25"`
	WarningWeight  int `json:",default=10"`
	InfoWeight     int `json:",default=3"`

	// Minimum luminance contrast ratio between inline text and background
	// colors. Scaled to the perceptual-luminance ratio, not the WCAG sRGB
	// one; 2.0 corresponds roughly to the AA threshold on that scale.
	MinContrastRatio float64 `json:",default=2.0"`

	// Minimum font size (px) before visible text draws an info issue.
	MinTextSize int `json:",default=12"`

	// Spam risk increments.
	SpamPhraseScore      int `json:",default=8"`
	SpamPunctuationScore int `json:",default=5"`
	SpamCapsScore        int `json:",default=4"`

	// Trigger phrases matched case-insensitively against visible text.
	SpamPhrases []string `json:",optional"`

	// Quality-score blend. Must sum to 1.
	AccessibilityWeight float64 `json:",default=0.4"`
	SpamSafetyWeight    float64 `json:",default=0.3"`
	CompatibilityWeight float64 `json:",default=0.3"`
}

// defaultSpamPhrases is the literal trigger-phrase list. Policy, not derived;
// override it wholesale via config when it misfires.
var defaultSpamPhrases = []string{
	"free",
	"click here",
	"act now",
	"limited time",
	"winner",
	"congratulations",
	"no obligation",
	"risk free",
	"order now",
	"double your",
	"earn money",
	"urgent",
	"100% guaranteed",
}

// DefaultPolicy returns the policy with every default filled in.
func DefaultPolicy() Policy {
	return Policy{}.withDefaults()
}

// withDefaults fills zero fields so a Policy built in code behaves like one
// loaded through conf defaults.
func (p Policy) withDefaults() Policy {
	if p.CriticalWeight == 0 {
		p.CriticalWeight = 25
	}
	if p.WarningWeight == 0 {
		p.WarningWeight = 10
	}
	if p.InfoWeight == 0 {
		p.InfoWeight = 3
	}
	if p.MinContrastRatio == 0 {
		p.MinContrastRatio = 2.0
	}
	if p.MinTextSize == 0 {
		p.MinTextSize = 12
	}
	if p.SpamPhraseScore == 0 {
		p.SpamPhraseScore = 8
	}
	if p.SpamPunctuationScore == 0 {
		p.SpamPunctuationScore = 5
	}
	if p.SpamCapsScore == 0 {
		p.SpamCapsScore = 4
	}
	if len(p.SpamPhrases) == 0 {
		p.SpamPhrases = defaultSpamPhrases
	}
	if p.AccessibilityWeight == 0 {
		p.AccessibilityWeight = 0.4
	}
	if p.SpamSafetyWeight == 0 {
		p.SpamSafetyWeight = 0.3
	}
	if p.CompatibilityWeight == 0 {
		p.CompatibilityWeight = 0.3
	}
	return p
}
