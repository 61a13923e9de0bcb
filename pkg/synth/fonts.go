package synth

import (
	"fmt"
	"strings"
)

// fontStack returns a CSS font stack with email-safe fallbacks for the given
// primary family. Families are classified by name; most design-supplied fonts
// are sans-serif.
func fontStack(primary string) string {
	lower := strings.ToLower(primary)

	kind := "sans"
	if strings.Contains(lower, "serif") && !strings.Contains(lower, "sans") {
		kind = "serif"
	} else if strings.Contains(lower, "mono") || strings.Contains(lower, "code") || strings.Contains(lower, "courier") {
		kind = "mono"
	}

	stack := fmt.Sprintf("'%s'", primary)
	switch kind {
	case "serif":
		stack += ", Georgia, 'Times New Roman', Times, serif"
	case "mono":
		stack += ", 'Courier New', Courier, 'Lucida Console', monospace"
	default:
		stack += ", Arial, Helvetica, sans-serif"
	}
	return stack
}
