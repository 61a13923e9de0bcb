package compat

import (
	"fmt"
	"strings"

	"github.com/emailforge/emailforge/pkg/design"
)

// roleSelectors maps palette roles to the CSS selectors dark-mode overrides
// target. Roles without a selector are exposed as class hooks only.
var roleSelectors = map[design.Role]string{
	design.RoleBackground:    "body, .ef-body",
	design.RoleText:          ".ef-text, h1, h2, h3, p",
	design.RoleSecondaryText: ".ef-secondary",
	design.RoleLink:          "a, .ef-link",
	design.RoleBorder:        ".ef-border",
	design.RoleSuccess:       ".ef-success",
	design.RoleWarning:       ".ef-warning",
	design.RoleError:         ".ef-error",
}

// roleProperty: background uses background-color, everything else colors text.
func roleProperty(role design.Role) string {
	if role == design.RoleBackground {
		return "background-color"
	}
	return "color"
}

// DarkModeBlock emits the dark-mode stylesheet for a light/dark palette pair.
// The same color values are emitted through two redundant mechanisms, because
// no single one is honored by all clients: a prefers-color-scheme media query
// and a [data-ogsc] attribute block (Gmail's webmail dark-mode hook). The
// synthesis engine adds the third mechanism, inline !important overrides.
func DarkModeBlock(light, dark design.Palette) string {
	var b strings.Builder

	b.WriteString("@media (prefers-color-scheme: dark) {\n")
	writeRoleRules(&b, dark, "  ", "")
	b.WriteString("}\n")

	// Gmail ignores prefers-color-scheme but rewrites the document root with
	// data-ogsc when its own dark mode is on.
	writeRoleRules(&b, dark, "", "[data-ogsc] ")

	return b.String()
}

func writeRoleRules(b *strings.Builder, p design.Palette, indent, prefix string) {
	for _, role := range design.Roles {
		hex, ok := p[role]
		if !ok {
			continue
		}
		selectors := strings.Split(roleSelectors[role], ", ")
		for i, sel := range selectors {
			if i > 0 {
				b.WriteString(", ")
			} else {
				b.WriteString(indent)
			}
			b.WriteString(prefix + sel)
		}
		fmt.Fprintf(b, " { %s: %s !important; }\n", roleProperty(role), hex)
	}
}

// GmailDarkModeSupport returns the additive Gmail-specific fragment. Omitting
// it must not break any other fragment; it is independently valid CSS.
func GmailDarkModeSupport() string {
	return "u + .ef-body .ef-gmail-fix { display: block !important; }\n" +
		"[data-ogsc] img.ef-dark-hide, [data-ogsb] img.ef-dark-hide { display: none !important; }\n" +
		"[data-ogsc] img.ef-dark-show, [data-ogsb] img.ef-dark-show { display: block !important; }\n"
}

// AppleMailDarkModeSupport returns the additive Apple Mail fragment. Apple
// Mail honors prefers-color-scheme only when the document declares both
// schemes via meta tags and the root color-scheme property.
func AppleMailDarkModeSupport() string {
	return ":root { color-scheme: light dark; supported-color-schemes: light dark; }\n" +
		"@media (prefers-color-scheme: dark) {\n" +
		"  img.ef-dark-hide { display: none !important; }\n" +
		"  img.ef-dark-show { display: block !important; }\n" +
		"}\n"
}
