package synth

import (
	"fmt"
	"strings"

	"github.com/emailforge/emailforge/pkg/compat"
	"github.com/emailforge/emailforge/pkg/design"
)

// decl is one inline CSS declaration. Renderers build fixed base declaration
// lists and merge the block's overrides into them, so the same block always
// serializes to the same bytes.
type decl struct {
	prop design.StyleProperty
	val  string
}

// styleOf merges overrides into base declarations and serializes them.
// Overridden base properties keep their position; new properties append in
// the fixed design.StylePropertyOrder. Never map-ordered.
func styleOf(base []decl, overrides design.StyleOverrides) string {
	merged := make([]decl, len(base))
	copy(merged, base)

	used := make(map[design.StyleProperty]bool, len(base))
	for i := range merged {
		if v, ok := overrides[merged[i].prop]; ok {
			merged[i].val = v
		}
		used[merged[i].prop] = true
	}
	for _, prop := range design.StylePropertyOrder {
		if v, ok := overrides[prop]; ok && !used[prop] {
			merged = append(merged, decl{prop, v})
		}
	}

	parts := make([]string, len(merged))
	for i, d := range merged {
		parts[i] = fmt.Sprintf("%s: %s;", d.prop, d.val)
	}
	return strings.Join(parts, " ")
}

// renderBlock emits one self-contained table fragment for the block, then any
// nested children as further fragments. No fragment depends on its siblings.
func renderBlock(b design.Block, rc renderContext) string {
	var out strings.Builder

	switch b.Type {
	case design.BlockHeading:
		out.WriteString(renderHeading(b, rc))
	case design.BlockText:
		out.WriteString(renderText(b, rc))
	case design.BlockButton:
		out.WriteString(renderButton(b, rc))
	case design.BlockImage:
		out.WriteString(renderImage(b, rc))
	case design.BlockDivider:
		out.WriteString(renderDivider(b, rc))
	case design.BlockSpacer:
		out.WriteString(renderSpacer(b, rc))
	case design.BlockDataRow:
		out.WriteString(renderDataRow(b, rc))
	}

	for _, child := range b.Children {
		out.WriteString(renderBlock(child, rc))
	}

	return out.String()
}

var headingSizes = map[int]string{1: "28px", 2: "22px", 3: "18px"}

func renderHeading(b design.Block, rc renderContext) string {
	level := b.Level
	if level < 1 || level > 3 {
		level = 1
	}
	style := styleOf([]decl{
		{design.StyleColor, rc.role(design.RoleText, "#1a1a1a")},
		{design.StyleFontFamily, rc.stack},
		{design.StyleFontSize, headingSizes[level]},
		{design.StyleFontWeight, "bold"},
		{design.StyleLineHeight, "1.3"},
	}, b.Style)

	return fmt.Sprintf(`<tr><td class="ef-text" style="padding: 24px 40px 12px;"><h%d style="margin: 0; %s">%s</h%d></td></tr>`+"\n",
		level, style, b.Text, level)
}

func renderText(b design.Block, rc renderContext) string {
	style := styleOf([]decl{
		{design.StyleColor, rc.role(design.RoleText, "#1a1a1a")},
		{design.StyleFontFamily, rc.stack},
		{design.StyleFontSize, "16px"},
		{design.StyleLineHeight, "1.6"},
	}, b.Style)

	return fmt.Sprintf(`<tr><td class="ef-text" style="padding: 8px 40px;"><p style="margin: 0; %s">%s</p></td></tr>`+"\n",
		style, b.Text)
}

// renderButton emits the bulletproof button pattern: a table cell carrying
// the background, an inline-block anchor, and MSO non-breaking-space padding
// so Outlook's Word engine does not collapse the click target.
func renderButton(b design.Block, rc renderContext) string {
	bg := rc.role(design.RoleLink, "#3869d4")
	fg := compat.ContrastingColor(bg)

	style := styleOf([]decl{
		{design.StyleColor, fg},
		{design.StyleBackgroundColor, bg},
		{design.StyleFontFamily, rc.stack},
		{design.StyleFontSize, "16px"},
		{design.StyleFontWeight, "bold"},
		{design.StylePadding, "12px 32px"},
		{design.StyleBorderRadius, "4px"},
	}, b.Style)

	var out strings.Builder
	out.WriteString(`<tr><td align="center" style="padding: 24px 40px;">` + "\n")
	out.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" border="0"><tr>` + "\n")
	fmt.Fprintf(&out, `<td align="center" bgcolor="%s" style="border-radius: 4px;">`, bg)
	msoPad := ""
	if rc.opts.IncludeOutlookFixes {
		msoPad = "<!--[if mso]>&nbsp;&nbsp;&nbsp;&nbsp;<![endif]-->"
	}
	fmt.Fprintf(&out, `%s<a href="%s" target="_blank" style="display: inline-block; text-decoration: none; %s">%s</a>%s`,
		msoPad, b.Href, style, b.Text, msoPad)
	out.WriteString("</td>\n</tr></table>\n</td></tr>\n")
	return out.String()
}

func renderImage(b design.Block, rc renderContext) string {
	style := styleOf([]decl{
		{design.StyleWidth, "100%"},
		{design.StyleHeight, "auto"},
	}, b.Style)

	alt := ""
	if b.Alt != "" {
		alt = fmt.Sprintf(` alt="%s"`, b.Alt)
	}

	return fmt.Sprintf(`<tr><td align="center" style="padding: 16px 40px;"><img src="%s"%s width="520" style="display: block; max-width: 100%%; %s" /></td></tr>`+"\n",
		b.Src, alt, style)
}

func renderDivider(b design.Block, rc renderContext) string {
	style := styleOf([]decl{
		{design.StyleBackgroundColor, rc.role(design.RoleBorder, "#eaeaec")},
		{design.StyleFontSize, "0"},
		{design.StyleLineHeight, "0"},
	}, b.Style)

	return `<tr><td style="padding: 16px 40px;"><table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0"><tr>` +
		fmt.Sprintf(`<td height="1" style="%s">&nbsp;</td>`, style) +
		"</tr></table></td></tr>\n"
}

func renderSpacer(b design.Block, rc renderContext) string {
	height := "24"
	if v, ok := b.Style[design.StyleHeight]; ok {
		height = strings.TrimSuffix(v, "px")
	}

	return fmt.Sprintf(`<tr><td height="%s" style="font-size: 0; line-height: 0;">&nbsp;</td></tr>`+"\n", height)
}

// renderDataRow lays the cells out as equal-width columns that collapse to
// single-column under the responsive breakpoint.
func renderDataRow(b design.Block, rc renderContext) string {
	style := styleOf([]decl{
		{design.StyleColor, rc.role(design.RoleSecondaryText, "#51545e")},
		{design.StyleFontFamily, rc.stack},
		{design.StyleFontSize, "14px"},
		{design.StyleLineHeight, "1.5"},
	}, b.Style)

	width := 100 / len(b.Cells)

	var out strings.Builder
	out.WriteString(`<tr><td style="padding: 8px 40px;"><table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0"><tr>` + "\n")
	for _, cell := range b.Cells {
		fmt.Fprintf(&out, `<td class="ef-col" width="%d%%" style="padding: 4px 0; %s">%s</td>`+"\n", width, style, cell)
	}
	out.WriteString("</tr></table></td></tr>\n")
	return out.String()
}
