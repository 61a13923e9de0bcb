// Package compat supplies the client-specific markup and CSS fragments the
// synthesis engine embeds, plus the luminance utilities used to pick safe
// foreground colors.
package compat

import (
	"fmt"
	"strings"
)

// ParseHex parses #rgb or #rrggbb into 8-bit channels.
func ParseHex(hex string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")

	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
		// Already expanded.
	default:
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", hex)
	}

	var rv, gv, bv int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", hex)
	}
	return uint8(rv), uint8(gv), uint8(bv), nil
}

// Luminance computes perceptual luminance 0.299R + 0.587G + 0.114B over
// channels normalized to [0,1]. Unparseable colors read as mid-gray so a bad
// value never flips a document dark.
func Luminance(hex string) float64 {
	r, g, b, err := ParseHex(hex)
	if err != nil {
		return 0.5
	}
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
}

// IsColorDark reports whether a color's luminance falls below the 0.5
// threshold. This is the sole basis for automatic foreground selection.
func IsColorDark(hex string) bool {
	return Luminance(hex) < 0.5
}

// ContrastingColor returns a safe foreground color for the given background:
// white on dark, near-black on light.
func ContrastingColor(hex string) string {
	if IsColorDark(hex) {
		return "#ffffff"
	}
	return "#1a1a1a"
}

// ContrastRatio computes a luminance-based contrast ratio between two colors,
// in the WCAG (L1+0.05)/(L2+0.05) shape. 1.0 means identical luminance; 21 is
// the black-on-white maximum.
func ContrastRatio(a, b string) float64 {
	la, lb := Luminance(a), Luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}
