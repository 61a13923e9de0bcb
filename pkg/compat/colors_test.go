package compat

import (
	"strings"
	"testing"

	"github.com/emailforge/emailforge/pkg/design"
)

func TestIsColorDarkBoundary(t *testing.T) {
	tests := []struct {
		hex  string
		dark bool
	}{
		{"#000000", true},
		{"#ffffff", false},
		// 0x80/255 = 0.502, just above the 0.5 threshold.
		{"#808080", false},
		{"#7f7f7f", true},
		{"#3869d4", true},  // link blue
		{"#f4f4f7", false}, // light background
		{"#000", true},     // shorthand
		{"#fff", false},
	}

	for _, tt := range tests {
		if got := IsColorDark(tt.hex); got != tt.dark {
			t.Errorf("IsColorDark(%s) = %v, want %v (luminance %f)",
				tt.hex, got, tt.dark, Luminance(tt.hex))
		}
	}
}

func TestLuminanceCoefficients(t *testing.T) {
	// Pure channels expose the 0.299/0.587/0.114 weights directly.
	tests := []struct {
		hex  string
		want float64
	}{
		{"#ff0000", 0.299},
		{"#00ff00", 0.587},
		{"#0000ff", 0.114},
		{"#000000", 0},
		{"#ffffff", 1},
	}

	for _, tt := range tests {
		got := Luminance(tt.hex)
		if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("Luminance(%s) = %f, want %f", tt.hex, got, tt.want)
		}
	}
}

func TestLuminanceInvalidColorReadsMidGray(t *testing.T) {
	if got := Luminance("not-a-color"); got != 0.5 {
		t.Errorf("invalid color luminance = %f, want 0.5", got)
	}
	if IsColorDark("") {
		t.Error("empty color must not read as dark")
	}
}

func TestContrastingColor(t *testing.T) {
	if got := ContrastingColor("#000000"); got != "#ffffff" {
		t.Errorf("dark background should pick white, got %s", got)
	}
	if got := ContrastingColor("#ffffff"); got != "#1a1a1a" {
		t.Errorf("light background should pick near-black, got %s", got)
	}
}

func TestContrastRatio(t *testing.T) {
	max := ContrastRatio("#000000", "#ffffff")
	if max < 20.9 || max > 21.1 {
		t.Errorf("black/white ratio = %f, want 21", max)
	}

	// Symmetric in argument order.
	if ContrastRatio("#ffffff", "#000000") != max {
		t.Error("ContrastRatio should be order-independent")
	}

	if same := ContrastRatio("#336699", "#336699"); same != 1 {
		t.Errorf("identical colors ratio = %f, want 1", same)
	}
}

func TestDarkModeBlockMechanismsAgree(t *testing.T) {
	css := DarkModeBlock(design.DefaultLight, design.DefaultDark)

	if !strings.Contains(css, "@media (prefers-color-scheme: dark)") {
		t.Error("missing prefers-color-scheme block")
	}
	if !strings.Contains(css, "[data-ogsc]") {
		t.Error("missing Gmail data-ogsc block")
	}

	// Both mechanisms must carry identical values for every dark role.
	for _, role := range design.Roles {
		hex := design.DefaultDark[role]
		if strings.Count(css, hex+" !important") < 2 {
			t.Errorf("role %s value %s should appear in both mechanisms", role, hex)
		}
	}
}

func TestClientSupplementsAreIndependentCSS(t *testing.T) {
	for name, frag := range map[string]string{
		"gmail": GmailDarkModeSupport(),
		"apple": AppleMailDarkModeSupport(),
	} {
		if frag == "" {
			t.Errorf("%s fragment is empty", name)
		}
		if strings.Count(frag, "{") != strings.Count(frag, "}") {
			t.Errorf("%s fragment has unbalanced braces", name)
		}
	}
}
