package design

import (
	"errors"
	"strings"
	"testing"
)

func TestStarterModelIsValid(t *testing.T) {
	m := StarterModel()
	if err := m.Validate(); err != nil {
		t.Fatalf("starter model should validate, got: %v", err)
	}

	if len(m.Components) != 3 {
		t.Errorf("expected 3 starter components, got %d", len(m.Components))
	}
	if m.Components[0].Type != BlockHeading {
		t.Errorf("first starter block should be a heading, got %s", m.Components[0].Type)
	}
	if m.Components[2].Type != BlockButton {
		t.Errorf("last starter block should be a button, got %s", m.Components[2].Type)
	}
}

func TestValidateMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		model   Model
		missing string
	}{
		{
			name:    "no components",
			model:   Model{Colors: ColorPalette{Light: DefaultLight}},
			missing: "components",
		},
		{
			name: "heading without text",
			model: Model{
				Components: []Block{{Type: BlockHeading}},
				Colors:     ColorPalette{Light: DefaultLight},
			},
			missing: "components[0].text",
		},
		{
			name: "button without href",
			model: Model{
				Components: []Block{{Type: BlockButton, Text: "Go"}},
				Colors:     ColorPalette{Light: DefaultLight},
			},
			missing: "components[0].href",
		},
		{
			name: "image without src",
			model: Model{
				Components: []Block{{Type: BlockImage}},
				Colors:     ColorPalette{Light: DefaultLight},
			},
			missing: "components[0].src",
		},
		{
			name: "unknown block type",
			model: Model{
				Components: []Block{{Type: "carousel"}},
				Colors:     ColorPalette{Light: DefaultLight},
			},
			missing: "components[0].type",
		},
		{
			name: "no colors",
			model: Model{
				Components: []Block{{Type: BlockText, Text: "hi"}},
			},
			missing: "colors.light",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}

			var invalid *InvalidModelError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected *InvalidModelError, got %T", err)
			}

			found := false
			for _, m := range invalid.Missing {
				if m == tt.missing {
					found = true
				}
			}
			if !found {
				t.Errorf("missing list %v should contain %q", invalid.Missing, tt.missing)
			}
		})
	}
}

func TestValidateParallelRoles(t *testing.T) {
	m := Model{
		Components: []Block{{Type: BlockText, Text: "hi"}},
		Colors: ColorPalette{
			Light: Palette{RoleBackground: "#ffffff", RoleText: "#111111"},
			Dark:  Palette{RoleBackground: "#111111"},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected parallel-roles violation")
	}
	if !strings.Contains(err.Error(), "colors.dark.text") {
		t.Errorf("error should name the missing dark role, got: %v", err)
	}
}

func TestValidateDividerAndSpacerHaveNoRequiredFields(t *testing.T) {
	m := Model{
		Components: []Block{{Type: BlockDivider}, {Type: BlockSpacer}},
		Colors:     ColorPalette{Light: DefaultLight},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("divider/spacer should not require fields: %v", err)
	}
}
