// Package design defines the typed block model describing an email template:
// palette, typography and an ordered list of content blocks. Pure data; the
// synthesis engine in pkg/synth turns a Model into markup.
package design

import (
	"fmt"
	"strings"
)

// BlockType enumerates the closed set of content block variants.
type BlockType string

const (
	BlockHeading BlockType = "heading"
	BlockText    BlockType = "text"
	BlockButton  BlockType = "button"
	BlockImage   BlockType = "image"
	BlockDivider BlockType = "divider"
	BlockSpacer  BlockType = "spacer"
	BlockDataRow BlockType = "dataRow"
)

// BlockTypes lists every valid block type in declaration order.
var BlockTypes = []BlockType{
	BlockHeading, BlockText, BlockButton, BlockImage,
	BlockDivider, BlockSpacer, BlockDataRow,
}

// StyleProperty enumerates the closed set of style overrides a block accepts.
// Keeping this closed means a typo is a compile error at the call site, not a
// silently ignored CSS declaration.
type StyleProperty string

const (
	StyleColor           StyleProperty = "color"
	StyleBackgroundColor StyleProperty = "background-color"
	StyleFontFamily      StyleProperty = "font-family"
	StyleFontSize        StyleProperty = "font-size"
	StyleFontWeight      StyleProperty = "font-weight"
	StyleLineHeight      StyleProperty = "line-height"
	StyleTextAlign       StyleProperty = "text-align"
	StylePadding         StyleProperty = "padding"
	StyleBorderRadius    StyleProperty = "border-radius"
	StyleWidth           StyleProperty = "width"
	StyleHeight          StyleProperty = "height"
)

// StylePropertyOrder is the fixed serialization order for style overrides.
// Block renderers emit overrides in this order so synthesis output is
// byte-deterministic.
var StylePropertyOrder = []StyleProperty{
	StyleColor, StyleBackgroundColor, StyleFontFamily, StyleFontSize,
	StyleFontWeight, StyleLineHeight, StyleTextAlign, StylePadding,
	StyleBorderRadius, StyleWidth, StyleHeight,
}

// StyleOverrides maps a style property to a raw CSS value.
type StyleOverrides map[StyleProperty]string

// Block is one content block of a template. Which fields are meaningful
// depends on Type; every block renders to a self-contained table fragment
// that never assumes anything about sibling markup.
type Block struct {
	Type  BlockType      `json:"type"`
	Text  string         `json:"text,omitempty"`
	Href  string         `json:"href,omitempty"`
	Src   string         `json:"src,omitempty"`
	Alt   string         `json:"alt,omitempty"`
	Level int            `json:"level,omitempty"` // heading level 1-3
	Cells []string       `json:"cells,omitempty"` // dataRow columns
	Style StyleOverrides `json:"style,omitempty"`
	Children []Block     `json:"children,omitempty"`
}

// Role names a semantic color slot in a palette.
type Role string

const (
	RoleBackground    Role = "background"
	RoleText          Role = "text"
	RoleSecondaryText Role = "secondaryText"
	RoleLink          Role = "link"
	RoleBorder        Role = "border"
	RoleSuccess       Role = "success"
	RoleWarning       Role = "warning"
	RoleError         Role = "error"
)

// Roles lists every palette role in declaration order. Dark-mode CSS is
// emitted in this order.
var Roles = []Role{
	RoleBackground, RoleText, RoleSecondaryText, RoleLink,
	RoleBorder, RoleSuccess, RoleWarning, RoleError,
}

// Palette maps semantic roles to hex colors.
type Palette map[Role]string

// ColorPalette pairs a light and a dark palette. Every role present in one
// must be present in the other so compatibility CSS can always pair them.
type ColorPalette struct {
	Light Palette `json:"light"`
	Dark  Palette `json:"dark"`
}

// Typography describes font families and size tokens. Descriptive only;
// nothing enforces the scale structurally.
type Typography struct {
	Families []string `json:"families"`
	Sizes    []string `json:"sizes"`
}

// Layout describes the overall template layout.
type Layout struct {
	Type string `json:"type"` // single-column, two-column, ...
}

// Model is the full design description consumed by the synthesis engine.
type Model struct {
	Layout     Layout       `json:"layout"`
	Style      string       `json:"style"` // modern, classic, ...
	Components []Block      `json:"components"`
	Colors     ColorPalette `json:"colors"`
	Typography Typography   `json:"typography"`
}

// InvalidModelError reports the required fields a model is missing.
type InvalidModelError struct {
	Missing []string
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("invalid design model: missing %s", strings.Join(e.Missing, ", "))
}

// Validate checks the model for missing required fields and the palette
// parallel-roles invariant. Returns an *InvalidModelError listing every
// problem, or nil.
func (m *Model) Validate() error {
	var missing []string

	if len(m.Components) == 0 {
		missing = append(missing, "components")
	}
	for i, b := range m.Components {
		if err := b.validate(); err != "" {
			missing = append(missing, fmt.Sprintf("components[%d].%s", i, err))
		}
	}

	if len(m.Colors.Light) == 0 {
		missing = append(missing, "colors.light")
	}
	// Parallel-roles invariant: a role present in one palette must exist in
	// the other.
	for _, role := range Roles {
		_, inLight := m.Colors.Light[role]
		_, inDark := m.Colors.Dark[role]
		if inLight && len(m.Colors.Dark) > 0 && !inDark {
			missing = append(missing, fmt.Sprintf("colors.dark.%s", role))
		}
		if inDark && !inLight {
			missing = append(missing, fmt.Sprintf("colors.light.%s", role))
		}
	}

	if len(missing) > 0 {
		return &InvalidModelError{Missing: missing}
	}
	return nil
}

// validate returns the name of the first missing field for the block's type,
// or "" when the block is complete.
func (b *Block) validate() string {
	switch b.Type {
	case BlockHeading, BlockText:
		if b.Text == "" {
			return "text"
		}
	case BlockButton:
		if b.Text == "" {
			return "text"
		}
		if b.Href == "" {
			return "href"
		}
	case BlockImage:
		if b.Src == "" {
			return "src"
		}
	case BlockDivider, BlockSpacer:
		// No required fields.
	case BlockDataRow:
		if len(b.Cells) == 0 {
			return "cells"
		}
	default:
		return "type"
	}
	return ""
}
