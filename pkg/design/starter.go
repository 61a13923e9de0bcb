package design

// DefaultLight is the palette used when a model supplies no colors.
var DefaultLight = Palette{
	RoleBackground:    "#f4f4f7",
	RoleText:          "#1a1a1a",
	RoleSecondaryText: "#51545e",
	RoleLink:          "#3869d4",
	RoleBorder:        "#eaeaec",
	RoleSuccess:       "#22bc66",
	RoleWarning:       "#f4a100",
	RoleError:         "#d64045",
}

// DefaultDark mirrors DefaultLight role for role.
var DefaultDark = Palette{
	RoleBackground:    "#1f2125",
	RoleText:          "#f0f0f2",
	RoleSecondaryText: "#a8aaad",
	RoleLink:          "#8ab0ff",
	RoleBorder:        "#3a3d42",
	RoleSuccess:       "#3ddc84",
	RoleWarning:       "#ffb84d",
	RoleError:         "#ff6b6b",
}

// StarterModel returns the canonical heading + paragraph + button model.
// Generation with no external input always succeeds by falling back to it.
func StarterModel() *Model {
	return &Model{
		Layout: Layout{Type: "single-column"},
		Style:  "modern",
		Components: []Block{
			{Type: BlockHeading, Text: "Welcome to your new template", Level: 1},
			{Type: BlockText, Text: "This starter layout renders consistently across every major email client. Replace this paragraph with your own content."},
			{Type: BlockButton, Text: "Get Started", Href: "https://example.com/start"},
		},
		Colors: ColorPalette{Light: clonePalette(DefaultLight), Dark: clonePalette(DefaultDark)},
		Typography: Typography{
			Families: []string{"Helvetica Neue", "Arial"},
			Sizes:    []string{"12px", "14px", "16px", "22px", "28px"},
		},
	}
}

func clonePalette(p Palette) Palette {
	out := make(Palette, len(p))
	for role, hex := range p {
		out[role] = hex
	}
	return out
}
