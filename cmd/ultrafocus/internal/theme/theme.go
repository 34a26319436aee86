package theme

import (
	"image/color"

	"gioui.org/unit"
	"gioui.org/widget/material"
)

// Palette defines the window colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Primary    color.NRGBA
	OnPrimary  color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Success    color.NRGBA
	Error      color.NRGBA
	Warning    color.NRGBA
}

// Config defines the window metrics.
type Config struct {
	CornerRadius unit.Dp
	Spacing      unit.Dp
	Padding      unit.Dp
	FontButton   unit.Sp
	FontBody     unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with ultrafocus styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates the dark Fluent-style theme used by the focus window.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{
		Theme: mtheme,
		Palette: Palette{
			Background: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
			Surface:    color.NRGBA{R: 0x2C, G: 0x2C, B: 0x2C, A: 0xFF},
			Primary:    color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF},
			OnPrimary:  color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
			Text:       color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
			TextMuted:  color.NRGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF},
			Success:    color.NRGBA{R: 0x6B, G: 0xBC, B: 0x0F, A: 0xFF},
			Error:      color.NRGBA{R: 0xE8, G: 0x11, B: 0x23, A: 0xFF},
			Warning:    color.NRGBA{R: 0xFF, G: 0xB9, B: 0x00, A: 0xFF},
		},
		Config: Config{
			CornerRadius: unit.Dp(4),
			Spacing:      unit.Dp(8),
			Padding:      unit.Dp(16),
			FontButton:   unit.Sp(18),
			FontBody:     unit.Sp(14),
			FontCaption:  unit.Sp(12),
		},
	}
	t.Theme.Palette.Bg = t.Palette.Background
	t.Theme.Palette.Fg = t.Palette.Text
	t.Theme.Palette.ContrastBg = t.Palette.Primary
	t.Theme.Palette.ContrastFg = t.Palette.OnPrimary
	return t
}
