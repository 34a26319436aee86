package ui

import (
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"ultrafocus/cmd/ultrafocus/internal/theme"
)

// Status is what the status line currently shows.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

// Panel is the single view of the focus window: instructions, the start
// button and a status line.
type Panel struct {
	theme *theme.Theme

	start    widget.Clickable
	marker   string
	elevated bool

	status Status
	text   string
}

// NewPanel creates a panel. elevated controls the administrator hint.
func NewPanel(t *theme.Theme, marker string, elevated bool) *Panel {
	return &Panel{theme: t, marker: marker, elevated: elevated}
}

// SetMarker updates the title marker named in the instructions.
func (p *Panel) SetMarker(marker string) {
	p.marker = marker
}

// SetStatus replaces the status line.
func (p *Panel) SetStatus(s Status, text string) {
	p.status = s
	p.text = text
}

// Pending reports whether a request is waiting for its result.
func (p *Panel) Pending() bool {
	return p.status == StatusPending
}

// Layout renders the panel and reports whether the start button was
// clicked since the last frame.
func (p *Panel) Layout(gtx layout.Context) (layout.Dimensions, bool) {
	clicked := p.start.Clicked(gtx)

	paint.Fill(gtx.Ops, p.theme.Palette.Background)

	dims := layout.UniformInset(p.theme.Config.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Body1(p.theme.Theme, "To start focus mode, open a page with "+p.marker+
					" in its title, then click the button below:")
				l.Color = p.theme.Palette.Text
				l.TextSize = p.theme.Config.FontBody
				l.Alignment = text.Middle
				return l.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: p.theme.Config.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				b := material.Button(p.theme.Theme, &p.start, "Start Focus")
				b.Background = p.theme.Palette.Primary
				b.Color = p.theme.Palette.OnPrimary
				b.TextSize = p.theme.Config.FontButton
				b.CornerRadius = p.theme.Config.CornerRadius
				if p.Pending() {
					gtx = gtx.Disabled()
				}
				return b.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: p.theme.Config.Spacing}.Layout),
			layout.Rigid(p.layoutStatus),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if p.elevated {
					return layout.Dimensions{}
				}
				l := material.Caption(p.theme.Theme, "Not running as administrator: input to elevated windows is not filtered.")
				l.Color = p.theme.Palette.Warning
				l.TextSize = p.theme.Config.FontCaption
				l.Alignment = text.Middle
				return l.Layout(gtx)
			}),
		)
	})
	return dims, clicked
}

func (p *Panel) layoutStatus(gtx layout.Context) layout.Dimensions {
	if p.text == "" {
		return layout.Dimensions{}
	}

	var c color.NRGBA
	switch p.status {
	case StatusSuccess:
		c = p.theme.Palette.Success
	case StatusError:
		c = p.theme.Palette.Error
	default:
		c = p.theme.Palette.TextMuted
	}

	return layout.Stack{Alignment: layout.Center}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			size := gtx.Constraints.Min
			rr := gtx.Dp(p.theme.Config.CornerRadius)
			paint.FillShape(gtx.Ops, p.theme.Palette.Surface,
				clip.UniformRRect(image.Rectangle{Max: size}, rr).Op(gtx.Ops))
			return layout.Dimensions{Size: size}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				l := material.Body2(p.theme.Theme, p.text)
				l.Color = c
				l.Alignment = text.Middle
				return l.Layout(gtx)
			})
		}),
	)
}
