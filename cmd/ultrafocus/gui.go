//go:build windows

package main

import (
	"context"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"ultrafocus/cmd/ultrafocus/internal/theme"
	"ultrafocus/cmd/ultrafocus/internal/ui"
	"ultrafocus/internal/desktop"
)

// pollInterval paces redraws while a request is in flight.
const pollInterval = 50 * time.Millisecond

func runGUI() error {
	a, err := newFocusApp("gui")
	if err != nil {
		return err
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title(a.selfTitle))
		w.Option(app.Size(unit.Dp(380), unit.Dp(180)))

		os.Exit(a.shutdown(loop(w, a)))
	}()
	app.Main()
	return nil
}

func loop(w *app.Window, a *focusApp) error {
	a.start(context.Background())

	t := theme.NewTheme(material.NewTheme())
	panel := ui.NewPanel(t, a.settings().Marker, desktop.IsElevated())

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)

			if res, ok := a.ch.PollResult(); ok {
				a.observe(res)
				panel.SetStatus(statusOf(res), res.Text)
			}
			panel.SetMarker(a.settings().Marker)

			_, clicked := panel.Layout(gtx)
			if clicked && !panel.Pending() {
				panel.SetStatus(ui.StatusPending, "Looking for the window...")
				a.ch.RequestFocus()
			}
			if panel.Pending() {
				gtx.Execute(op.InvalidateCmd{At: gtx.Now.Add(pollInterval)})
			}

			e.Frame(gtx.Ops)
		}
	}
}
