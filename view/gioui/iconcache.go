package gioui

import (
	"log"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
)

var iconCache = map[*byte]*widget.Icon{}

// widgetForIcon returns a widget for IconVG data, but caching the results
func widgetForIcon(icon []byte) *widget.Icon {
	if widget, ok := iconCache[&icon[0]]; ok {
		return widget
	}
	widget, err := widget.NewIcon(icon)
	if err != nil {
		log.Fatal(err)
	}
	iconCache[&icon[0]] = widget
	return widget
}

func IconButton(th *Theme, w *widget.Clickable, icon []byte, enabled bool) material.IconButtonStyle {
	ret := material.IconButton(th.material, w, widgetForIcon(icon), "")
	ret.Background = th.Background
	ret.Inset = layout.UniformInset(unit.Dp(6))
	if enabled {
		ret.Color = th.IconButton.Enabled
	} else {
		ret.Color = th.IconButton.Disabled
	}
	return ret
}
