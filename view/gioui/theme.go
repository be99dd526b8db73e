package gioui

import (
	_ "embed"
	"image/color"

	"gioui.org/font/gofont"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"
)

type (
	Theme struct {
		Background color.NRGBA `yaml:",flow"`
		Material   MaterialStyle
		Waveform   WaveformStyle
		Ruler      RulerStyle
		Join       JoinStyle
		IconButton IconButtonStyle
		Status     LabelStyle

		material *material.Theme
	}

	MaterialStyle struct {
		TextSize   unit.Sp
		Fg         color.NRGBA `yaml:",flow"`
		Bg         color.NRGBA `yaml:",flow"`
		ContrastBg color.NRGBA `yaml:",flow"`
		ContrastFg color.NRGBA `yaml:",flow"`
	}

	WaveformStyle struct {
		Background  color.NRGBA `yaml:",flow"`
		Playhead    color.NRGBA `yaml:",flow"`
		Selection   color.NRGBA `yaml:",flow"`
		Placeholder color.NRGBA `yaml:",flow"`
		Failed      color.NRGBA `yaml:",flow"`
		Pointer     color.NRGBA `yaml:",flow"`
	}

	RulerStyle struct {
		Color       color.NRGBA `yaml:",flow"`
		Opacity     float32
		LabelOffset unit.Dp
		Label       LabelStyle
	}

	JoinStyle struct {
		Color  color.NRGBA `yaml:",flow"`
		Width  unit.Dp
		Height unit.Dp
	}

	IconButtonStyle struct {
		Enabled  color.NRGBA `yaml:",flow"`
		Disabled color.NRGBA `yaml:",flow"`
	}
)

//go:embed theme.yml
var defaultTheme []byte

// NewTheme returns the default theme, overridden by theme.yml in the user's
// config directory. A broken user theme is returned as a warning.
func NewTheme() (*Theme, error) {
	var theme Theme
	warn := ReadConfig(defaultTheme, "theme.yml", &theme)
	shaper := text.NewShaper(text.WithCollection(gofont.Collection()))
	theme.material = material.NewTheme()
	theme.material.Shaper = shaper
	theme.material.TextSize = theme.Material.TextSize
	theme.material.Palette = material.Palette{
		Fg:         theme.Material.Fg,
		Bg:         theme.Material.Bg,
		ContrastBg: theme.Material.ContrastBg,
		ContrastFg: theme.Material.ContrastFg,
	}
	theme.Ruler.Label.Shaper = shaper
	theme.Status.Shaper = shaper
	return &theme, warn
}
