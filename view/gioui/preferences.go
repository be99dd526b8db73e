package gioui

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gioui.org/unit"
	"gopkg.in/yaml.v3"
)

type (
	Preferences struct {
		Window         WindowPreferences
		ShowRuler      bool
		OverviewHeight unit.Dp
	}

	WindowPreferences struct {
		Width     int
		Height    int
		Maximized bool `yaml:",omitempty"`
	}
)

//go:embed preferences.yml
var defaultPreferences []byte

// ConfigDir is the name of the directory under os.UserConfigDir that holds
// the user's overrides of the embedded yml files.
const ConfigDir = "beatmap"

// ReadConfig fills target from defaultData and then from the user's file of
// the same name, if one exists. The defaults are compiled in, so failing to
// parse them panics; a broken user file is returned as a warning, with target
// left as the defaults made it.
func ReadConfig(defaultData []byte, filename string, target any) (warn error) {
	if err := yaml.Unmarshal(defaultData, target); err != nil {
		panic(fmt.Errorf("failed to unmarshal default %s: %w", filename, err))
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(configDir, ConfigDir, filename)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		// start over so that a half-applied file does not leak through
		yaml.Unmarshal(defaultData, target)
		return fmt.Errorf("could not parse %s: %w", path, err)
	}
	return nil
}

func MakePreferences() (Preferences, error) {
	var p Preferences
	warn := ReadConfig(defaultPreferences, "preferences.yml", &p)
	return p, warn
}

func (p Preferences) WindowSize() (unit.Dp, unit.Dp) {
	return unit.Dp(p.Window.Width), unit.Dp(p.Window.Height)
}
