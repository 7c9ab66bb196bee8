package domain

import (
	"fmt"
	"strings"
)

// Mode identifies one of the camera presets. Only the constants below are
// valid; anything else fails to resolve.
type Mode string

const (
	ModeLeica  Mode = "LEICA"
	ModeXiaomi Mode = "XIAOMI"
)

type Preset struct {
	Mode           Mode
	Make           string
	Model          string
	FilenameSuffix string
}

// Fields returns the EXIF values this preset writes.
func (p Preset) Fields() CameraFields {
	return CameraFields{Make: p.Make, Model: p.Model}
}

var presets = map[Mode]Preset{
	ModeLeica: {
		Mode:           ModeLeica,
		Make:           "LEICA CAMERA AG",
		Model:          "LEICA Q3",
		FilenameSuffix: "_Leica",
	},
	ModeXiaomi: {
		Mode:           ModeXiaomi,
		Make:           "Xiaomi",
		Model:          "Xiaomi 17 Ultra",
		FilenameSuffix: "_Mi",
	},
}

var presetOrder = []Mode{ModeLeica, ModeXiaomi}

// aliases are the short labels the mode buttons used to carry.
var aliases = map[string]Mode{
	"Q3":  ModeLeica,
	"17U": ModeXiaomi,
}

type UnknownPresetError struct {
	Mode string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q (supported: %s)", e.Mode, strings.Join(modeNames(), ", "))
}

// Resolve returns the preset for mode.
func Resolve(mode Mode) (Preset, error) {
	preset, ok := presets[mode]
	if !ok {
		return Preset{}, &UnknownPresetError{Mode: string(mode)}
	}
	return preset, nil
}

// ParseMode turns user input into a Mode. Matching is case-insensitive.
func ParseMode(value string) (Mode, error) {
	key := strings.ToUpper(strings.TrimSpace(value))
	if alias, ok := aliases[key]; ok {
		return alias, nil
	}
	mode := Mode(key)
	if _, ok := presets[mode]; !ok {
		return "", &UnknownPresetError{Mode: value}
	}
	return mode, nil
}

// Presets lists every supported preset in a stable order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presetOrder))
	for _, mode := range presetOrder {
		out = append(out, presets[mode])
	}
	return out
}

func modeNames() []string {
	names := make([]string, 0, len(presetOrder))
	for _, mode := range presetOrder {
		names = append(names, string(mode))
	}
	return names
}
