package agent

import (
	"sort"

	"github.com/nulpointcorp/agentkit/internal/providers"
	"github.com/nulpointcorp/agentkit/internal/tools"
)

// Preset names.
const (
	PresetWeather = "weather"
	PresetMath    = "math"
	PresetGeneral = "general"
)

// Presets returns the built-in agent descriptors keyed by preset name.
// Each call builds fresh descriptors.
func Presets() map[string]Descriptor {
	return map[string]Descriptor{
		PresetWeather: {
			Name:         "Meteorologist",
			Instructions: "You are an expert meteorologist. Answer weather questions clearly and concisely.",
			Provider:     providers.TagGateway,
			Tools:        []tools.Tool{tools.Weather(), tools.Time()},
		},
		PresetMath: {
			Name:         "Mathematician",
			Instructions: "You are a math expert who solves problems step by step. Use the calculate tool for arithmetic.",
			Provider:     providers.TagDirect,
			Tools:        []tools.Tool{tools.Calculate()},
		},
		PresetGeneral: {
			Name:         "GeneralAssistant",
			Instructions: "You are a friendly and helpful assistant.",
			Provider:     providers.TagGateway,
		},
	}
}

// PresetNames lists the preset names in lexical order.
func PresetNames() []string {
	p := Presets()
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Preset returns the descriptor registered under name.
func Preset(name string) (Descriptor, error) {
	d, ok := Presets()[name]
	if !ok {
		return Descriptor{}, &UnknownPresetError{Name: name, Available: PresetNames()}
	}
	return d, nil
}
