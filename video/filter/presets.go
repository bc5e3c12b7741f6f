package filter

import (
	"sort"

	"cameo/video/curve"
)

type pts = []curve.ControlPoint

// Film emulation curves.
var (
	Portra = Curves{
		Value: pts{{In: 0, Out: 0}, {In: 23, Out: 20}, {In: 157, Out: 173}, {In: 255, Out: 255}},
		Blue:  pts{{In: 0, Out: 0}, {In: 41, Out: 46}, {In: 231, Out: 228}, {In: 255, Out: 255}},
		Green: pts{{In: 0, Out: 0}, {In: 52, Out: 47}, {In: 189, Out: 196}, {In: 255, Out: 255}},
		Red:   pts{{In: 0, Out: 0}, {In: 69, Out: 69}, {In: 213, Out: 218}, {In: 255, Out: 255}},
	}
	Provia = Curves{
		Blue:  pts{{In: 0, Out: 0}, {In: 35, Out: 25}, {In: 205, Out: 227}, {In: 255, Out: 255}},
		Green: pts{{In: 0, Out: 0}, {In: 27, Out: 21}, {In: 196, Out: 207}, {In: 255, Out: 255}},
		Red:   pts{{In: 0, Out: 0}, {In: 59, Out: 54}, {In: 202, Out: 210}, {In: 255, Out: 255}},
	}
	Velvia = Curves{
		Value: pts{{In: 0, Out: 0}, {In: 128, Out: 118}, {In: 221, Out: 215}, {In: 255, Out: 255}},
		Blue:  pts{{In: 0, Out: 0}, {In: 25, Out: 21}, {In: 122, Out: 153}, {In: 165, Out: 206}, {In: 255, Out: 255}},
		Green: pts{{In: 0, Out: 0}, {In: 25, Out: 21}, {In: 95, Out: 102}, {In: 181, Out: 208}, {In: 255, Out: 255}},
		Red:   pts{{In: 0, Out: 0}, {In: 41, Out: 28}, {In: 183, Out: 209}, {In: 255, Out: 255}},
	}
	CrossProcess = Curves{
		Blue:  pts{{In: 0, Out: 20}, {In: 255, Out: 255}},
		Green: pts{{In: 0, Out: 0}, {In: 56, Out: 39}, {In: 208, Out: 226}, {In: 255, Out: 255}},
		Red:   pts{{In: 0, Out: 0}, {In: 56, Out: 22}, {In: 211, Out: 255}, {In: 255, Out: 255}},
	}
)

var presets = map[string]Curves{
	"portra":       Portra,
	"provia":       Provia,
	"velvia":       Velvia,
	"crossprocess": CrossProcess,
}

// Preset looks up a named film curve.
func Preset(name string) (Curves, bool) {
	c, ok := presets[name]
	return c, ok
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
