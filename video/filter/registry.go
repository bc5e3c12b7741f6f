package filter

import (
	"fmt"
	"sort"
	"strings"
)

var named = map[string]func(p Primitives) Filter{
	"none":    func(Primitives) Filter { return None },
	"rc":      func(Primitives) Filter { return RecolorRC },
	"rgv":     func(Primitives) Filter { return RecolorRGV },
	"cmv":     func(Primitives) Filter { return RecolorCMV },
	"sharpen": func(p Primitives) Filter { return NewSharpenFilter(p) },
	"edges":   func(p Primitives) Filter { return NewFindEdgesFilter(p) },
	"blur":    func(p Primitives) Filter { return NewBlurFilter(p) },
	"emboss":  func(p Primitives) Filter { return NewEmbossFilter(p) },
	"stroke":  func(p Primitives) Filter { return NewStrokeEdges(p) },
}

// ByName builds a filter from its name: a curve preset (see PresetNames) or
// one of none, rc, rgv, cmv, sharpen, edges, blur, emboss, stroke.
func ByName(name string, p Primitives) (Filter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := Preset(name); ok {
		return NewCurveFilter(c)
	}
	if fn, ok := named[name]; ok {
		return fn(p), nil
	}
	return nil, fmt.Errorf("unknown filter %q (known: %s)", name, strings.Join(Names(), ", "))
}

// Names lists every name ByName accepts.
func Names() []string {
	names := PresetNames()
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseChain builds a chain from filter names applied in order.
func ParseChain(names []string, p Primitives) (Chain, error) {
	var c Chain
	for _, n := range names {
		f, err := ByName(n, p)
		if err != nil {
			return nil, err
		}
		c = append(c, f)
	}
	return c, nil
}
