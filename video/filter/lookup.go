package filter

import (
	"fmt"

	"cameo/video/curve"
	"cameo/video/frame"
)

// Channel selects which samples a lookup applies to.
type Channel int

const (
	AllChannels Channel = -1
	Blue        Channel = 0
	Green       Channel = 1
	Red         Channel = 2
)

func (c Channel) String() string {
	switch c {
	case AllChannels:
		return "all"
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Red:
		return "red"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// ChannelLookup pairs a compiled table with the channel it transforms.
type ChannelLookup struct {
	Channel Channel
	Table   *curve.LookupTable
}

// LookupFilter replaces samples with table entries. Lookups run in order, so
// two lookups on the same channel compose.
type LookupFilter struct {
	lookups []ChannelLookup
}

func NewLookupFilter(lookups ...ChannelLookup) *LookupFilter {
	return &LookupFilter{lookups: lookups}
}

// Lookups returns the filter's tables. Tables are immutable and may be shared.
func (f *LookupFilter) Lookups() []ChannelLookup {
	return append([]ChannelLookup(nil), f.lookups...)
}

func (f *LookupFilter) active() bool {
	for _, l := range f.lookups {
		if l.Table != nil {
			return true
		}
	}
	return false
}

// Apply transforms src into dst. When no lookup carries a table, dst is left
// untouched. Channels without a lookup are copied through.
func (f *LookupFilter) Apply(src, dst *frame.Frame) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	for _, l := range f.lookups {
		if l.Channel != AllChannels && l.Table != nil {
			if err := requireColor(src); err != nil {
				return fmt.Errorf("%v lookup: %w", l.Channel, err)
			}
		}
	}
	if !f.active() || src.Len() == 0 {
		return nil
	}

	in := src.Flat()
	out := dst.Flat()
	for _, l := range f.lookups {
		if l.Table == nil {
			continue
		}
		if l.Channel == AllChannels {
			l.Table.Apply(in, out)
		} else {
			if &in[0] != &out[0] {
				copy(out, in)
			}
			l.Table.ApplyStrided(out, out, int(l.Channel), dst.Channels)
		}
		in = out
	}
	return nil
}

// Curves describes a tone adjustment: an optional value curve applied to every
// channel, then optional per-channel curves.
type Curves struct {
	Value []curve.ControlPoint `json:"value,omitempty"`
	Blue  []curve.ControlPoint `json:"blue,omitempty"`
	Green []curve.ControlPoint `json:"green,omitempty"`
	Red   []curve.ControlPoint `json:"red,omitempty"`
}

func (c Curves) perChannel() bool {
	return len(c.Blue) > 0 || len(c.Green) > 0 || len(c.Red) > 0
}

func optionalFunc(name string, points []curve.ControlPoint) (curve.Func, error) {
	if len(points) == 0 {
		return nil, nil
	}
	f, err := curve.CurveFunc(points)
	if err != nil {
		return nil, fmt.Errorf("%s curve: %w", name, err)
	}
	return f, nil
}

// NewCurveFilter compiles c into one table per channel. The value curve is
// folded into each channel's table so pixels are visited once.
func NewCurveFilter(c Curves) (*LookupFilter, error) {
	value, err := optionalFunc("value", c.Value)
	if err != nil {
		return nil, err
	}
	if !c.perChannel() {
		return NewLookupFilter(ChannelLookup{Channel: AllChannels, Table: curve.NewLookupTable(value)}), nil
	}

	var lookups []ChannelLookup
	for _, ch := range []struct {
		channel Channel
		points  []curve.ControlPoint
	}{
		{Blue, c.Blue},
		{Green, c.Green},
		{Red, c.Red},
	} {
		fn, err := optionalFunc(ch.channel.String(), ch.points)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, ChannelLookup{
			Channel: ch.channel,
			Table:   curve.NewLookupTable(curve.Compose(value, fn)),
		})
	}
	return NewLookupFilter(lookups...), nil
}

// NewValueFilter applies one curve to every sample of gray or color frames.
func NewValueFilter(points []curve.ControlPoint) (*LookupFilter, error) {
	f, err := curve.CurveFunc(points)
	if err != nil {
		return nil, err
	}
	return NewLookupFilter(ChannelLookup{Channel: AllChannels, Table: curve.NewLookupTable(f)}), nil
}
