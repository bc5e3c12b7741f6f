package filter

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cameo/video/curve"
	"cameo/video/frame"
)

func randomFrame(w, h, ch int, seed int64) *frame.Frame {
	f := frame.New(w, h, ch)
	r := rand.New(rand.NewSource(seed))
	r.Read(f.Pix)
	return f
}

func TestIdentityCurveIsByteIdentical(t *testing.T) {
	for _, ch := range []int{1, 3} {
		src := randomFrame(16, 9, ch, int64(ch))
		want := src.Clone()

		f, err := NewValueFilter([]curve.ControlPoint{curve.P(0, 0), curve.P(255, 255)})
		require.NoError(t, err)

		dst := src.NewLike()
		require.NoError(t, f.Apply(src, dst))
		assert.Equal(t, want.Pix, dst.Pix)

		require.NoError(t, f.Apply(src, src))
		assert.Equal(t, want.Pix, src.Pix)
	}
}

func TestNilTableLeavesDestinationUnchanged(t *testing.T) {
	src := randomFrame(4, 4, 3, 1)
	dst := src.NewLike()
	dst.Fill(7)

	f := NewLookupFilter(ChannelLookup{Channel: AllChannels, Table: curve.Compile(nil)})
	require.NoError(t, f.Apply(src, dst))
	for _, v := range dst.Pix {
		assert.Equal(t, uint8(7), v)
	}
}

func TestChannelLookupOnlyTouchesItsChannel(t *testing.T) {
	invert := curve.MustCompile([]curve.ControlPoint{curve.P(0, 255), curve.P(255, 0)})
	src := frame.New(2, 2, 3)
	src.Fill(10, 20, 30)
	dst := src.NewLike()

	f := NewLookupFilter(ChannelLookup{Channel: Green, Table: invert})
	require.NoError(t, f.Apply(src, dst))
	for p := 0; p < 4; p++ {
		assert.Equal(t, []uint8{10, 235, 30}, dst.Pix[p*3:p*3+3])
	}
	// Source untouched when writing elsewhere.
	assert.Equal(t, []uint8{10, 20, 30}, src.Pix[:3])
}

func TestChannelLookupRejectsGray(t *testing.T) {
	f := NewLookupFilter(ChannelLookup{Channel: Red, Table: curve.Identity()})
	g := frame.New(2, 2, 1)
	assert.ErrorIs(t, f.Apply(g, g), ErrChannels)
}

func TestLookupShapeMismatch(t *testing.T) {
	f := NewLookupFilter(ChannelLookup{Channel: AllChannels, Table: curve.Identity()})
	assert.ErrorIs(t, f.Apply(frame.New(2, 2, 3), frame.New(3, 2, 3)), frame.ErrShapeMismatch)
}

func TestCurveFilterComposesValueThenChannel(t *testing.T) {
	f, err := NewCurveFilter(Portra)
	require.NoError(t, err)
	lookups := f.Lookups()
	require.Len(t, lookups, 3)

	vf, err := curve.CurveFunc(Portra.Value)
	require.NoError(t, err)
	bf, err := curve.CurveFunc(Portra.Blue)
	require.NoError(t, err)
	want := curve.NewLookupTable(curve.Compose(vf, bf))
	assert.Equal(t, Blue, lookups[0].Channel)
	assert.Equal(t, want, lookups[0].Table)
}

func TestCurveFilterValueOnlyWorksOnGray(t *testing.T) {
	f, err := NewCurveFilter(Curves{Value: []curve.ControlPoint{curve.P(0, 255), curve.P(255, 0)}})
	require.NoError(t, err)
	g := frame.New(3, 1, 1)
	copy(g.Pix, []uint8{0, 100, 255})
	require.NoError(t, f.Apply(g, g))
	assert.Equal(t, []uint8{255, 155, 0}, g.Pix)
}

func TestCurveFilterRejectsSinglePoint(t *testing.T) {
	_, err := NewCurveFilter(Curves{Red: []curve.ControlPoint{curve.P(0, 0)}})
	assert.ErrorIs(t, err, curve.ErrTooFewPoints)
}

func TestPresetsCompile(t *testing.T) {
	for _, name := range PresetNames() {
		c, ok := Preset(name)
		require.True(t, ok)
		f, err := NewCurveFilter(c)
		require.NoError(t, err, name)
		src := randomFrame(8, 8, 3, 3)
		require.NoError(t, f.Apply(src, src), name)
	}
	_, ok := Preset("kodachrome")
	assert.False(t, ok)
}

func TestCrossProcessLiftsBlackBlue(t *testing.T) {
	f, err := NewCurveFilter(CrossProcess)
	require.NoError(t, err)
	src := frame.New(1, 1, 3)
	dst := src.NewLike()
	require.NoError(t, f.Apply(src, dst))
	assert.Equal(t, []uint8{20, 0, 0}, dst.Pix)
}

func TestRecolor(t *testing.T) {
	src := frame.New(1, 1, 3)
	copy(src.Pix, []uint8{100, 51, 200})

	dst := src.NewLike()
	require.NoError(t, RecolorRC.Apply(src, dst))
	assert.Equal(t, []uint8{76, 76, 200}, dst.Pix)

	require.NoError(t, RecolorRGV.Apply(src, dst))
	assert.Equal(t, []uint8{51, 51, 200}, dst.Pix)

	require.NoError(t, RecolorCMV.Apply(src, dst))
	assert.Equal(t, []uint8{200, 51, 200}, dst.Pix)

	assert.ErrorIs(t, RecolorRC.Apply(frame.New(1, 1, 1), frame.New(1, 1, 1)), ErrChannels)
}

func TestKernels(t *testing.T) {
	assert.Equal(t, 1.0, SharpenKernel.Sum())
	assert.Equal(t, 0.0, FindEdgesKernel.Sum())
	assert.InDelta(t, 1.0, BlurKernel.Sum(), 1e-9)
	assert.Equal(t, 5, BlurKernel.Size)
	assert.NotEqual(t, EmbossKernel.At(0, 0), EmbossKernel.At(2, 2))

	_, err := NewKernel([][]float64{{1, 1}, {1, 1}})
	assert.ErrorIs(t, err, ErrKernel)
	_, err = NewKernel([][]float64{{1, 1, 1}, {1}, {1, 1, 1}})
	assert.ErrorIs(t, err, ErrKernel)

	for _, ks := range []int{1, 3, 5} {
		k, err := LaplacianKernel(ks)
		require.NoError(t, err)
		assert.Equal(t, 0.0, k.Sum())
	}
	_, err = LaplacianKernel(7)
	assert.ErrorIs(t, err, ErrKernel)
}

func TestConvolutionOnUniformFrame(t *testing.T) {
	for _, ch := range []int{1, 3} {
		src := frame.New(6, 5, ch)
		src.Fill(100)

		tests := []struct {
			name   string
			filter Filter
			want   int
		}{
			{"sharpen", NewSharpenFilter(Bild{}), 100},
			{"edges", NewFindEdgesFilter(Bild{}), 0},
			{"blur", NewBlurFilter(Bild{}), 100},
		}
		for _, tc := range tests {
			dst := src.NewLike()
			require.NoError(t, tc.filter.Apply(src, dst), tc.name)
			for _, v := range dst.Pix {
				assert.InDelta(t, tc.want, int(v), 1, "%s channels=%d", tc.name, ch)
			}
		}
	}
}

func TestFindEdgesHighlightsStep(t *testing.T) {
	src := frame.New(6, 1, 1)
	copy(src.Pix, []uint8{0, 0, 0, 50, 50, 50})
	dst := src.NewLike()
	require.NoError(t, NewFindEdgesFilter(Bild{}).Apply(src, dst))
	assert.Equal(t, uint8(0), dst.Pix[0])
	assert.Greater(t, dst.Pix[3], uint8(0))
}

type recordingPrimitives struct {
	Bild
	medianCalls int
	edgeValue   uint8
}

func (p *recordingPrimitives) MedianBlur(src, dst *frame.Frame, ksize int) error {
	p.medianCalls++
	return p.Bild.MedianBlur(src, dst, ksize)
}

func (p *recordingPrimitives) Laplacian(src, dst *frame.Frame, ksize int) error {
	dst.Fill(p.edgeValue)
	return nil
}

func TestStrokeEdgesBlurThreshold(t *testing.T) {
	p := &recordingPrimitives{}
	s := NewStrokeEdges(p)
	src := frame.New(5, 5, 3)
	src.Fill(90, 120, 150)

	dst := src.NewLike()
	require.NoError(t, s.Apply(src, dst))
	assert.Equal(t, 1, p.medianCalls)

	s.BlurKsize = 2
	require.NoError(t, s.Apply(src, dst))
	assert.Equal(t, 1, p.medianCalls, "blur radius below 3 skips the median pass")
}

func TestStrokeEdgesScalesByInverseEdgeStrength(t *testing.T) {
	src := frame.New(3, 3, 3)
	src.Fill(100, 200, 50)

	tests := []struct {
		edge uint8
		want []uint8
	}{
		{0, []uint8{100, 200, 50}},
		{255, []uint8{0, 0, 0}},
		{51, []uint8{80, 160, 40}},
	}
	for _, tc := range tests {
		s := &StrokeEdges{BlurKsize: 0, EdgeKsize: 5, Primitives: &recordingPrimitives{edgeValue: tc.edge}}
		dst := src.NewLike()
		require.NoError(t, s.Apply(src, dst))
		assert.Equal(t, tc.want, dst.Pix[:3], "edge=%d", tc.edge)
	}
}

func TestStrokeEdgesFlatRegionUnchanged(t *testing.T) {
	src := frame.New(8, 8, 3)
	src.Fill(90, 120, 150)
	want := src.Clone()
	require.NoError(t, NewStrokeEdges(Bild{}).Apply(src, src))
	assert.Equal(t, want.Pix, src.Pix)
}

func TestChain(t *testing.T) {
	invert, err := NewValueFilter([]curve.ControlPoint{curve.P(0, 255), curve.P(255, 0)})
	require.NoError(t, err)

	src := randomFrame(4, 4, 3, 9)
	dst := src.NewLike()
	require.NoError(t, Chain{invert, invert}.Apply(src, dst))
	assert.Equal(t, src.Pix, dst.Pix)

	dst = src.NewLike()
	require.NoError(t, Chain{}.Apply(src, dst))
	assert.Equal(t, src.Pix, dst.Pix)

	err = Chain{invert, RecolorRC}.Apply(frame.New(2, 2, 1), frame.New(2, 2, 1))
	assert.ErrorIs(t, err, ErrChannels)
}

func TestSwapRects(t *testing.T) {
	f := frame.New(4, 2, 1)
	copy(f.Pix, []uint8{
		1, 1, 2, 2,
		1, 1, 2, 2,
	})
	left := image.Rect(0, 0, 2, 2)
	right := image.Rect(2, 0, 4, 2)
	require.NoError(t, SwapRects(f, f, []image.Rectangle{left, right}))
	assert.Equal(t, []uint8{2, 2, 1, 1, 2, 2, 1, 1}, f.Pix)

	// A single rect is a plain copy.
	dst := f.NewLike()
	require.NoError(t, SwapRects(f, dst, []image.Rectangle{left}))
	assert.Equal(t, f.Pix, dst.Pix)
}

func TestCopyRectScales(t *testing.T) {
	src := frame.New(2, 2, 3)
	src.Fill(10, 20, 30)
	dst := frame.New(6, 6, 3)
	require.NoError(t, CopyRect(src, dst, src.Bounds(), image.Rect(1, 1, 5, 5)))
	assert.Equal(t, []uint8{0, 0, 0}, dst.Pix[:3])
	off := dst.Offset(3, 3)
	assert.Equal(t, []uint8{10, 20, 30}, dst.Pix[off:off+3])
}

func TestOutlineRect(t *testing.T) {
	f := frame.New(4, 4, 1)
	OutlineRect(f, image.Rect(0, 0, 3, 3), []uint8{255})
	assert.Equal(t, []uint8{
		255, 255, 255, 0,
		255, 0, 255, 0,
		255, 255, 255, 0,
		0, 0, 0, 0,
	}, f.Pix)

	OutlineRect(f, image.Rectangle{}, []uint8{9})
	assert.NotContains(t, f.Pix, uint8(9))
}

func TestByName(t *testing.T) {
	for _, n := range Names() {
		f, err := ByName(n, Bild{})
		require.NoError(t, err, n)
		assert.NotNil(t, f, n)
	}
	_, err := ByName("sepia", Bild{})
	assert.Error(t, err)

	c, err := ParseChain([]string{"Portra", " stroke "}, Bild{})
	require.NoError(t, err)
	assert.Len(t, c, 2)
}

func TestCopyRectCropsAtEdges(t *testing.T) {
	src := frame.New(4, 2, 1)
	copy(src.Pix, []uint8{
		1, 2, 3, 4,
		5, 6, 7, 8,
	})

	// Destination hangs off the right edge: only the left half arrives.
	dst := frame.New(4, 2, 1)
	require.NoError(t, CopyRect(src, dst, src.Bounds(), image.Rect(2, 0, 6, 2)))
	assert.Equal(t, []uint8{
		0, 0, 1, 2,
		0, 0, 5, 6,
	}, dst.Pix)

	// Source hangs off the left edge: its visible part lands on the right.
	dst = frame.New(4, 2, 1)
	require.NoError(t, CopyRect(src, dst, image.Rect(-2, 0, 2, 2), dst.Bounds()))
	assert.Equal(t, []uint8{
		0, 0, 1, 2,
		0, 0, 5, 6,
	}, dst.Pix)

	// Entirely outside.
	dst = frame.New(4, 2, 1)
	require.NoError(t, CopyRect(src, dst, src.Bounds(), image.Rect(10, 10, 12, 12)))
	assert.Equal(t, make([]uint8, 8), dst.Pix)
}
