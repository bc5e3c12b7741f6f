package curve

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTooFewPoints(t *testing.T) {
	assert.Nil(t, Compile(nil))
	assert.Nil(t, Compile([]ControlPoint{P(0, 0)}))

	_, err := CurveFunc([]ControlPoint{P(10, 10)})
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		points []ControlPoint
		want   error
	}{
		{"ok", []ControlPoint{P(0, 0), P(255, 255)}, nil},
		{"too few", []ControlPoint{P(0, 0)}, ErrTooFewPoints},
		{"repeated input", []ControlPoint{P(0, 0), P(0, 10)}, ErrNotIncreasing},
		{"decreasing", []ControlPoint{P(0, 0), P(100, 10), P(50, 20)}, ErrNotIncreasing},
		{"input high", []ControlPoint{P(0, 0), P(256, 10)}, ErrOutOfRange},
		{"output low", []ControlPoint{P(0, -1), P(255, 10)}, ErrOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.points)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestLinearThreePoints(t *testing.T) {
	table := Compile([]ControlPoint{P(0, 0), P(128, 100), P(255, 255)})
	require.NotNil(t, table)
	assert.InDelta(t, 50, int(table[64]), 1)
	assert.InDelta(t, 177, int(table[192]), 1)
	assert.Equal(t, uint8(100), table[128])
}

func TestIdentityCurve(t *testing.T) {
	assert.Equal(t, Identity(), Compile([]ControlPoint{P(0, 0), P(255, 255)}))
	// Collinear knots give a flat second derivative, so the spline is exact too.
	assert.Equal(t, Identity(), Compile([]ControlPoint{P(0, 0), P(85, 85), P(170, 170), P(255, 255)}))
}

func TestCubicHitsAnchors(t *testing.T) {
	curves := [][]ControlPoint{
		{P(0, 0), P(23, 20), P(157, 173), P(255, 255)},
		{P(0, 0), P(25, 21), P(122, 153), P(165, 206), P(255, 255)},
		{P(0, 0), P(56, 22), P(211, 255), P(255, 255)},
	}
	for _, points := range curves {
		table := Compile(points)
		require.NotNil(t, table)
		for _, p := range points {
			assert.InDelta(t, p.Out, int(table[p.In]), 1, "anchor %v", p)
		}
	}
}

func TestTableAlwaysInRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 200; n++ {
		count := 2 + r.Intn(6)
		ins := r.Perm(256)[:count]
		points := make([]ControlPoint, 0, count)
		for in := 0; in < 256; in++ {
			for _, v := range ins {
				if v == in {
					points = append(points, P(in, r.Intn(256)))
				}
			}
		}
		table := Compile(points)
		require.NotNil(t, table, "points %v", points)
		// Entries are uint8 so range holds by construction; overshooting
		// splines must clamp rather than wrap.
		f, err := CurveFunc(points)
		require.NoError(t, err)
		for i := range table {
			v := f(float64(i))
			switch {
			case v <= 0:
				assert.Equal(t, uint8(0), table[i])
			case v >= 255:
				assert.Equal(t, uint8(255), table[i])
			}
		}
	}
}

func TestOutsideKnotsHoldsEndpoints(t *testing.T) {
	table := Compile([]ControlPoint{P(50, 20), P(200, 220)})
	require.NotNil(t, table)
	assert.Equal(t, uint8(20), table[0])
	assert.Equal(t, uint8(220), table[255])
}

func TestDeterministic(t *testing.T) {
	points := []ControlPoint{P(0, 0), P(69, 69), P(213, 218), P(255, 255)}
	assert.Equal(t, Compile(points), Compile(points))
}

func TestCompose(t *testing.T) {
	double := func(x float64) float64 { return 2 * x }
	plusOne := func(x float64) float64 { return x + 1 }

	assert.Equal(t, 7.0, Compose(double, plusOne)(3))
	assert.Equal(t, 8.0, Compose(plusOne, double)(3))
	assert.Equal(t, 6.0, Compose(nil, double)(3))
	assert.Equal(t, 6.0, Compose(double, nil)(3))
	assert.Nil(t, Compose(nil, nil))
}

func TestThenMatchesComposedFunc(t *testing.T) {
	v := []ControlPoint{P(0, 0), P(128, 118), P(221, 215), P(255, 255)}
	b := []ControlPoint{P(0, 0), P(41, 28), P(183, 209), P(255, 255)}
	fv, _ := CurveFunc(v)
	fb, _ := CurveFunc(b)
	composed := NewLookupTable(Compose(fv, fb))
	chained := Compile(v).Then(Compile(b))
	for i := range composed {
		// Chaining tables rounds between stages.
		assert.InDelta(t, int(composed[i]), int(chained[i]), 1)
	}
}

func TestApply(t *testing.T) {
	table := Compile([]ControlPoint{P(0, 255), P(255, 0)})
	buf := []uint8{0, 10, 255}
	table.Apply(buf, buf)
	assert.Equal(t, []uint8{255, 245, 0}, buf)

	var nilTable *LookupTable
	dst := []uint8{1, 2, 3}
	nilTable.Apply([]uint8{9, 9, 9}, dst)
	assert.Equal(t, []uint8{1, 2, 3}, dst)
}

func TestApplyStrided(t *testing.T) {
	table := Compile([]ControlPoint{P(0, 255), P(255, 0)})
	buf := []uint8{0, 0, 0, 0, 0, 0}
	table.ApplyStrided(buf, buf, 1, 3)
	assert.Equal(t, []uint8{0, 255, 0, 0, 255, 0}, buf)
}

func TestControlPointJSON(t *testing.T) {
	var points []ControlPoint
	require.NoError(t, json.Unmarshal([]byte(`[[0,0],[128,100]]`), &points))
	assert.Equal(t, []ControlPoint{P(0, 0), P(128, 100)}, points)

	b, err := json.Marshal(points)
	require.NoError(t, err)
	assert.JSONEq(t, `[[0,0],[128,100]]`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`[{"In":1}]`), &points))
}

func TestControlPointJSONLength(t *testing.T) {
	for _, in := range []string{`[[1,2,3]]`, `[[1]]`, `[[]]`} {
		var points []ControlPoint
		assert.ErrorIs(t, json.Unmarshal([]byte(in), &points), ErrBadPoint, in)
	}
}

func TestCubicReproducesQuadratic(t *testing.T) {
	q := func(x float64) float64 { return x * x / 250 }
	var points []ControlPoint
	for _, x := range []int{0, 50, 100, 150, 250} {
		points = append(points, P(x, int(q(float64(x)))))
	}
	f, err := CurveFunc(points)
	require.NoError(t, err)
	for x := 0.0; x <= 250; x += 5 {
		assert.InDelta(t, q(x), f(x), 1e-9, "x=%v", x)
	}
}
