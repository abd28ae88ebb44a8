package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/extrudegen/internal/feature"
	"github.com/annel0/extrudegen/internal/vec"
)

func TestFormatExtrude(t *testing.T) {
	loop := []feature.Vertex{feature.V(0, 0, 0), feature.V(0, 5, 0), feature.V(5, 5, 0), feature.V(5, 0, 0)}

	assert.Equal(t, "extrude 0 0 0 0 5 0 5 5 0 5 0 0 0 0 3 +", FormatExtrude(loop, vec.Vec3{Z: 3}, true))
	assert.Equal(t, "extrude 0 0 0 0 5 0 5 5 0 5 0 0 0 0 -1.5 -", FormatExtrude(loop, vec.Vec3{Z: -1.5}, false))
}

func TestParseExtrude_RoundTrip(t *testing.T) {
	loop := []feature.Vertex{feature.V(0.1, 1e-7, -3), feature.V(1.0/3, 2, 0), feature.V(4, 4, 4)}
	d := vec.Vec3{X: 0.7071067811865476, Y: 0, Z: -2.25}

	cmd, err := ParseExtrude(FormatExtrude(loop, d, false))
	require.NoError(t, err)

	require.Len(t, cmd.Loop, 3)
	for i, p := range cmd.Loop {
		assert.Equal(t, loop[i], feature.FromVec(p), "Координаты восстанавливаются точно")
	}
	assert.Equal(t, d, cmd.Displacement)
	assert.False(t, cmd.Union)
}

func TestParseExtrude_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"wrong verb":    "sweep 0 0 0 1 0 0 0 1 0 0 0 1 +",
		"no op token":   "extrude 0 0 0 1 0 0 0 1 0 0 0 1",
		"bad op token":  "extrude 0 0 0 1 0 0 0 1 0 0 0 1 *",
		"not triples":   "extrude 0 0 0 1 0 0 0 1 0 0 0 +",
		"bad float":     "extrude 0 0 x 1 0 0 0 1 0 0 0 1 +",
		"too few verts": "extrude 0 0 0 1 0 0 0 0 1 +",
		"only verb":     "extrude",
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseExtrude(cmd)
			assert.ErrorIs(t, err, ErrMalformedCommand)
		})
	}
}

func TestParsePoints(t *testing.T) {
	pts, err := ParsePoints("  1 2 3\n4 5 6 ")
	require.NoError(t, err)
	assert.Equal(t, []vec.Vec3{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}, pts)

	_, err = ParsePoints("1 2 3 4")
	assert.Error(t, err)
	_, err = ParsePoints("1 2 nan?")
	assert.Error(t, err)
}
