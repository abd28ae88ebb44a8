package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/extrudegen/internal/feature"
	"github.com/annel0/extrudegen/internal/kernel"
	"github.com/annel0/extrudegen/internal/kernel/meshkernel"
	"github.com/annel0/extrudegen/internal/vec"
)

func triangleLoop() []feature.Vertex {
	return []feature.Vertex{feature.V(0, 0, 0), feature.V(2, 0, 0), feature.V(0, 2, 0)}
}

func TestHandle_ExtrudeDoesNotMutateReceiver(t *testing.T) {
	start := kernel.NewHandle(meshkernel.New(meshkernel.Options{}))

	next, err := start.Extrude(triangleLoop(), vec.Vec3{Z: 1}, true)
	require.NoError(t, err)

	assert.True(t, start.IsEmpty())
	assert.Len(t, next.Vertices(), 6)
	assert.Equal(t, 5, next.Faces().Len(), "Треугольная призма: 2 основания и 3 боковые грани")
	assert.Equal(t, 9, next.Edges().Len())
}

func TestHandle_ExtrudeErrorLeavesNoHandle(t *testing.T) {
	start := kernel.NewHandle(meshkernel.New(meshkernel.Options{}))
	_, err := start.Extrude(triangleLoop(), vec.Vec3{}, true)
	assert.ErrorIs(t, err, meshkernel.ErrDegenerateExtrusion)
	assert.True(t, start.IsEmpty())
}

func TestHandle_FindCloseUsesKernelOrder(t *testing.T) {
	h, err := kernel.NewHandle(meshkernel.New(meshkernel.Options{})).Extrude(triangleLoop(), vec.Vec3{Z: 0.005}, true)
	require.NoError(t, err)

	// и (0,0,0), и (0,0,0.005) в пределах допуска; нижняя вершина добавлена раньше
	got, ok := h.FindClose(feature.V(0, 0, 0.004), 0.01)
	require.True(t, ok)
	assert.Equal(t, feature.V(0, 0, 0), got)

	_, ok = h.FindClose(feature.V(9, 9, 9), 0.01)
	assert.False(t, ok)
}

func TestHandle_FacetQueries(t *testing.T) {
	h, err := kernel.NewHandle(meshkernel.New(meshkernel.Options{})).Extrude(triangleLoop(), vec.Vec3{Z: 1}, true)
	require.NoError(t, err)

	require.Equal(t, 10, h.FacetCount())
	for i := 0; i < h.FacetCount(); i++ {
		assert.GreaterOrEqual(t, len(h.FacetVertices(i)), 3)
	}
	assert.NotEqual(t, h.FacetOutward(0), h.FacetOutward(1), "Две полуграни одной грани ориентированы противоположно")

	poly, err := h.RandomPolygon(0, 0.5, 0.5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(poly), 3)

	_, err = h.RandomPolygon(100, 0.5, 0.5)
	assert.ErrorIs(t, err, meshkernel.ErrFacetOutOfRange)
}

func TestHandle_SceneIsACopy(t *testing.T) {
	h, err := kernel.NewHandle(meshkernel.New(meshkernel.Options{})).Extrude(triangleLoop(), vec.Vec3{Z: 1}, true)
	require.NoError(t, err)

	scene := h.Scene()
	require.NoError(t, scene.ExtrudeFromCommand("extrude 5 5 5 6 5 5 5 6 5 0 0 1 +"))
	assert.Len(t, h.Vertices(), 6, "Мутация копии не видна через Handle")
}

func TestHandle_RandomPolygonAdvancesSharedStream(t *testing.T) {
	h, err := kernel.NewHandle(meshkernel.New(meshkernel.Options{Seed: 7})).Extrude(triangleLoop(), vec.Vec3{Z: 1}, true)
	require.NoError(t, err)
	before := h.Vertices()
	snapshot := kernel.NewHandle(h.Scene())
	alias := h

	first, err := h.RandomPolygon(0, 0.5, 0.5)
	require.NoError(t, err)
	second, err := alias.RandomPolygon(0, 0.5, 0.5)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "Копии Handle делят случайный поток")
	assert.Equal(t, before, h.Vertices(), "Геометрия не меняется")

	replay, err := snapshot.RandomPolygon(0, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, first, replay, "Клон сцены продолжает поток с позиции на момент клонирования")
}
