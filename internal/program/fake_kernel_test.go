package program

import (
	"slices"

	"github.com/annel0/extrudegen/internal/kernel"
	"github.com/annel0/extrudegen/internal/vec"
)

// fakeScene ядро-заглушка с заранее заданными гранями и многоугольником
type fakeScene struct {
	vertices   []vec.Vec3
	facets     []kernel.HalfFacet
	polygon    string
	polygonErr error
	commands   []string
}

func (f *fakeScene) Clone() kernel.Adapter {
	c := *f
	c.vertices = slices.Clone(f.vertices)
	c.facets = slices.Clone(f.facets)
	c.commands = slices.Clone(f.commands)
	return &c
}

func (f *fakeScene) ExtrudeFromCommand(cmd string) error {
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeScene) VertexCount() int                 { return len(f.vertices) }
func (f *fakeScene) Vertex(i int) vec.Vec3            { return f.vertices[i] }
func (f *fakeScene) HalfEdgeCount() int               { return 0 }
func (f *fakeScene) HalfEdge(i int) kernel.HalfEdge   { return kernel.HalfEdge{} }
func (f *fakeScene) HalfFacetCount() int              { return len(f.facets) }
func (f *fakeScene) HalfFacet(i int) kernel.HalfFacet { return f.facets[i] }

func (f *fakeScene) GenerateRandomPolygon(face int, a, b float64, holes bool) (string, error) {
	return f.polygon, f.polygonErr
}

func (f *fakeScene) SaveScene(path string) error                  { return nil }
func (f *fakeScene) SetTargetFromOtherScene(kernel.Adapter) error { return nil }

// degenerateScene: полугрань 0 вырождена (три вершины на одной прямой),
// полугрань 1: нормальный треугольник в плоскости z=0, смотрящий вниз
func degenerateScene(withGoodFacet bool) *fakeScene {
	f := &fakeScene{
		vertices: []vec.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, // коллинеарные
			{X: 0, Y: 1, Z: 0},
		},
		facets: []kernel.HalfFacet{
			{Cycles: [][]int{{0, 1, 2}}, Outward: true},
		},
		polygon: "0.2 0.2 0 0.4 0.2 0 0.2 0.4 0",
	}
	if withGoodFacet {
		// обход 0,1,3 дает +z, но грань помечена как не внешняя
		f.facets = append(f.facets, kernel.HalfFacet{Cycles: [][]int{{0, 1, 3}}, Outward: false})
	}
	return f
}
