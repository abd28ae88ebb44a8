package kernel

import (
	"fmt"

	"github.com/annel0/extrudegen/internal/feature"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/annel0/extrudegen/internal/vec"
)

// Handle неизменяемая ссылка на состояние ядра. Любая мутирующая операция
// сначала клонирует сцену и возвращает новый Handle, поэтому два Handle,
// выведенные из общего предка, никогда не делят изменяемую геометрию.
//
// Исключение: случайный поток ядра. RandomPolygon продвигает его на общей
// сцене, так что копии одного Handle получают разные многоугольники, а
// Handle, выведенный через Extrude, продолжает поток с текущей позиции.
type Handle struct {
	scene Adapter
}

// NewHandle забирает adapter во владение; вызывающий код больше не должен
// мутировать его напрямую.
func NewHandle(adapter Adapter) Handle {
	if adapter == nil {
		panic("kernel: nil adapter")
	}
	return Handle{scene: adapter}
}

// Scene возвращает независимую копию сцены
func (h Handle) Scene() Adapter {
	return h.scene.Clone()
}

// Extrude выполняет выдавливание на копии сцены и возвращает новый Handle
func (h Handle) Extrude(loop []feature.Vertex, d vec.Vec3, union bool) (Handle, error) {
	cmd := FormatExtrude(loop, d, union)
	logging.LogCommand(cmd)

	next := h.scene.Clone()
	if err := next.ExtrudeFromCommand(cmd); err != nil {
		return Handle{}, fmt.Errorf("kernel extrude: %w", err)
	}
	return Handle{scene: next}, nil
}

// WithTarget возвращает копию сцены, у которой целью назначена other
func (h Handle) WithTarget(other Handle) (Handle, error) {
	next := h.scene.Clone()
	if err := next.SetTargetFromOtherScene(other.scene.Clone()); err != nil {
		return Handle{}, fmt.Errorf("kernel set target: %w", err)
	}
	return Handle{scene: next}, nil
}

// Save делегирует сохранение сцены ядру
func (h Handle) Save(path string) error {
	if err := h.scene.SaveScene(path); err != nil {
		return fmt.Errorf("kernel save %s: %w", path, err)
	}
	return nil
}

// IsEmpty сообщает, что тело еще не содержит ни одной вершины
func (h Handle) IsEmpty() bool {
	return h.scene.VertexCount() == 0
}

// Vertices возвращает вершины в порядке внутренней нумерации ядра
func (h Handle) Vertices() []feature.Vertex {
	n := h.scene.VertexCount()
	out := make([]feature.Vertex, n)
	for i := 0; i < n; i++ {
		out[i] = feature.FromVec(h.scene.Vertex(i))
	}
	return out
}

// Edges возвращает множество ребер. Ядро сообщает каждое ребро несколькими
// полуребрами, дубликаты схлопываются.
func (h Handle) Edges() feature.EdgeSet {
	vs := h.Vertices()
	s := make(feature.EdgeSet)
	for i := 0; i < h.scene.HalfEdgeCount(); i++ {
		he := h.scene.HalfEdge(i)
		u, v := vs[he.Source], vs[he.Target]
		if u == v {
			logging.Warn("kernel: half-edge %d is degenerate at %v, skipped", i, u)
			continue
		}
		s.Add(feature.NewEdge(u, v))
	}
	return s
}

// Faces возвращает множество граней; обе ориентации одной грани дают одну запись
func (h Handle) Faces() *feature.FaceSet {
	vs := h.Vertices()
	s := feature.NewFaceSet()
	for i := 0; i < h.scene.HalfFacetCount(); i++ {
		hf := h.scene.HalfFacet(i)
		cycles := make([][]feature.Vertex, 0, len(hf.Cycles))
		for _, c := range hf.Cycles {
			if len(c) < 3 {
				continue
			}
			cycle := make([]feature.Vertex, len(c))
			for j, idx := range c {
				cycle[j] = vs[idx]
			}
			cycles = append(cycles, cycle)
		}
		if len(cycles) == 0 {
			logging.Warn("kernel: half-facet %d has no usable cycle, skipped", i)
			continue
		}
		s.Add(feature.NewFace(cycles...))
	}
	return s
}

// FindClose ищет первую вершину ядра ближе epsilon к v
func (h Handle) FindClose(v feature.Vertex, epsilon float64) (feature.Vertex, bool) {
	return feature.FindClose(h.Vertices(), v, epsilon)
}

// FacetCount количество полуграней ядра
func (h Handle) FacetCount() int {
	return h.scene.HalfFacetCount()
}

// FacetVertices возвращает внешний цикл полуграни i в порядке ядра
func (h Handle) FacetVertices(i int) []feature.Vertex {
	hf := h.scene.HalfFacet(i)
	if len(hf.Cycles) == 0 {
		return nil
	}
	out := make([]feature.Vertex, len(hf.Cycles[0]))
	for j, idx := range hf.Cycles[0] {
		out[j] = feature.FromVec(h.scene.Vertex(idx))
	}
	return out
}

// FacetOutward сообщает, задает ли обход полуграни i внешнюю нормаль
func (h Handle) FacetOutward(i int) bool {
	return h.scene.HalfFacet(i).Outward
}

// RandomPolygon запрашивает у ядра случайный многоугольник без дыр,
// вписанный в полугрань i с отступами marginA и marginB. Геометрию не
// меняет, но продвигает случайный поток сцены: повторный вызов с теми же
// аргументами дает другой многоугольник.
func (h Handle) RandomPolygon(i int, marginA, marginB float64) ([]feature.Vertex, error) {
	raw, err := h.scene.GenerateRandomPolygon(i, marginA, marginB, false)
	if err != nil {
		return nil, fmt.Errorf("kernel random polygon on facet %d: %w", i, err)
	}
	points, err := ParsePoints(raw)
	if err != nil {
		return nil, fmt.Errorf("kernel random polygon on facet %d: %w", i, err)
	}
	out := make([]feature.Vertex, len(points))
	for j, p := range points {
		out[j] = feature.FromVec(p)
	}
	return out, nil
}
