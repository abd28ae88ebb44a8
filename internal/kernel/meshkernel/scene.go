// Package meshkernel эталонное ядро в памяти, реализующее kernel.Adapter.
//
// Сцена хранит вершины, полуребра и полуграни в плоских срезах и ссылается
// на них индексами. Выдавливание строит призму и добавляет ее к телу без
// булевых операций: призмы накапливаются.
package meshkernel

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/annel0/extrudegen/internal/kernel"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/annel0/extrudegen/internal/vec"
)

// DefaultSnap шаг квантования координат
const DefaultSnap = 1e-6

// Оба отказа по вырожденности оборачивают kernel.ErrDegenerateGeometry
var (
	ErrDegenerateExtrusion = fmt.Errorf("%w: extrusion", kernel.ErrDegenerateGeometry)
	ErrDegenerateFacet     = fmt.Errorf("%w: facet", kernel.ErrDegenerateGeometry)
	ErrFacetOutOfRange     = errors.New("facet index out of range")
	ErrHolesUnsupported    = errors.New("polygons with holes are not supported")
)

// Options параметры сцены
type Options struct {
	Snap float64 // шаг квантования координат; 0: DefaultSnap, <0: без квантования
	Seed int64   // сид генератора случайных многоугольников
}

// Scene сцена эталонного ядра
type Scene struct {
	snap       float64
	seed       int64
	calls      atomic.Uint64
	vertices   []vec.Vec3
	index      map[vec.Vec3]int
	halfEdges  []kernel.HalfEdge
	halfFacets []kernel.HalfFacet
	target     kernel.Adapter
}

var _ kernel.Adapter = (*Scene)(nil)

// New создает пустую сцену
func New(opts Options) *Scene {
	snap := opts.Snap
	if snap == 0 {
		snap = DefaultSnap
	}
	return &Scene{
		snap:  snap,
		seed:  opts.Seed,
		index: make(map[vec.Vec3]int),
	}
}

// Clone делает глубокую копию, включая позицию случайного потока
func (s *Scene) Clone() kernel.Adapter {
	c := &Scene{
		snap:       s.snap,
		seed:       s.seed,
		vertices:   slices.Clone(s.vertices),
		index:      make(map[vec.Vec3]int, len(s.index)),
		halfEdges:  slices.Clone(s.halfEdges),
		halfFacets: make([]kernel.HalfFacet, len(s.halfFacets)),
	}
	c.calls.Store(s.calls.Load())
	for k, v := range s.index {
		c.index[k] = v
	}
	for i, hf := range s.halfFacets {
		cycles := make([][]int, len(hf.Cycles))
		for j, cy := range hf.Cycles {
			cycles[j] = slices.Clone(cy)
		}
		c.halfFacets[i] = kernel.HalfFacet{Cycles: cycles, Outward: hf.Outward}
	}
	if s.target != nil {
		c.target = s.target.Clone()
	}
	return c
}

func (s *Scene) VertexCount() int                 { return len(s.vertices) }
func (s *Scene) Vertex(i int) vec.Vec3            { return s.vertices[i] }
func (s *Scene) HalfEdgeCount() int               { return len(s.halfEdges) }
func (s *Scene) HalfEdge(i int) kernel.HalfEdge   { return s.halfEdges[i] }
func (s *Scene) HalfFacetCount() int              { return len(s.halfFacets) }
func (s *Scene) HalfFacet(i int) kernel.HalfFacet { return s.halfFacets[i] }

// Target возвращает сцену-цель, назначенную SetTargetFromOtherScene
func (s *Scene) Target() kernel.Adapter {
	return s.target
}

// SetTargetFromOtherScene запоминает копию другой сцены как цель
func (s *Scene) SetTargetFromOtherScene(other kernel.Adapter) error {
	if other == nil {
		return errors.New("target scene is nil")
	}
	s.target = other.Clone()
	return nil
}

// ExtrudeFromCommand разбирает команду протокола и добавляет призму к сцене
func (s *Scene) ExtrudeFromCommand(cmd string) error {
	parsed, err := kernel.ParseExtrude(cmd)
	if err != nil {
		return err
	}
	return s.extrude(parsed)
}

func (s *Scene) extrude(cmd kernel.ExtrudeCommand) error {
	loop := make([]vec.Vec3, 0, len(cmd.Loop))
	for _, p := range cmd.Loop {
		q := p.Quantize(s.snap)
		if len(loop) > 0 && loop[len(loop)-1] == q {
			continue
		}
		loop = append(loop, q)
	}
	if len(loop) > 1 && loop[0] == loop[len(loop)-1] {
		loop = loop[:len(loop)-1]
	}
	if len(loop) < 3 {
		return fmt.Errorf("%w: loop collapses to %d distinct vertices", ErrDegenerateExtrusion, len(loop))
	}

	d := cmd.Displacement
	if d.Length() < s.tolerance() {
		return fmt.Errorf("%w: zero displacement", ErrDegenerateExtrusion)
	}
	n := vec.Newell(loop)
	along := n.Dot(d)
	if n.Length() < s.tolerance() || along == 0 {
		return fmt.Errorf("%w: loop is flat along the displacement", ErrDegenerateExtrusion)
	}
	// обход основания против часовой стрелки, если смотреть со стороны d
	if along < 0 {
		slices.Reverse(loop)
	}

	bottom := make([]int, len(loop))
	top := make([]int, len(loop))
	for i, p := range loop {
		bottom[i] = s.addVertex(p)
		top[i] = s.addVertex(p.Add(d))
	}

	down := slices.Clone(bottom)
	slices.Reverse(down)
	s.addFace(down, cmd.Union)
	s.addFace(top, cmd.Union)
	for i := range loop {
		j := (i + 1) % len(loop)
		s.addFace([]int{bottom[i], bottom[j], top[j], top[i]}, cmd.Union)
	}

	logging.Debug("meshkernel: prism with %d-gon base, union=%v, %d vertices total",
		len(loop), cmd.Union, len(s.vertices))
	return nil
}

func (s *Scene) tolerance() float64 {
	if s.snap > 0 {
		return s.snap
	}
	return 1e-12
}

func (s *Scene) addVertex(p vec.Vec3) int {
	p = p.Quantize(s.snap)
	if idx, ok := s.index[p]; ok {
		return idx
	}
	idx := len(s.vertices)
	s.vertices = append(s.vertices, p)
	s.index[p] = idx
	return idx
}

// addFace записывает грань двумя полугранями: прямой обход смотрит наружу
// тела при объединении и внутрь при вычитании.
func (s *Scene) addFace(cycle []int, union bool) {
	rev := slices.Clone(cycle)
	slices.Reverse(rev)
	for _, hf := range []kernel.HalfFacet{
		{Cycles: [][]int{slices.Clone(cycle)}, Outward: union},
		{Cycles: [][]int{rev}, Outward: !union},
	} {
		s.halfFacets = append(s.halfFacets, hf)
		c := hf.Cycles[0]
		for i := range c {
			s.halfEdges = append(s.halfEdges, kernel.HalfEdge{Source: c[i], Target: c[(i+1)%len(c)]})
		}
	}
}
