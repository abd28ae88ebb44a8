package feature

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Face один или несколько замкнутых циклов вершин.
// Порядок обхода сохраняется таким, каким его сообщило ядро.
type Face struct {
	cycles [][]Vertex
}

// NewFace собирает грань из циклов. Пустая грань или цикл короче трех
// вершин: ошибка вызывающего кода.
func NewFace(cycles ...[]Vertex) Face {
	if len(cycles) == 0 {
		panic("feature: face needs at least one cycle")
	}
	own := make([][]Vertex, len(cycles))
	for i, c := range cycles {
		if len(c) < 3 {
			panic(fmt.Sprintf("feature: face cycle %d has %d vertices, need at least 3", i, len(c)))
		}
		own[i] = slices.Clone(c)
	}
	return Face{cycles: own}
}

// Cycles возвращает копию циклов грани
func (f Face) Cycles() [][]Vertex {
	out := make([][]Vertex, len(f.cycles))
	for i, c := range f.cycles {
		out[i] = slices.Clone(c)
	}
	return out
}

// Boundary возвращает вершины внешнего цикла в порядке ядра
func (f Face) Boundary() []Vertex {
	if len(f.cycles) == 0 {
		return nil
	}
	return slices.Clone(f.cycles[0])
}

// Edges возвращает ребра всех циклов грани
func (f Face) Edges() EdgeSet {
	s := make(EdgeSet)
	for _, c := range f.cycles {
		for e := range LoopEdges(c) {
			s.Add(e)
		}
	}
	return s
}

// ContainsVertex проверяет, лежит ли v на границе грани
func (f Face) ContainsVertex(v Vertex) bool {
	for _, c := range f.cycles {
		if slices.Contains(c, v) {
			return true
		}
	}
	return false
}

// ContainsEdge считает ребро принадлежащим грани, если оно касается
// хотя бы одной граничной вершины
func (f Face) ContainsEdge(e Edge) bool {
	return f.ContainsVertex(e.A) || f.ContainsVertex(e.B)
}

// Equal сравнивает грани по множеству циклов. Сдвиг начала цикла и
// направление обхода на равенство не влияют.
func (f Face) Equal(other Face) bool {
	if len(f.cycles) != len(other.cycles) {
		return false
	}
	used := make([]bool, len(other.cycles))
	for _, c := range f.cycles {
		ce := LoopEdges(c)
		matched := false
		for j, oc := range other.cycles {
			if used[j] || len(oc) != len(c) {
				continue
			}
			if ce.Equal(LoopEdges(oc)) {
				used[j] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Hash не зависит от порядка вершин и направления обхода:
// равные по Equal грани дают одинаковый хеш.
func (f Face) Hash() uint64 {
	var all []Vertex
	for _, c := range f.cycles {
		all = append(all, c...)
	}
	slices.SortFunc(all, Vertex.Compare)
	all = slices.Compact(all)

	d := xxhash.New()
	var buf [8]byte
	for _, v := range all {
		for _, x := range [3]float64{v.X, v.Y, v.Z} {
			if x == 0 {
				x = 0 // -0 и 0 равны по ==, биты должны совпадать
			}
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}

func (f Face) Kind() Kind { return KindFace }

// Children возвращает ребра грани
func (f Face) Children() []Feature {
	edges := f.Edges()
	out := make([]Feature, 0, len(edges))
	for e := range edges {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Feature) int {
		ea, eb := a.(Edge), b.(Edge)
		if c := ea.A.Compare(eb.A); c != 0 {
			return c
		}
		return ea.B.Compare(eb.B)
	})
	return out
}

func (f Face) String() string {
	return fmt.Sprintf("face%v", f.cycles)
}

// FaceSet множество граней с сохранением порядка вставки
type FaceSet struct {
	order   []Face
	buckets map[uint64][]int
}

// NewFaceSet создает множество и отбрасывает дубликаты
func NewFaceSet(faces ...Face) *FaceSet {
	s := &FaceSet{buckets: make(map[uint64][]int)}
	for _, f := range faces {
		s.Add(f)
	}
	return s
}

// Add добавляет грань, если равной ей еще нет. Возвращает true при вставке.
func (s *FaceSet) Add(f Face) bool {
	if s.buckets == nil {
		s.buckets = make(map[uint64][]int)
	}
	h := f.Hash()
	for _, idx := range s.buckets[h] {
		if s.order[idx].Equal(f) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], len(s.order))
	s.order = append(s.order, f)
	return true
}

// Contains проверяет наличие равной грани
func (s *FaceSet) Contains(f Face) bool {
	for _, idx := range s.buckets[f.Hash()] {
		if s.order[idx].Equal(f) {
			return true
		}
	}
	return false
}

func (s *FaceSet) Len() int { return len(s.order) }

// Items возвращает грани в порядке первой вставки
func (s *FaceSet) Items() []Face {
	return slices.Clone(s.order)
}
