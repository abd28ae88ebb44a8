package feature

import "fmt"

// Edge неупорядоченная пара различных вершин.
// A всегда больше B в порядке Vertex.Less, поэтому NewEdge(u, v) == NewEdge(v, u).
type Edge struct {
	A, B Vertex
}

// NewEdge канонизирует пару вершин. Ребро из двух равных вершин считается
// ошибкой вызывающего кода, поэтому здесь паника.
func NewEdge(u, v Vertex) Edge {
	if u == v {
		panic(fmt.Sprintf("feature: edge endpoints must differ, got %v twice", u))
	}
	if u.Less(v) {
		u, v = v, u
	}
	return Edge{A: u, B: v}
}

// Has проверяет, является ли v концом ребра
func (e Edge) Has(v Vertex) bool {
	return e.A == v || e.B == v
}

func (e Edge) Kind() Kind { return KindEdge }

// Children возвращает концы ребра в каноническом порядке
func (e Edge) Children() []Feature {
	return []Feature{e.A, e.B}
}

func (e Edge) String() string {
	return fmt.Sprintf("%v-%v", e.A, e.B)
}

// EdgeSet множество ребер с точным сравнением
type EdgeSet map[Edge]struct{}

// NewEdgeSet создает множество из перечисленных ребер
func NewEdgeSet(edges ...Edge) EdgeSet {
	s := make(EdgeSet, len(edges))
	for _, e := range edges {
		s.Add(e)
	}
	return s
}

func (s EdgeSet) Add(e Edge)           { s[e] = struct{}{} }
func (s EdgeSet) Len() int             { return len(s) }
func (s EdgeSet) Contains(e Edge) bool { _, ok := s[e]; return ok }

// Equal сравнивает множества поэлементно
func (s EdgeSet) Equal(other EdgeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for e := range s {
		if !other.Contains(e) {
			return false
		}
	}
	return true
}

// LoopEdges соединяет последовательность вершин попарно и замыкает цикл.
// Результат не зависит от циклического сдвига и обращения последовательности.
func LoopEdges(loop []Vertex) EdgeSet {
	s := make(EdgeSet, len(loop))
	for i, v := range loop {
		s.Add(NewEdge(v, loop[(i+1)%len(loop)]))
	}
	return s
}
