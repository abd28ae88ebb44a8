// Package kernel описывает внешнее ядро твердотельного моделирования и
// оборачивает его в Handle с семантикой значения.
package kernel

import (
	"errors"

	"github.com/annel0/extrudegen/internal/vec"
)

// ErrDegenerateGeometry ядро отказалось строить геометрию нулевой меры.
// Реализации Adapter оборачивают в нее такие отказы, чтобы вызывающий код
// мог выбрать другую геометрию вместо аварийного завершения.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// HalfEdge ориентированное ребро: индексы вершин начала и конца
type HalfEdge struct {
	Source int
	Target int
}

// HalfFacet ориентированная грань: циклы индексов вершин и признак того,
// что обход уже задает внешнюю нормаль
type HalfFacet struct {
	Cycles  [][]int
	Outward bool
}

// Adapter контракт ядра. ExtrudeFromCommand мутирует сцену на месте,
// поэтому напрямую его вызывает только Handle после Clone.
type Adapter interface {
	Clone() Adapter
	ExtrudeFromCommand(cmd string) error

	VertexCount() int
	Vertex(i int) vec.Vec3
	HalfEdgeCount() int
	HalfEdge(i int) HalfEdge
	HalfFacetCount() int
	HalfFacet(i int) HalfFacet

	// GenerateRandomPolygon возвращает вещественные числа через пробел,
	// по три на вершину многоугольника, вписанного в грань face.
	GenerateRandomPolygon(face int, marginA, marginB float64, allowHoles bool) (string, error)

	SaveScene(path string) error
	SetTargetFromOtherScene(other Adapter) error
}
