// Package feature содержит значения-идентичности B-rep: вершины, ребра и грани.
//
// Равенство здесь всегда точное и структурное (вершины можно класть в map и
// сортировать), а сопоставление с допуском выполняется отдельным предикатом
// Close и никогда не участвует в идентичности.
package feature

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/extrudegen/internal/vec"
)

// Vertex неизменяемая тройка координат.
// Сравнение через == точное, без допуска.
type Vertex struct {
	X, Y, Z float64
}

// V короткий конструктор вершины
func V(x, y, z float64) Vertex {
	return Vertex{X: x, Y: y, Z: z}
}

// FromVec оборачивает координаты, полученные от ядра
func FromVec(v vec.Vec3) Vertex {
	return Vertex{X: v.X, Y: v.Y, Z: v.Z}
}

// Vec возвращает координаты вершины как вектор
func (v Vertex) Vec() vec.Vec3 {
	return vec.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Add прибавляет смещение к вершине
func (v Vertex) Add(d vec.Vec3) Vertex {
	return FromVec(v.Vec().Add(d))
}

// Sub возвращает вектор v - other
func (v Vertex) Sub(other Vertex) vec.Vec3 {
	return v.Vec().Sub(other.Vec())
}

// Scale масштабирует координаты
func (v Vertex) Scale(f float64) Vertex {
	return FromVec(v.Vec().Scale(f))
}

// Close проверяет, что расстояние до other строго меньше epsilon.
// Используется только для сопоставления двух независимых представлений точки.
func (v Vertex) Close(other Vertex, epsilon float64) bool {
	return v.Vec().DistanceTo(other.Vec()) < epsilon
}

// Less задает полный лексикографический порядок по (x, y, z)
func (v Vertex) Less(other Vertex) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// Compare возвращает -1, 0 или 1 в том же порядке, что и Less
func (v Vertex) Compare(other Vertex) int {
	switch {
	case v == other:
		return 0
	case v.Less(other):
		return -1
	default:
		return 1
	}
}

func (v Vertex) Kind() Kind          { return KindVertex }
func (v Vertex) Children() []Feature { return nil }
func (v Vertex) String() string      { return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z) }

// MarshalJSON кодирует вершину как [x, y, z]
func (v Vertex) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON читает вершину из [x, y, z]
func (v *Vertex) UnmarshalJSON(data []byte) error {
	var xyz [3]float64
	if err := json.Unmarshal(data, &xyz); err != nil {
		return fmt.Errorf("vertex: %w", err)
	}
	*v = Vertex{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	return nil
}

// FindClose возвращает первую вершину из vertices (в заданном порядке),
// лежащую ближе epsilon к query. Это не поиск ближайшей точки: при нескольких
// кандидатах в пределах допуска побеждает первый по порядку перечисления.
func FindClose(vertices []Vertex, query Vertex, epsilon float64) (Vertex, bool) {
	for _, candidate := range vertices {
		if query.Close(candidate, epsilon) {
			return candidate, true
		}
	}
	return Vertex{}, false
}
