package feature

// Kind тег варианта признака
type Kind uint8

const (
	KindVertex Kind = iota + 1
	KindEdge
	KindFace
)

// String возвращает строковое представление вида признака
func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	case KindFace:
		return "face"
	default:
		return "unknown"
	}
}

// Feature закрытая сумма типов {Vertex, Edge, Face}
type Feature interface {
	Kind() Kind
	Children() []Feature
}

// Equal структурно сравнивает два признака одного вида.
// Признаки разных видов никогда не равны.
func Equal(a, b Feature) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Vertex:
		return x == b.(Vertex)
	case Edge:
		return x == b.(Edge)
	case Face:
		return x.Equal(b.(Face))
	}
	return false
}
