package vec

import "math"

// Vec2 представляет 2D координаты с плавающей точкой в плоскости грани
type Vec2 struct {
	X, Y float64
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Cross возвращает z-компоненту векторного произведения
func (v Vec2) Cross(other Vec2) float64 {
	return v.X*other.Y - v.Y*other.X
}

// Length возвращает длину вектора
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceToLine возвращает расстояние от точки до прямой через a и b.
// Для вырожденного отрезка возвращается расстояние до a.
func (v Vec2) DistanceToLine(a, b Vec2) float64 {
	ab := b.Sub(a)
	l := ab.Length()
	if l == 0 {
		return v.DistanceTo(a)
	}
	return math.Abs(ab.Cross(v.Sub(a))) / l
}
