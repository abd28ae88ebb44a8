package vec

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 представляет трехмерный вектор с плавающими координатами
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) r3() r3.Vec         { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }
func fromR3(p r3.Vec) Vec3        { return Vec3{X: p.X, Y: p.Y, Z: p.Z} }
func (v Vec3) IsZero() bool       { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) Neg() Vec3          { return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z} }
func (v Vec3) Dot(o Vec3) float64 { return r3.Dot(v.r3(), o.r3()) }

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return fromR3(r3.Add(v.r3(), other.r3()))
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return fromR3(r3.Sub(v.r3(), other.r3()))
}

// Scale умножает вектор на скаляр
func (v Vec3) Scale(f float64) Vec3 {
	return fromR3(r3.Scale(f, v.r3()))
}

// Cross возвращает векторное произведение v × other
func (v Vec3) Cross(other Vec3) Vec3 {
	return fromR3(r3.Cross(v.r3(), other.r3()))
}

// Length возвращает длину вектора
func (v Vec3) Length() float64 {
	return r3.Norm(v.r3())
}

// Normalized возвращает нормализованный вектор; нулевой вектор остается нулевым
func (v Vec3) Normalized() Vec3 {
	if v.IsZero() {
		return Vec3{}
	}
	return fromR3(r3.Unit(v.r3()))
}

// DistanceTo возвращает евклидово расстояние до другой точки
func (v Vec3) DistanceTo(other Vec3) float64 {
	return r3.Norm(r3.Sub(v.r3(), other.r3()))
}

// Quantize округляет координаты до шага step (step <= 0: без изменений)
func (v Vec3) Quantize(step float64) Vec3 {
	if step <= 0 {
		return v
	}
	q := func(f float64) float64 {
		r := math.Round(f/step) * step
		if r == 0 {
			return 0 // избавляемся от -0
		}
		return r
	}
	return Vec3{X: q(v.X), Y: q(v.Y), Z: q(v.Z)}
}

// Newell вычисляет нормаль многоугольника методом Ньюэлла.
// Длина результата равна удвоенной площади многоугольника.
func Newell(points []Vec3) Vec3 {
	var n Vec3
	for i, cur := range points {
		next := points[(i+1)%len(points)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// Centroid возвращает среднее арифметическое точек
func Centroid(points []Vec3) Vec3 {
	var c Vec3
	if len(points) == 0 {
		return c
	}
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(points)))
}
