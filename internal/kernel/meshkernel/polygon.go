package meshkernel

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/extrudegen/internal/vec"
)

// Параметры шума Перлина для шага углов
const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = int32(3)
	noiseStep    = 0.37 // шаг выборки, не кратный решетке шума
)

// GenerateRandomPolygon строит выпуклый многоугольник внутри полуграни face.
// Вершины лежат на окружности вокруг центроида грани радиуса
// inradius·(1-marginA)·(marginB + (1-marginB)·u), u ~ U[0,1);
// угловые интервалы модулируются шумом Перлина. Обход против часовой стрелки
// относительно нормали Ньюэлла полуграни.
func (s *Scene) GenerateRandomPolygon(face int, marginA, marginB float64, allowHoles bool) (string, error) {
	if allowHoles {
		return "", ErrHolesUnsupported
	}
	if face < 0 || face >= len(s.halfFacets) {
		return "", fmt.Errorf("%w: %d of %d", ErrFacetOutOfRange, face, len(s.halfFacets))
	}
	if marginA < 0 || marginA >= 1 || marginB < 0 || marginB > 1 {
		return "", fmt.Errorf("margins must satisfy 0 <= a < 1 and 0 <= b <= 1, got %g/%g", marginA, marginB)
	}

	cycle := s.halfFacets[face].Cycles[0]
	pts := make([]vec.Vec3, len(cycle))
	for i, idx := range cycle {
		pts[i] = s.vertices[idx]
	}

	n := vec.Newell(pts)
	if n.Length() < s.tolerance() {
		return "", fmt.Errorf("%w: facet %d has zero area", ErrDegenerateFacet, face)
	}
	n = n.Normalized()
	u := firstDirection(pts)
	w := n.Cross(u)
	c := vec.Centroid(pts)

	flat := make([]vec.Vec2, len(pts))
	for i, p := range pts {
		rel := p.Sub(c)
		flat[i] = vec.Vec2{X: rel.Dot(u), Y: rel.Dot(w)}
	}
	inradius := math.Inf(1)
	for i := range flat {
		d := (vec.Vec2{}).DistanceToLine(flat[i], flat[(i+1)%len(flat)])
		inradius = math.Min(inradius, d)
	}

	rng := s.nextRand()
	k := 3 + rng.Intn(4)
	radius := inradius * (1 - marginA) * (marginB + (1-marginB)*rng.Float64())
	angles := noiseAngles(rng, k)

	var b strings.Builder
	for i, theta := range angles {
		p := c.Add(u.Scale(radius * math.Cos(theta))).Add(w.Scale(radius * math.Sin(theta)))
		for j, x := range [3]float64{p.X, p.Y, p.Z} {
			if i > 0 || j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
		}
	}
	return b.String(), nil
}

// nextRand продвигает случайный поток сцены; копии сцены продолжают поток
// независимо
func (s *Scene) nextRand() *rand.Rand {
	call := s.calls.Add(1)
	return rand.New(rand.NewSource(s.seed*1_000_003 + int64(call)))
}

// noiseAngles возвращает k возрастающих углов, покрывающих полный оборот
func noiseAngles(rng *rand.Rand, k int) []float64 {
	noise := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, rng.Int63())
	phase := rng.Float64() * 10

	weights := make([]float64, k)
	total := 0.0
	for i := range weights {
		// Noise1D примерно в [-1, 1]; вес держим в [0.5, 1.5]
		v := (noise.Noise1D(phase+float64(i)*noiseStep) + 1) / 2
		weights[i] = 0.5 + math.Max(0, math.Min(1, v))
		total += weights[i]
	}

	angles := make([]float64, k)
	theta := rng.Float64() * 2 * math.Pi
	for i, wgt := range weights {
		angles[i] = theta
		theta += 2 * math.Pi * wgt / total
	}
	return angles
}

func firstDirection(pts []vec.Vec3) vec.Vec3 {
	for i := 1; i < len(pts); i++ {
		if d := pts[i].Sub(pts[0]); !d.IsZero() {
			return d.Normalized()
		}
	}
	return vec.Vec3{X: 1}
}
