package program

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/annel0/extrudegen/internal/feature"
	"github.com/annel0/extrudegen/internal/kernel"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/annel0/extrudegen/internal/vec"
)

// ErrGeometryExhausted все попытки выборки дали вырожденную геометрию
var ErrGeometryExhausted = errors.New("geometry exhausted")

// Начальная геометрия для пустого тела
var (
	seedLoop = []feature.Vertex{
		feature.V(0, 0, 0), feature.V(0, 5, 0), feature.V(5, 5, 0), feature.V(5, 0, 0),
	}
	seedDisplacement = vec.Vec3{X: 0, Y: 0, Z: 3}
)

// SeedExtrusion детерминированный бокс 5×5×3, с которого начинается любое тело
func SeedExtrusion() Extrusion {
	return Extrusion{Displacement: seedDisplacement, Union: true, Loop: slices.Clone(seedLoop)}
}

// SamplerOptions параметры выборки
type SamplerOptions struct {
	Steps          int     // шагов в программе
	MaxAttempts    int     // попыток на один шаг до ErrGeometryExhausted
	MinMagnitude   float64 // длина смещения ~ U[MinMagnitude, MaxMagnitude)
	MaxMagnitude   float64
	InsetA         float64 // отступы случайного многоугольника
	InsetB         float64
	MinNormal      float64 // нормали короче считаются вырожденными
	DifferenceRate float64 // вероятность вычитания для шагов после первого

	// Epsilon допуск сопоставления вершин при компиляции. Вершины
	// многоугольника и их верхние копии держатся дальше 2·Epsilon друг от
	// друга и от вершин тела, иначе первое попадание FindClose неоднозначно.
	Epsilon float64
	MinArea float64 // многоугольники меньшей площади отбрасываются
}

// DefaultSamplerOptions значения по умолчанию
func DefaultSamplerOptions() SamplerOptions {
	return SamplerOptions{
		Steps:        2,
		MaxAttempts:  64,
		MinMagnitude: 1,
		MaxMagnitude: 4,
		InsetA:       0.5,
		InsetB:       0.5,
		MinNormal:    0.001,
		Epsilon:      DefaultEpsilon,
		MinArea:      1e-3,
	}
}

// Sampler процедурный генератор шагов. Собственного состояния, кроме
// источника случайности и счетчика повторов, не хранит.
type Sampler struct {
	rng        *rand.Rand
	opts       SamplerOptions
	degenerate uint64
}

// SamplerStats накопленная статистика выборки
type SamplerStats struct {
	DegenerateRetries uint64
}

// NewSampler создает генератор с явным источником случайности
func NewSampler(rng *rand.Rand, opts SamplerOptions) *Sampler {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Steps <= 0 {
		opts.Steps = 1
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	return &Sampler{rng: rng, opts: opts}
}

// Stats возвращает статистику с момента создания
func (s *Sampler) Stats() SamplerStats {
	return SamplerStats{DegenerateRetries: s.degenerate}
}

// Extrusion выбирает один шаг для текущего состояния h.
//
// Пустое тело получает SeedExtrusion (всегда объединение). Иначе берется
// случайная полугрань, ядро строит на ней вписанный многоугольник, а смещение
// идет вдоль внешней нормали грани. Вырожденные нормали, вырожденные
// многоугольники и отказы ядра по kernel.ErrDegenerateGeometry отбрасываются,
// выборка повторяется не более MaxAttempts раз.
func (s *Sampler) Extrusion(h kernel.Handle, union bool) (Extrusion, error) {
	if h.IsEmpty() {
		return SeedExtrusion(), nil
	}
	facets := h.FacetCount()
	if facets == 0 {
		return Extrusion{}, fmt.Errorf("%w: solid has vertices but no facets", ErrGeometryExhausted)
	}

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		face := s.rng.Intn(facets)
		loop, err := h.RandomPolygon(face, s.opts.InsetA, s.opts.InsetB)
		if errors.Is(err, kernel.ErrDegenerateGeometry) {
			s.degenerate++
			logging.Debug("sampler: kernel rejected facet %d (attempt %d/%d): %v", face, attempt, s.opts.MaxAttempts, err)
			continue
		}
		if err != nil {
			return Extrusion{}, err
		}

		normal, ok := s.outwardNormal(h, face)
		if !ok || !s.wellFormed(loop) {
			s.degenerate++
			logging.Debug("sampler: degenerate facet %d (attempt %d/%d), resampling", face, attempt, s.opts.MaxAttempts)
			continue
		}

		magnitude := s.opts.MinMagnitude + s.rng.Float64()*(s.opts.MaxMagnitude-s.opts.MinMagnitude)
		d := normal.Normalized().Scale(magnitude)
		if !s.clearOf(h.Vertices(), loop, d) {
			s.degenerate++
			logging.Debug("sampler: extrusion from facet %d lands on existing vertices (attempt %d/%d)", face, attempt, s.opts.MaxAttempts)
			continue
		}
		return Extrusion{Displacement: d, Union: union, Loop: loop}, nil
	}
	return Extrusion{}, fmt.Errorf("%w after %d attempts", ErrGeometryExhausted, s.opts.MaxAttempts)
}

// outwardNormal считает нормаль по первым трем вершинам полуграни и
// разворачивает ее, если обход ядра не задает внешнее направление
func (s *Sampler) outwardNormal(h kernel.Handle, face int) (vec.Vec3, bool) {
	vs := h.FacetVertices(face)
	if len(vs) < 3 {
		return vec.Vec3{}, false
	}
	n := vs[1].Sub(vs[0]).Cross(vs[2].Sub(vs[0]))
	if !h.FacetOutward(face) {
		n = n.Neg()
	}
	if n.Length() < s.opts.MinNormal {
		return vec.Vec3{}, false
	}
	return n, true
}

// separation минимальное расстояние между различимыми вершинами
func (s *Sampler) separation() float64 {
	return 2 * s.opts.Epsilon
}

// wellFormed отбрасывает многоугольники, которые ядро склеит в меньшее число
// вершин или примет за плоские: слишком близкие вершины или малая площадь
func (s *Sampler) wellFormed(loop []feature.Vertex) bool {
	if len(loop) < 3 {
		return false
	}
	pts := make([]vec.Vec3, len(loop))
	for i, v := range loop {
		pts[i] = v.Vec()
		for _, prev := range pts[:i] {
			if pts[i].DistanceTo(prev) < s.separation() {
				return false
			}
		}
	}
	return vec.Newell(pts).Length()/2 >= s.opts.MinArea
}

// clearOf проверяет, что ни нижние, ни верхние вершины будущей призмы не
// попадают в окрестность уже существующих вершин тела
func (s *Sampler) clearOf(existing, loop []feature.Vertex, d vec.Vec3) bool {
	for _, v := range loop {
		bottom, top := v.Vec(), v.Add(d).Vec()
		for _, e := range existing {
			p := e.Vec()
			if bottom.DistanceTo(p) < s.separation() || top.DistanceTo(p) < s.separation() {
				return false
			}
		}
	}
	return true
}

// Program выбирает Steps шагов, сразу исполняя каждый, чтобы следующий
// выбирался на обновленном теле. Возвращаются сами выбранные шаги.
func (s *Sampler) Program(h kernel.Handle) (Program, error) {
	steps := make([]Extrusion, 0, s.opts.Steps)
	for i := 0; i < s.opts.Steps; i++ {
		union := true
		if !h.IsEmpty() && s.opts.DifferenceRate > 0 {
			union = s.rng.Float64() >= s.opts.DifferenceRate
		}

		step, err := s.Extrusion(h, union)
		if err != nil {
			return Program{}, fmt.Errorf("sample step %d: %w", i, err)
		}
		h, err = step.Execute(h)
		if err != nil {
			return Program{}, fmt.Errorf("execute sampled step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return Program{Steps: steps}, nil
}
