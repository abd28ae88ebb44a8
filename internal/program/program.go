package program

import (
	"fmt"
	"math/rand"

	"github.com/annel0/extrudegen/internal/kernel"
)

// Program упорядоченный список шагов выдавливания
type Program struct {
	Steps []Extrusion `json:"steps"`
}

// Execute последовательно выполняет шаги, передавая Handle дальше.
// Исходный h не меняется, поэтому повторные вызовы от одного начала независимы.
func (p Program) Execute(h kernel.Handle) (kernel.Handle, error) {
	for i, step := range p.Steps {
		next, err := step.Execute(h)
		if err != nil {
			return kernel.Handle{}, fmt.Errorf("step %d: %w", i, err)
		}
		h = next
	}
	return h, nil
}

// Compile компилирует все шаги против одного и того же target.
// Частично воспроизводимая программа не выдается: любой промах дает (nil, false).
func (p Program) Compile(rng *rand.Rand, target kernel.Handle, epsilon float64) (Trace, bool) {
	var trace Trace
	for _, step := range p.Steps {
		actions, ok := step.Compile(rng, target, epsilon)
		if !ok {
			return nil, false
		}
		trace = append(trace, actions...)
	}
	return trace, true
}
