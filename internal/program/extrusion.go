// Package program синтезирует программы построения из шагов выдавливания,
// исполняет их на ядре и компилирует в трассы воспроизведения, ссылающиеся
// на реальные вершины ядра.
package program

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"slices"

	"github.com/annel0/extrudegen/internal/feature"
	"github.com/annel0/extrudegen/internal/kernel"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/annel0/extrudegen/internal/vec"
)

// DefaultEpsilon допуск сопоставления предсказанной точки с вершиной ядра
const DefaultEpsilon = 0.01

// Extrusion один шаг построения: контур, вектор смещения и режим
// (объединение или вычитание). После создания не изменяется.
type Extrusion struct {
	Displacement vec.Vec3
	Union        bool
	Loop         []feature.Vertex
}

// Command возвращает команду протокола ядра для этого шага
func (e Extrusion) Command() string {
	return kernel.FormatExtrude(e.Loop, e.Displacement, e.Union)
}

// Execute выполняет шаг на копии состояния ядра; h не меняется
func (e Extrusion) Execute(h kernel.Handle) (kernel.Handle, error) {
	return h.Extrude(e.Loop, e.Displacement, e.Union)
}

// Compile строит трассу шага относительно полностью построенного тела target.
//
// Контур не имеет ни выделенного начала, ни предпочтительного обхода, поэтому
// с вероятностью 1/2 он обращается и затем циклически сдвигается на случайную
// величину. Точка присоединения last+Displacement сопоставляется с вершинами
// target с допуском epsilon: ядро могло сдвинуть номинальную точку, а трасса
// обязана ссылаться на реальную вершину. Промах дает (nil, false).
func (e Extrusion) Compile(rng *rand.Rand, target kernel.Handle, epsilon float64) ([]Action, bool) {
	if len(e.Loop) == 0 {
		return nil, false
	}

	vs := slices.Clone(e.Loop)
	if rng.Intn(2) == 0 {
		slices.Reverse(vs)
	}
	offset := rng.Intn(len(vs))
	vs = append(slices.Clone(vs[offset:]), vs[:offset]...)

	actions := make([]Action, 0, len(vs)+1)
	for _, v := range vs {
		actions = append(actions, NextVertex{Vertex: v})
	}

	connection := vs[len(vs)-1].Add(e.Displacement)
	resolved, ok := target.FindClose(connection, epsilon)
	if !ok {
		logging.Debug("compile: no kernel vertex within %g of %v", epsilon, connection)
		return nil, false
	}
	return append(actions, Extrude{Connection: resolved, Union: e.Union}), true
}

type extrusionJSON struct {
	Displacement feature.Vertex   `json:"displacement"`
	Union        bool             `json:"union"`
	Loop         []feature.Vertex `json:"loop"`
}

// MarshalJSON кодирует шаг с векторами в виде [x, y, z]
func (e Extrusion) MarshalJSON() ([]byte, error) {
	return json.Marshal(extrusionJSON{
		Displacement: feature.FromVec(e.Displacement),
		Union:        e.Union,
		Loop:         e.Loop,
	})
}

// UnmarshalJSON читает шаг, записанный MarshalJSON
func (e *Extrusion) UnmarshalJSON(data []byte) error {
	var raw extrusionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Loop) < 3 {
		return fmt.Errorf("extrusion: loop has %d vertices, need at least 3", len(raw.Loop))
	}
	*e = Extrusion{Displacement: raw.Displacement.Vec(), Union: raw.Union, Loop: raw.Loop}
	return nil
}
