package program

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/extrudegen/internal/feature"
)

// ActionKind тег действия трассы воспроизведения
type ActionKind uint8

const (
	ActionNextVertex ActionKind = iota + 1
	ActionExtrude
)

const (
	opNextVertex = "next_vertex"
	opExtrude    = "extrude"
)

// Action низкоуровневый шаг трассы: NextVertex или Extrude
type Action interface {
	Kind() ActionKind
	String() string
}

// NextVertex добавляет вершину к строящемуся контуру
type NextVertex struct {
	Vertex feature.Vertex
}

// Extrude замыкает текущий контур и выдавливает его, ссылаясь на
// существующую вершину ядра как на точку присоединения
type Extrude struct {
	Connection feature.Vertex
	Union      bool
}

func (NextVertex) Kind() ActionKind { return ActionNextVertex }
func (Extrude) Kind() ActionKind    { return ActionExtrude }

func (a NextVertex) String() string { return fmt.Sprintf("NextVertex%v", a.Vertex) }

func (a Extrude) String() string {
	op := "+"
	if !a.Union {
		op = "-"
	}
	return fmt.Sprintf("Extrude%v %s", a.Connection, op)
}

// Trace плоский поток действий всей программы
type Trace []Action

// Steps делит трассу на шаги; каждый шаг заканчивается действием Extrude
func (t Trace) Steps() [][]Action {
	var steps [][]Action
	start := 0
	for i, a := range t {
		if a.Kind() == ActionExtrude {
			steps = append(steps, t[start:i+1])
			start = i + 1
		}
	}
	if start < len(t) {
		steps = append(steps, t[start:])
	}
	return steps
}

type actionJSON struct {
	Op     string         `json:"op"`
	Vertex feature.Vertex `json:"vertex"`
	Union  *bool          `json:"union,omitempty"`
}

// MarshalJSON кодирует трассу как массив {"op": ..., "vertex": [x,y,z]}
func (t Trace) MarshalJSON() ([]byte, error) {
	out := make([]actionJSON, len(t))
	for i, a := range t {
		switch x := a.(type) {
		case NextVertex:
			out[i] = actionJSON{Op: opNextVertex, Vertex: x.Vertex}
		case Extrude:
			union := x.Union
			out[i] = actionJSON{Op: opExtrude, Vertex: x.Connection, Union: &union}
		default:
			return nil, fmt.Errorf("trace: unknown action %T at %d", a, i)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON восстанавливает трассу из JSON
func (t *Trace) UnmarshalJSON(data []byte) error {
	var raw []actionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Trace, len(raw))
	for i, r := range raw {
		switch r.Op {
		case opNextVertex:
			out[i] = NextVertex{Vertex: r.Vertex}
		case opExtrude:
			if r.Union == nil {
				return fmt.Errorf("trace: extrude at %d has no union flag", i)
			}
			out[i] = Extrude{Connection: r.Vertex, Union: *r.Union}
		default:
			return fmt.Errorf("trace: unknown op %q at %d", r.Op, i)
		}
	}
	*t = out
	return nil
}
