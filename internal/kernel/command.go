package kernel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/extrudegen/internal/feature"
	"github.com/annel0/extrudegen/internal/vec"
)

const (
	extrudeVerb     = "extrude"
	unionToken      = "+"
	differenceToken = "-"
)

// ErrMalformedCommand команда не соответствует формату extrude
var ErrMalformedCommand = errors.New("malformed extrude command")

// ExtrudeCommand разобранная команда выдавливания
type ExtrudeCommand struct {
	Loop         []vec.Vec3
	Displacement vec.Vec3
	Union        bool
}

// FormatExtrude собирает команду
// "extrude x1 y1 z1 ... xN yN zN dx dy dz (+|-)".
// Числа пишутся кратчайшей десятичной записью, восстанавливающей float64 точно.
func FormatExtrude(loop []feature.Vertex, d vec.Vec3, union bool) string {
	var b strings.Builder
	b.WriteString(extrudeVerb)
	put := func(f float64) {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	for _, v := range loop {
		put(v.X)
		put(v.Y)
		put(v.Z)
	}
	put(d.X)
	put(d.Y)
	put(d.Z)
	if union {
		b.WriteString(" " + unionToken)
	} else {
		b.WriteString(" " + differenceToken)
	}
	return b.String()
}

// ParseExtrude разбирает команду, построенную FormatExtrude
func ParseExtrude(cmd string) (ExtrudeCommand, error) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 || fields[0] != extrudeVerb {
		return ExtrudeCommand{}, fmt.Errorf("%w: expected %q verb", ErrMalformedCommand, extrudeVerb)
	}
	fields = fields[1:]
	if len(fields) < 1 {
		return ExtrudeCommand{}, fmt.Errorf("%w: missing operation token", ErrMalformedCommand)
	}

	var out ExtrudeCommand
	switch op := fields[len(fields)-1]; op {
	case unionToken:
		out.Union = true
	case differenceToken:
		out.Union = false
	default:
		return ExtrudeCommand{}, fmt.Errorf("%w: unknown operation token %q", ErrMalformedCommand, op)
	}
	fields = fields[:len(fields)-1]

	if len(fields)%3 != 0 {
		return ExtrudeCommand{}, fmt.Errorf("%w: %d coordinates is not a multiple of 3", ErrMalformedCommand, len(fields))
	}
	points, err := parseTriples(fields)
	if err != nil {
		return ExtrudeCommand{}, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if len(points) < 4 {
		return ExtrudeCommand{}, fmt.Errorf("%w: need at least 3 loop vertices and a displacement, got %d points",
			ErrMalformedCommand, len(points))
	}

	out.Loop = points[:len(points)-1]
	out.Displacement = points[len(points)-1]
	return out, nil
}

// ParsePoints превращает список чисел через пробел в точки N×3
func ParsePoints(s string) ([]vec.Vec3, error) {
	fields := strings.Fields(s)
	if len(fields)%3 != 0 {
		return nil, fmt.Errorf("point list has %d values, not a multiple of 3", len(fields))
	}
	return parseTriples(fields)
}

func parseTriples(fields []string) ([]vec.Vec3, error) {
	points := make([]vec.Vec3, 0, len(fields)/3)
	for i := 0; i+2 < len(fields); i += 3 {
		var xyz [3]float64
		for j := range xyz {
			f, err := strconv.ParseFloat(fields[i+j], 64)
			if err != nil {
				return nil, fmt.Errorf("value %d: %w", i+j, err)
			}
			xyz[j] = f
		}
		points = append(points, vec.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	return points, nil
}
