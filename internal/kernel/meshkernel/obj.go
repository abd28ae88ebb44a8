package meshkernel

import (
	"bufio"
	"fmt"
	"os"
)

// SaveScene пишет сцену в формате Wavefront OBJ: все вершины и внешние полуграни
func (s *Scene) SaveScene(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# extrudegen scene: %d vertices, %d half-facets\n", len(s.vertices), len(s.halfFacets))
	for _, v := range s.vertices {
		fmt.Fprintf(w, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, hf := range s.halfFacets {
		if !hf.Outward {
			continue
		}
		w.WriteString("f")
		for _, idx := range hf.Cycles[0] {
			fmt.Fprintf(w, " %d", idx+1)
		}
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
