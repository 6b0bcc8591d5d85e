package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/trajopt/internal/models"
	"github.com/san-kum/trajopt/internal/ocp"
	"github.com/san-kum/trajopt/internal/transcribe"
)

func TestCanvasSetMarksBrailleCell(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	if c.Grid[0][0] == 0x2800 {
		t.Error("expected a marked cell")
	}
	c.Clear()
	if c.Grid[0][0] != 0x2800 {
		t.Error("clear must restore the empty braille rune")
	}
}

func TestCanvasIgnoresOutOfRange(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(0, -4)
	c.Set(100, 100)
	for _, row := range c.Grid {
		for _, r := range row {
			if r != 0x2800 {
				t.Fatal("out-of-range pixels must not mark cells")
			}
		}
	}
}

func TestRenderSparsityIncludesSummaryLine(t *testing.T) {
	problem := models.NewDoubleIntegrator().Problem()
	solver := &ocp.Solver{Mesh: ocp.UniformMesh(4), Scheme: ocp.SchemeRadau, Degree: 2}
	engine, err := transcribe.New(problem, solver)
	if err != nil {
		t.Fatal(err)
	}
	out := RenderSparsity(engine.JacobianSparsity(), 60)
	if !strings.Contains(out, "nonzeros") {
		t.Errorf("expected a summary line, got:\n%s", out)
	}
}
