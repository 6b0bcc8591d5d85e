package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/trajopt/internal/transcribe"
)

// RenderSparsity draws the structural Jacobian pattern on a braille
// canvas no wider than maxWidth terminal cells, downsampling when the
// pattern exceeds the sub-pixel resolution. Any nonzero inside a
// sub-pixel bucket marks the bucket.
func RenderSparsity(p *transcribe.Pattern, maxWidth int) string {
	if p.Rows == 0 || p.Cols == 0 {
		return "(empty pattern)\n"
	}
	if maxWidth < 8 {
		maxWidth = 8
	}

	subW := maxWidth * 2
	if p.Cols < subW {
		subW = p.Cols
	}
	// Preserve the aspect ratio; braille cells are 2 wide by 4 tall.
	subH := p.Rows * subW / p.Cols
	if subH < 1 {
		subH = 1
	}
	if p.Rows < subH {
		subH = p.Rows
	}

	canvas := NewCanvas((subW+1)/2, (subH+3)/4)
	for r := 0; r < p.Rows; r++ {
		y := r * subH / p.Rows
		for c := 0; c < p.Cols; c++ {
			if p.At(r, c) {
				canvas.Set(c*subW/p.Cols, y)
			}
		}
	}

	var b strings.Builder
	b.WriteString(canvas.String())
	fmt.Fprintf(&b, "%d x %d, %d nonzeros (%.2f%% dense), bandwidth %d\n",
		p.Rows, p.Cols, p.NNZ(), 100*p.Density(), p.Bandwidth())
	return b.String()
}
