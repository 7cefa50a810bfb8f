package forecast

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// savePlot draws validation MSE against log10(lambda), one line per
// variable. The unpenalised fit has no position on that axis and is left out.
func savePlot(path, station string, fits map[string]Fit) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Validation error per ridge penalty for %s", station)
	p.X.Label.Text = "log10(lambda)"
	p.Y.Label.Text = "validation MSE (scaled)"

	var lines []any
	for _, variable := range Variables {
		fit, ok := fits[variable]
		if !ok {
			continue
		}
		var pts plotter.XYs
		for i, lambda := range Lambdas {
			mse := fit.ValidationMSE[i]
			if lambda <= 0 || math.IsNaN(mse) {
				continue
			}
			pts = append(pts, plotter.XY{X: math.Log10(lambda), Y: mse})
		}
		if len(pts) > 0 {
			lines = append(lines, fmt.Sprintf("%s - %s", station, variable), pts)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("add lines: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
