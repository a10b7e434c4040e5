package plot

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Terminal draws figures as ASCII charts. Series are resampled onto a
// common x range, one column per bin.
type Terminal struct {
	w      io.Writer
	height int
	width  int
}

func (r *Terminal) Render(fig Figure, _ string) error {
	fig, err := prepare(fig)
	if err != nil {
		return err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range fig.Series {
		for _, x := range s.X {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
	}

	var data [][]float64
	var names []string
	for _, s := range fig.Series {
		if len(s.X) == 0 {
			continue
		}
		data = append(data, resample(s.X, s.Y, r.width, lo, hi))
		names = append(names, s.Name)
	}

	if len(data) == 0 {
		_, err := fmt.Fprintf(r.w, "%s: no finite data\n\n", fig.Title)
		return err
	}

	caption := fmt.Sprintf("%s (%s against %s, x in [%.4g, %.4g])", fig.Title, fig.YLabel, fig.XLabel, lo, hi)
	if len(names) > 1 {
		caption += " " + strings.Join(names, ", ")
	}
	graph := asciigraph.PlotMany(data,
		asciigraph.Height(r.height),
		asciigraph.Width(r.width),
		asciigraph.Caption(caption),
	)
	_, err = fmt.Fprintf(r.w, "%s\n\n", graph)
	return err
}

// resample averages y over width equal bins of [lo, hi]. Empty bins repeat
// the previous value.
func resample(x, y []float64, width int, lo, hi float64) []float64 {
	sum := make([]float64, width)
	count := make([]int, width)
	span := hi - lo
	for i := range x {
		b := 0
		if span > 0 {
			b = int((x[i] - lo) / span * float64(width-1))
		}
		sum[b] += y[i]
		count[b]++
	}

	out := make([]float64, width)
	first := -1
	for b := range out {
		if count[b] > 0 {
			out[b] = sum[b] / float64(count[b])
			if first < 0 {
				first = b
			}
		} else if b > 0 {
			out[b] = out[b-1]
		}
	}
	for b := 0; b < first; b++ {
		out[b] = out[first]
	}
	return out
}
