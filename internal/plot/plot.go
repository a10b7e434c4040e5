package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

var (
	ErrBadStyle    = errors.New("plot: style must be \"lines\" or \"points\"")
	ErrBadFormat   = errors.New("plot: unknown output format")
	ErrLengthMatch = errors.New("plot: x and y lengths differ")
)

type Style string

const (
	Lines  Style = "lines"
	Points Style = "points"
)

// Font names a typeface family and its size in points.
type Font struct {
	Name string
	Size float64
}

type Series struct {
	Name  string
	X, Y  []float64
	Style Style
}

// Figure is one chart: a title, axis labels and any number of series drawn
// on shared axes.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Font   Font
	Series []Series
}

// Renderer draws a figure. name identifies the figure within one run and is
// used to derive file names.
type Renderer interface {
	Render(fig Figure, name string) error
}

// New selects a backend by format: png, svg or pdf write image files to dir,
// html writes interactive pages to dir, terminal draws to w and none
// discards every figure.
func New(format, dir string, w io.Writer) (Renderer, error) {
	switch strings.ToLower(format) {
	case "png", "svg", "pdf":
		return &Image{dir: dir, ext: strings.ToLower(format)}, nil
	case "html":
		return &HTML{dir: dir}, nil
	case "terminal", "term", "ascii":
		return &Terminal{w: w, height: 15, width: 80}, nil
	case "none", "":
		return Discard{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadFormat, format)
}

// Formats lists the accepted values for New.
func Formats() []string {
	return []string{"png", "svg", "pdf", "html", "terminal", "none"}
}

// Discard accepts and validates figures without drawing them.
type Discard struct{}

func (Discard) Render(fig Figure, _ string) error {
	_, err := prepare(fig)
	return err
}

// prepare validates fig and returns a copy whose series hold only finite
// points.
func prepare(fig Figure) (Figure, error) {
	out := fig
	out.Series = make([]Series, 0, len(fig.Series))
	for _, s := range fig.Series {
		if s.Style != Lines && s.Style != Points {
			return Figure{}, fmt.Errorf("%w: series %q has %q", ErrBadStyle, s.Name, s.Style)
		}
		if len(s.X) != len(s.Y) {
			return Figure{}, fmt.Errorf("%w: series %q has %d x and %d y values", ErrLengthMatch, s.Name, len(s.X), len(s.Y))
		}
		clean := Series{Name: s.Name, Style: s.Style, X: make([]float64, 0, len(s.X)), Y: make([]float64, 0, len(s.Y))}
		for i := range s.X {
			if finite(s.X[i]) && finite(s.Y[i]) {
				clean.X = append(clean.X, s.X[i])
				clean.Y = append(clean.Y, s.Y[i])
			}
		}
		out.Series = append(out.Series, clean)
	}
	if out.Font.Size <= 0 {
		out.Font.Size = 12
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
